package chain

import "fmt"

// FaultKind classifies a chain audit finding.
type FaultKind string

const (
	// FaultIntegrity marks a block whose stored hash no longer matches
	// its content.
	FaultIntegrity FaultKind = "integrity"

	// FaultLinkage marks a block whose previous-hash does not match the
	// hash of its predecessor.
	FaultLinkage FaultKind = "linkage"
)

// Fault is a single finding from a chain audit. Faults are data returned
// to the caller, never raised as errors.
type Fault struct {
	Kind   FaultKind `json:"kind"`
	Height int       `json:"height"`
	Hash   string    `json:"hash"`
	Detail string    `json:"detail"`
}

// Validate walks the whole chain in ascending height order and collects
// every integrity and linkage fault. An empty result means the chain is
// intact. The pass reads under a shared lock and never mutates the chain.
func (l *Ledger) Validate() []Fault {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var faults []Fault
	for i, b := range l.blocks {
		if !b.Validate() {
			faults = append(faults, Fault{
				Kind:   FaultIntegrity,
				Height: b.Height,
				Hash:   b.Hash,
				Detail: fmt.Sprintf("block %d failed hash validation", b.Height),
			})
		}
		if i == 0 {
			continue
		}
		if prev := l.blocks[i-1]; b.PreviousHash != prev.Hash {
			faults = append(faults, Fault{
				Kind:   FaultLinkage,
				Height: b.Height,
				Hash:   b.Hash,
				Detail: fmt.Sprintf("block %d is not linked to block %d", b.Height, prev.Height),
			})
		}
	}
	return faults
}
