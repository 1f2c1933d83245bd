package chain

import (
	"fmt"
	"sync"
	"time"
)

// Ledger is the append-only sequence of sealed blocks. Index 0 is always
// the genesis block. All mutation happens inside Append's critical
// section; readers take a shared lock and never observe a block that is
// only partially appended.
type Ledger struct {
	mu     sync.RWMutex
	blocks []*Block
}

// New constructs a Ledger and appends the genesis block through the
// regular append protocol. An error here is fatal to the caller: there is
// no valid ledger without a height-0 anchor.
func New() (*Ledger, error) {
	l := &Ledger{}
	if _, err := l.Append(newGenesisBlock()); err != nil {
		return nil, fmt.Errorf("append genesis block: %w", err)
	}
	return l, nil
}

// Append seals b against the current chain tip and appends it. Height
// assignment, linkage, sealing, and the post-condition checks all run
// under one lock, so concurrent appends cannot interleave. On any
// rejection the chain is left unmodified.
func (l *Ledger) Append(b *Block) (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	height := len(l.blocks)
	var previousHash string
	if height > 0 {
		previousHash = l.blocks[height-1].Hash
	}

	if err := b.Seal(height, time.Now().Unix(), previousHash); err != nil {
		return nil, err
	}
	if b.Hash == "" || b.Height != height || b.Time == 0 {
		return nil, ErrInvalidBlock
	}

	l.blocks = append(l.blocks, b)
	return b, nil
}

// Height returns the height of the chain tip. A fresh ledger holding only
// the genesis block has height 0.
func (l *Ledger) Height() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks) - 1
}

// Tip returns the most recently appended block.
func (l *Ledger) Tip() *Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blocks[len(l.blocks)-1]
}

// ByHeight returns the block at the given height. A height outside the
// chain is a normal miss, not an error.
func (l *Ledger) ByHeight(height int) (*Block, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if height < 0 || height >= len(l.blocks) {
		return nil, false
	}
	return l.blocks[height], true
}

// ByHash scans the chain for the block with the given hash.
func (l *Ledger) ByHash(hash string) (*Block, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range l.blocks {
		if b.Hash == hash {
			return b, true
		}
	}
	return nil, false
}

// ByOwner returns every block credited to address in ascending height
// order. The genesis block carries no owner and never matches.
func (l *Ledger) ByOwner(address string) []*Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var owned []*Block
	for _, b := range l.blocks {
		if b.Owner != "" && b.Owner == address {
			owned = append(owned, b)
		}
	}
	return owned
}
