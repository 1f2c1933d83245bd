package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// GenesisMarker is the fixed payload of the height-0 anchor block.
const GenesisMarker = "Genesis Block"

var (
	// ErrSealed is returned when Seal is called on an already-sealed block.
	ErrSealed = errors.New("block already sealed")

	// ErrInvalidBlock is returned by Append when a freshly sealed block
	// fails its post-conditions. The chain is left untouched.
	ErrInvalidBlock = errors.New("invalid block")
)

// Block is a single entry in the star ledger.
//
// A block starts life unsealed, carrying only its body and optional owner.
// Seal assigns the linkage fields and the hash exactly once; after that,
// any change to the content is caught by Validate.
type Block struct {
	Height       int    `json:"height"`
	Time         int64  `json:"time"`
	PreviousHash string `json:"previousBlockHash,omitempty"`
	Hash         string `json:"hash"`
	Owner        string `json:"owner,omitempty"`
	Body         string `json:"body"`
}

// NewStarBlock returns an unsealed block crediting owner with the
// hex-encoded star payload body.
func NewStarBlock(owner, body string) *Block {
	return &Block{Owner: owner, Body: body}
}

// newGenesisBlock returns the unsealed height-0 anchor block: a fixed
// marker payload, no owner, no predecessor.
func newGenesisBlock() *Block {
	return &Block{Body: hex.EncodeToString([]byte(GenesisMarker))}
}

// Seal assigns the linkage fields and computes the block hash. It must be
// called exactly once; a second call returns ErrSealed and changes nothing.
func (b *Block) Seal(height int, ts int64, previousHash string) error {
	if b.Hash != "" {
		return ErrSealed
	}
	b.Height = height
	b.Time = ts
	b.PreviousHash = previousHash
	b.Hash = b.computeHash()
	return nil
}

// Validate recomputes the hash over the block's content and compares it to
// the stored hash. It detects tampering with the block itself; linkage to
// the predecessor is the Ledger's concern.
func (b *Block) Validate() bool {
	return b.Hash != "" && b.Hash == b.computeHash()
}

// computeHash derives the SHA-256 over the block's canonical content. The
// stored hash never feeds its own digest.
func (b *Block) computeHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s|%s|%s", b.Height, b.Time, b.PreviousHash, b.Owner, b.Body)
	return hex.EncodeToString(h.Sum(nil))
}
