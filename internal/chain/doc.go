// Package chain implements the append-only, hash-linked ledger that backs
// the star registry.
//
// The chain begins with a genesis block sealed at height 0 with no
// predecessor. Every later block records the SHA-256 of the block before
// it, so any post-seal tampering is detectable: Block.Validate covers a
// single block's content, Ledger.Validate walks the whole chain and
// reports every integrity and linkage fault it finds.
//
// The ledger lives purely in process memory and is rebuilt from genesis on
// restart. Durability, replication, and consensus are explicitly out of
// scope.
package chain
