package chain_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/starnotary/starchain/internal/chain"
)

func newTestLedger(t *testing.T) *chain.Ledger {
	t.Helper()
	l, err := chain.New()
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return l
}

func TestNewSealsGenesisBlock(t *testing.T) {
	l := newTestLedger(t)

	if h := l.Height(); h != 0 {
		t.Errorf("expected height 0, got %d", h)
	}

	g, ok := l.ByHeight(0)
	if !ok {
		t.Fatal("genesis block missing")
	}
	if g.PreviousHash != "" {
		t.Errorf("genesis must have no predecessor, got %q", g.PreviousHash)
	}
	if g.Owner != "" {
		t.Errorf("genesis must have no owner, got %q", g.Owner)
	}
	if !g.Validate() {
		t.Error("genesis block must validate")
	}
}

func TestAppendLinksBlocks(t *testing.T) {
	l := newTestLedger(t)

	for i := 1; i <= 5; i++ {
		b, err := l.Append(chain.NewStarBlock(fmt.Sprintf("1Addr%d", i), "cafe"))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if b.Height != i {
			t.Errorf("expected height %d, got %d", i, b.Height)
		}

		prev, ok := l.ByHeight(i - 1)
		if !ok {
			t.Fatalf("predecessor of %d missing", i)
		}
		if b.PreviousHash != prev.Hash {
			t.Errorf("block %d is not linked to its predecessor", i)
		}
	}

	if h := l.Height(); h != 5 {
		t.Errorf("expected height 5, got %d", h)
	}
}

func TestAppendRejectsSealedBlock(t *testing.T) {
	l := newTestLedger(t)

	b := chain.NewStarBlock("1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", "cafe")
	if err := b.Seal(9, 1700000000, "bogus"); err != nil {
		t.Fatalf("seal: %v", err)
	}

	if _, err := l.Append(b); !errors.Is(err, chain.ErrSealed) {
		t.Errorf("expected ErrSealed, got %v", err)
	}
	if h := l.Height(); h != 0 {
		t.Errorf("rejected append must not grow the chain, height %d", h)
	}
}

func TestTipFollowsAppends(t *testing.T) {
	l := newTestLedger(t)

	if tip := l.Tip(); tip.Height != 0 {
		t.Errorf("fresh tip must be genesis, got height %d", tip.Height)
	}

	b, err := l.Append(chain.NewStarBlock("1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", "cafe"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if tip := l.Tip(); tip.Hash != b.Hash {
		t.Error("tip must be the last appended block")
	}
}

func TestByHeightOutOfRange(t *testing.T) {
	l := newTestLedger(t)

	if _, ok := l.ByHeight(-1); ok {
		t.Error("negative height must miss")
	}
	if _, ok := l.ByHeight(1); ok {
		t.Error("height beyond tip must miss")
	}
}

func TestByHash(t *testing.T) {
	l := newTestLedger(t)
	b, err := l.Append(chain.NewStarBlock("1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", "cafe"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	got, ok := l.ByHash(b.Hash)
	if !ok {
		t.Fatal("appended block not found by hash")
	}
	if got.Height != b.Height {
		t.Errorf("expected height %d, got %d", b.Height, got.Height)
	}

	if _, ok := l.ByHash("0000000000000000000000000000000000000000000000000000000000000000"); ok {
		t.Error("unknown hash must miss")
	}
}

func TestByOwnerFiltersAndOrders(t *testing.T) {
	l := newTestLedger(t)

	alice := "1AliceFzpnkhbAteg6g5zmuCSgCcmr2ELv"
	bob := "1BobQfCULQtyHkuUnPrmmh5sHCaFairSzW"
	for _, owner := range []string{alice, bob, alice} {
		if _, err := l.Append(chain.NewStarBlock(owner, "cafe")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	owned := l.ByOwner(alice)
	if len(owned) != 2 {
		t.Fatalf("expected 2 blocks for alice, got %d", len(owned))
	}
	if owned[0].Height != 1 || owned[1].Height != 3 {
		t.Errorf("expected heights 1 and 3, got %d and %d", owned[0].Height, owned[1].Height)
	}

	if owned := l.ByOwner("1Unknown"); len(owned) != 0 {
		t.Errorf("unknown owner must own nothing, got %d blocks", len(owned))
	}
	if owned := l.ByOwner(""); len(owned) != 0 {
		t.Errorf("empty address must never match genesis, got %d blocks", len(owned))
	}
}

func TestValidateCleanChain(t *testing.T) {
	l := newTestLedger(t)
	for i := 0; i < 3; i++ {
		if _, err := l.Append(chain.NewStarBlock("1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", "cafe")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if faults := l.Validate(); len(faults) != 0 {
		t.Errorf("clean chain must have no faults, got %v", faults)
	}
}

func TestValidateReportsTamperedBlock(t *testing.T) {
	l := newTestLedger(t)
	for i := 0; i < 3; i++ {
		if _, err := l.Append(chain.NewStarBlock("1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", "cafe")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// Rewriting a sealed body breaks that block's hash but leaves its
	// successor's linkage intact, so exactly one fault is expected.
	b, _ := l.ByHeight(2)
	b.Body = "deadbeef"

	faults := l.Validate()
	if len(faults) != 1 {
		t.Fatalf("expected 1 fault, got %d: %v", len(faults), faults)
	}
	if faults[0].Kind != chain.FaultIntegrity {
		t.Errorf("expected integrity fault, got %s", faults[0].Kind)
	}
	if faults[0].Height != 2 {
		t.Errorf("expected fault at height 2, got %d", faults[0].Height)
	}
}

func TestValidateReportsBrokenLinkage(t *testing.T) {
	l := newTestLedger(t)
	for i := 0; i < 3; i++ {
		if _, err := l.Append(chain.NewStarBlock("1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", "cafe")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// Swapping a stored hash invalidates the block itself and orphans its
	// successor, so the audit must report both.
	b, _ := l.ByHeight(1)
	b.Hash = "0000000000000000000000000000000000000000000000000000000000000000"

	faults := l.Validate()
	if len(faults) != 2 {
		t.Fatalf("expected 2 faults, got %d: %v", len(faults), faults)
	}

	kinds := map[chain.FaultKind]int{}
	for _, f := range faults {
		kinds[f.Kind]++
	}
	if kinds[chain.FaultIntegrity] != 1 || kinds[chain.FaultLinkage] != 1 {
		t.Errorf("expected one integrity and one linkage fault, got %v", faults)
	}
}

func TestAppendConcurrent(t *testing.T) {
	l := newTestLedger(t)

	const workers = 25
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := l.Append(chain.NewStarBlock(fmt.Sprintf("1Addr%d", i), "cafe")); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if h := l.Height(); h != workers {
		t.Fatalf("expected height %d, got %d", workers, h)
	}
	for i := 1; i <= workers; i++ {
		b, ok := l.ByHeight(i)
		if !ok {
			t.Fatalf("block %d missing", i)
		}
		prev, _ := l.ByHeight(i - 1)
		if b.PreviousHash != prev.Hash {
			t.Errorf("block %d is not linked to block %d", i, i-1)
		}
	}
	if faults := l.Validate(); len(faults) != 0 {
		t.Errorf("concurrently built chain must audit clean, got %v", faults)
	}
}
