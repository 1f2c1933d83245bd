package service_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	bitcoin "github.com/bitcoinschema/go-bitcoin/v2"
	"go.uber.org/zap"

	"github.com/starnotary/starchain/internal/chain"
	"github.com/starnotary/starchain/internal/registry/service"
	"github.com/starnotary/starchain/internal/signature"
	"github.com/starnotary/starchain/internal/star"
)

// ── Helpers ────────────────────────────────────────────────────────────────

var testStar = star.Star{
	Dec:   "68 degrees 52' 56.9",
	RA:    "16h 29m 1.0s",
	Story: "Testing the story",
}

func acceptAll(_, _, _ string) error { return nil }
func rejectAll(_, _, _ string) error { return errors.New("bad signature") }

func newSvc(t *testing.T, verify signature.VerifierFunc) (*service.StarService, *chain.Ledger) {
	t.Helper()
	ledger, err := chain.New()
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return service.NewStarService(ledger, verify, zap.NewNop()), ledger
}

// newWallet generates a throwaway compressed key pair and returns the
// derived address plus a signing closure.
func newWallet(t *testing.T) (address string, sign func(string) string) {
	t.Helper()

	priv, err := bitcoin.CreatePrivateKey()
	if err != nil {
		t.Fatalf("create private key: %v", err)
	}
	address, err = bitcoin.GetAddressFromPrivateKey(priv, true)
	if err != nil {
		t.Fatalf("derive address: %v", err)
	}
	sign = func(message string) string {
		sig, err := bitcoin.SignMessage(priv, message, true)
		if err != nil {
			t.Fatalf("sign message: %v", err)
		}
		return sig
	}
	return address, sign
}

// ── Challenge issuance ─────────────────────────────────────────────────────

func TestRequestChallenge_format(t *testing.T) {
	svc, _ := newSvc(t, acceptAll)

	msg, err := svc.RequestChallenge(context.Background(), "1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy")
	if err != nil {
		t.Fatalf("RequestChallenge: %v", err)
	}

	pattern := regexp.MustCompile(`^1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy:\d+:starRegistry$`)
	if !pattern.MatchString(msg) {
		t.Errorf("challenge %q does not match <address>:<timestamp>:starRegistry", msg)
	}
}

func TestRequestChallenge_emptyAddress(t *testing.T) {
	svc, _ := newSvc(t, acceptAll)
	if _, err := svc.RequestChallenge(context.Background(), ""); err == nil {
		t.Error("expected error for empty address")
	}
}

// ── Star submission ────────────────────────────────────────────────────────

func TestSubmitStar_endToEnd(t *testing.T) {
	svc, ledger := newSvc(t, signature.BitcoinMessageVerifier{}.Verify)
	address, sign := newWallet(t)

	msg, err := svc.RequestChallenge(context.Background(), address)
	if err != nil {
		t.Fatalf("RequestChallenge: %v", err)
	}

	block, err := svc.SubmitStar(context.Background(), address, msg, sign(msg), testStar)
	if err != nil {
		t.Fatalf("SubmitStar: %v", err)
	}

	if block.Height != 1 {
		t.Errorf("expected height 1, got %d", block.Height)
	}
	if block.Owner != address {
		t.Errorf("expected owner %q, got %q", address, block.Owner)
	}
	genesis, _ := ledger.ByHeight(0)
	if block.PreviousHash != genesis.Hash {
		t.Error("block must link to genesis")
	}

	decoded, err := star.Decode(block.Body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded != testStar {
		t.Errorf("stored star mismatch: %+v", decoded)
	}
}

func TestSubmitStar_sequentialSubmissions(t *testing.T) {
	svc, _ := newSvc(t, signature.BitcoinMessageVerifier{}.Verify)

	var prevHash string
	for i := 1; i <= 2; i++ {
		address, sign := newWallet(t)
		msg, err := svc.RequestChallenge(context.Background(), address)
		if err != nil {
			t.Fatalf("RequestChallenge %d: %v", i, err)
		}
		block, err := svc.SubmitStar(context.Background(), address, msg, sign(msg), testStar)
		if err != nil {
			t.Fatalf("SubmitStar %d: %v", i, err)
		}
		if block.Height != i {
			t.Errorf("expected height %d, got %d", i, block.Height)
		}
		if i > 1 && block.PreviousHash != prevHash {
			t.Errorf("block %d is not linked to its predecessor", i)
		}
		prevHash = block.Hash
	}
}

func TestSubmitStar_expiredChallenge(t *testing.T) {
	svc, ledger := newSvc(t, acceptAll)

	msg := service.NewChallenge("1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", time.Now().Add(-6*time.Minute))
	_, err := svc.SubmitStar(context.Background(), "1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", msg, "sig", testStar)
	if !errors.Is(err, service.ErrChallengeExpired) {
		t.Errorf("expected ErrChallengeExpired, got %v", err)
	}
	if h := ledger.Height(); h != 0 {
		t.Errorf("rejected submission must not grow the chain, height %d", h)
	}
}

func TestSubmitStar_expiryCheckedBeforeSignature(t *testing.T) {
	// A stale challenge with a bad signature must report expiry, not the
	// signature failure.
	svc, _ := newSvc(t, rejectAll)

	msg := service.NewChallenge("1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", time.Now().Add(-6*time.Minute))
	_, err := svc.SubmitStar(context.Background(), "1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", msg, "garbage", testStar)
	if !errors.Is(err, service.ErrChallengeExpired) {
		t.Errorf("expected ErrChallengeExpired, got %v", err)
	}
}

func TestSubmitStar_badSignature(t *testing.T) {
	svc, ledger := newSvc(t, signature.BitcoinMessageVerifier{}.Verify)
	address, _ := newWallet(t)
	_, signOther := newWallet(t)

	msg, err := svc.RequestChallenge(context.Background(), address)
	if err != nil {
		t.Fatalf("RequestChallenge: %v", err)
	}

	// Signed by a different wallet than the claimed address.
	_, err = svc.SubmitStar(context.Background(), address, msg, signOther(msg), testStar)
	if !errors.Is(err, service.ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid, got %v", err)
	}
	if h := ledger.Height(); h != 0 {
		t.Errorf("rejected submission must not grow the chain, height %d", h)
	}
}

func TestSubmitStar_malformedMessage(t *testing.T) {
	svc, _ := newSvc(t, acceptAll)

	_, err := svc.SubmitStar(context.Background(), "1Addr", "not a challenge", "sig", testStar)
	if !errors.Is(err, service.ErrMalformedChallenge) {
		t.Errorf("expected ErrMalformedChallenge, got %v", err)
	}
}

func TestSubmitStar_storyTooLong(t *testing.T) {
	svc, _ := newSvc(t, acceptAll)

	long := testStar
	long.Story = strings.Repeat("a", star.MaxStoryBytes+1)
	msg := service.NewChallenge("1Addr", time.Now())
	_, err := svc.SubmitStar(context.Background(), "1Addr", msg, "sig", long)
	if !errors.Is(err, star.ErrStoryTooLong) {
		t.Errorf("expected ErrStoryTooLong, got %v", err)
	}
}

func TestSubmitStar_customWindow(t *testing.T) {
	svc, _ := newSvc(t, acceptAll)
	svc.SetChallengeWindow(time.Hour)

	// Ten minutes old: expired under the default window, valid under an
	// hour-long one.
	msg := service.NewChallenge("1Addr", time.Now().Add(-10*time.Minute))
	if _, err := svc.SubmitStar(context.Background(), "1Addr", msg, "sig", testStar); err != nil {
		t.Errorf("submission inside widened window failed: %v", err)
	}
}

// ── Owner queries ──────────────────────────────────────────────────────────

func TestStarsByOwner_filtersAndOrders(t *testing.T) {
	svc, _ := newSvc(t, acceptAll)

	alice := "1AliceFzpnkhbAteg6g5zmuCSgCcmr2ELv"
	bob := "1BobQfCULQtyHkuUnPrmmh5sHCaFairSzW"
	stories := map[int]string{1: "first", 2: "bob's", 3: "second"}
	for i, owner := range []string{alice, bob, alice} {
		st := testStar
		st.Story = stories[i+1]
		msg := service.NewChallenge(owner, time.Now())
		if _, err := svc.SubmitStar(context.Background(), owner, msg, "sig", st); err != nil {
			t.Fatalf("SubmitStar: %v", err)
		}
	}

	stars, err := svc.StarsByOwner(context.Background(), alice)
	if err != nil {
		t.Fatalf("StarsByOwner: %v", err)
	}
	if len(stars) != 2 {
		t.Fatalf("expected 2 stars for alice, got %d", len(stars))
	}
	if stars[0].Star.Story != "first" || stars[1].Star.Story != "second" {
		t.Errorf("stars out of registration order: %+v", stars)
	}
	for _, s := range stars {
		if s.Owner != alice {
			t.Errorf("expected owner %q, got %q", alice, s.Owner)
		}
	}
}

func TestStarsByOwner_noStars(t *testing.T) {
	svc, _ := newSvc(t, acceptAll)

	_, err := svc.StarsByOwner(context.Background(), "1Unknown")
	if !errors.Is(err, service.ErrNoStars) {
		t.Errorf("expected ErrNoStars, got %v", err)
	}
}
