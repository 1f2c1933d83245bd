package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/starnotary/starchain/internal/chain"
	"github.com/starnotary/starchain/internal/signature"
	"github.com/starnotary/starchain/internal/star"
)

// defaultChallengeWindow is how long an issued challenge stays valid.
const defaultChallengeWindow = 5 * time.Minute

// OwnedStar pairs a decoded star with the address that registered it.
type OwnedStar struct {
	Owner string    `json:"owner"`
	Star  star.Star `json:"star"`
}

// StarService runs the ownership workflow that gates every append to the
// chain: challenge issuance, proof-of-possession checks, and star
// registration.
type StarService struct {
	ledger   *chain.Ledger
	verifier signature.Verifier
	window   time.Duration
	logger   *zap.Logger
}

// NewStarService creates a StarService with the default five-minute
// challenge window.
func NewStarService(ledger *chain.Ledger, verifier signature.Verifier, logger *zap.Logger) *StarService {
	return &StarService{
		ledger:   ledger,
		verifier: verifier,
		window:   defaultChallengeWindow,
		logger:   logger,
	}
}

// SetChallengeWindow overrides how long issued challenges stay valid.
// Non-positive durations are ignored.
func (s *StarService) SetChallengeWindow(d time.Duration) {
	if d > 0 {
		s.window = d
	}
}

// ChallengeWindow returns the current challenge validity window.
func (s *StarService) ChallengeWindow() time.Duration {
	return s.window
}

// RequestChallenge issues a time-bound challenge message for address. The
// caller must sign it with the wallet key behind the address and present
// the signature to SubmitStar before the window closes.
func (s *StarService) RequestChallenge(_ context.Context, address string) (string, error) {
	if address == "" {
		return "", fmt.Errorf("address must not be empty")
	}

	message := NewChallenge(address, time.Now())
	s.logger.Info("ownership challenge issued", zap.String("address", address))
	return message, nil
}

// SubmitStar registers a star for address. The challenge message must be
// inside its validity window and sig must prove possession of the address
// key; the expiry check runs first, so a stale challenge is reported as
// expired even when its signature is also bad. On success the chain grows
// by one block, returned sealed.
func (s *StarService) SubmitStar(_ context.Context, address, message, sig string, st star.Star) (*chain.Block, error) {
	_, issuedAt, err := ParseChallenge(message)
	if err != nil {
		return nil, err
	}

	if time.Now().Unix()-issuedAt >= int64(s.window/time.Second) {
		return nil, ErrChallengeExpired
	}

	if err := s.verifier.Verify(message, address, sig); err != nil {
		s.logger.Info("star submission rejected",
			zap.String("address", address),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s", ErrSignatureInvalid, err.Error())
	}

	body, err := st.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode star: %w", err)
	}

	block, err := s.ledger.Append(chain.NewStarBlock(address, body))
	if err != nil {
		s.logger.Error("append star block",
			zap.String("address", address),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("star registered",
		zap.Int("height", block.Height),
		zap.String("hash", block.Hash),
		zap.String("owner", address),
	)

	// Diagnostic only. The submission's outcome never depends on the audit.
	go s.auditAfterSubmit()

	return block, nil
}

func (s *StarService) auditAfterSubmit() {
	if faults := s.ledger.Validate(); len(faults) > 0 {
		s.logger.Error("post-submit chain audit found faults", zap.Int("faults", len(faults)))
		return
	}
	s.logger.Debug("post-submit chain audit clean", zap.Int("height", s.ledger.Height()))
}

// StarsByOwner returns every star registered by address, decoded, in
// ascending height order. An address with no registrations yields
// ErrNoStars.
func (s *StarService) StarsByOwner(_ context.Context, address string) ([]OwnedStar, error) {
	blocks := s.ledger.ByOwner(address)
	if len(blocks) == 0 {
		return nil, ErrNoStars
	}

	stars := make([]OwnedStar, 0, len(blocks))
	for _, b := range blocks {
		decoded, err := star.Decode(b.Body)
		if err != nil {
			return nil, fmt.Errorf("decode star at height %d: %w", b.Height, err)
		}
		stars = append(stars, OwnedStar{Owner: b.Owner, Star: decoded})
	}
	return stars, nil
}

// Sentinel errors for the ownership workflow.
var (
	ErrChallengeExpired = errors.New("challenge message has expired; request a new one")
	ErrSignatureInvalid = errors.New("signature verification failed")
	ErrNoStars          = errors.New("no stars registered for this address")
)
