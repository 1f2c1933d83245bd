package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/starnotary/starchain/internal/registry/service"
)

func TestNewChallenge_format(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	msg := service.NewChallenge("1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", issued)

	want := "1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy:1700000000:starRegistry"
	if msg != want {
		t.Errorf("got %q, want %q", msg, want)
	}
}

func TestParseChallenge_roundTrip(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	msg := service.NewChallenge("1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy", issued)

	address, issuedAt, err := service.ParseChallenge(msg)
	if err != nil {
		t.Fatalf("ParseChallenge: %v", err)
	}
	if address != "1FzpnkhbAteg6g5zmuCSgCcmr2ELvHCyvy" {
		t.Errorf("address: got %q", address)
	}
	if issuedAt != 1700000000 {
		t.Errorf("issuedAt: got %d", issuedAt)
	}
}

func TestParseChallenge_malformed(t *testing.T) {
	cases := []string{
		"",
		"no-colons-at-all",
		"addr:1700000000",
		"addr:1700000000:starRegistry:extra",
		"addr:not-a-number:starRegistry",
	}
	for _, msg := range cases {
		if _, _, err := service.ParseChallenge(msg); !errors.Is(err, service.ErrMalformedChallenge) {
			t.Errorf("%q: expected ErrMalformedChallenge, got %v", msg, err)
		}
	}
}
