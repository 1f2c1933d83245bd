package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DomainTag is the fixed suffix of every ownership challenge message. It
// scopes signatures to this registry, so a signature produced for another
// signing flow can never pass here.
const DomainTag = "starRegistry"

// ErrMalformedChallenge is returned when a submitted message does not have
// the <address>:<timestamp>:<tag> shape.
var ErrMalformedChallenge = errors.New("malformed challenge message")

// NewChallenge builds the challenge message a wallet must sign:
// "<address>:<unix-seconds>:starRegistry".
func NewChallenge(address string, now time.Time) string {
	return fmt.Sprintf("%s:%d:%s", address, now.Unix(), DomainTag)
}

// ParseChallenge extracts the address and issue time from a challenge
// message. The timestamp is the second colon-delimited field.
func ParseChallenge(message string) (address string, issuedAt int64, err error) {
	parts := strings.Split(message, ":")
	if len(parts) != 3 {
		return "", 0, ErrMalformedChallenge
	}
	issuedAt, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad timestamp %q", ErrMalformedChallenge, parts[1])
	}
	return parts[0], issuedAt, nil
}
