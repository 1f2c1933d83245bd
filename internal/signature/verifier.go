// Package signature provides the proof-of-possession check that gates star
// registrations: verifying that the key behind a wallet address signed a
// given challenge message.
package signature

import (
	bitcoin "github.com/bitcoinschema/go-bitcoin/v2"
)

// Verifier checks that sig is a valid signature over message by the key
// behind address. A nil error means the proof holds.
type Verifier interface {
	Verify(message, address, sig string) error
}

// VerifierFunc adapts a plain function to the Verifier interface. Tests
// use it to force accept or reject outcomes.
type VerifierFunc func(message, address, sig string) error

// Verify implements Verifier.
func (f VerifierFunc) Verify(message, address, sig string) error {
	return f(message, address, sig)
}

// BitcoinMessageVerifier verifies signatures in the Bitcoin signed-message
// format, the scheme wallets use for plain-text signing. Signatures are
// expected base64-encoded, as wallets emit them.
type BitcoinMessageVerifier struct{}

// Verify implements Verifier.
func (BitcoinMessageVerifier) Verify(message, address, sig string) error {
	return bitcoin.VerifyMessage(address, sig, message)
}
