package client

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bitcoin "github.com/bitcoinschema/go-bitcoin/v2"
	"github.com/libsv/go-bk/bec"
)

// Wallet holds the signing key for one registry address. It is written to
// disk by 'star wallet new' as a WIF file and read back by LoadWallet.
//
// Addresses are derived from the compressed public key, and signatures
// reference the compressed key, so the pair always verifies together.
type Wallet struct {
	priv    *bec.PrivateKey
	wif     string
	address string
}

// NewWallet generates a fresh key pair.
func NewWallet() (*Wallet, error) {
	hexKey, err := bitcoin.CreatePrivateKeyString()
	if err != nil {
		return nil, fmt.Errorf("create private key: %w", err)
	}
	wif, err := bitcoin.PrivateKeyToWifString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encode WIF: %w", err)
	}
	return WalletFromWIF(wif)
}

// WalletFromWIF parses a WIF-encoded private key.
func WalletFromWIF(wif string) (*Wallet, error) {
	wif = strings.TrimSpace(wif)
	priv, err := bitcoin.WifToPrivateKey(wif)
	if err != nil {
		return nil, fmt.Errorf("parse WIF: %w", err)
	}
	address, err := bitcoin.GetAddressFromPrivateKey(priv, true)
	if err != nil {
		return nil, fmt.Errorf("derive address: %w", err)
	}
	return &Wallet{priv: priv, wif: wif, address: address}, nil
}

// LoadWallet reads a WIF file written by SaveTo.
//
//	w, err := client.LoadWallet(os.ExpandEnv("$HOME/.star/wallet.wif"))
func LoadWallet(path string) (*Wallet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet %q: %w", path, err)
	}
	return WalletFromWIF(string(b))
}

// SaveTo writes the wallet's WIF to path, creating parent directories as
// needed. The file is owner-readable only.
func (w *Wallet) SaveTo(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create wallet dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(w.wif+"\n"), 0o600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

// Address returns the wallet's registry address.
func (w *Wallet) Address() string {
	return w.address
}

// WIF returns the private key in WIF encoding. Keep this secret.
func (w *Wallet) WIF() string {
	return w.wif
}

// Sign produces a base64 signed-message signature over message.
func (w *Wallet) Sign(message string) (string, error) {
	sig, err := bitcoin.SignMessage(hex.EncodeToString(w.priv.Serialise()), message, true)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	return sig, nil
}
