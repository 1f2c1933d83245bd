// Package star defines the collectible star payload and its wire codec.
//
// Star records travel inside ledger blocks as hex-encoded JSON. The codec
// is the only place that encoding is known; the chain treats block bodies
// as opaque strings.
package star

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxStoryBytes caps the story field at registration time.
const MaxStoryBytes = 528

// ErrStoryTooLong is returned by Encode when the story exceeds MaxStoryBytes.
var ErrStoryTooLong = fmt.Errorf("star story exceeds %d bytes", MaxStoryBytes)

// ErrBadPayload wraps any failure to decode a block body back into a Star.
var ErrBadPayload = errors.New("malformed star payload")

// Star describes one collectible star record: its coordinates and the
// owner's story.
type Star struct {
	Dec   string `json:"dec"`
	RA    string `json:"ra"`
	Story string `json:"story"`
}

// Encode serializes the star into its hex-encoded JSON body form.
func (s Star) Encode() (string, error) {
	if len(s.Story) > MaxStoryBytes {
		return "", ErrStoryTooLong
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal star: %w", err)
	}
	return hex.EncodeToString(data), nil
}

// Decode parses a hex-encoded JSON block body back into a Star.
func Decode(body string) (Star, error) {
	data, err := hex.DecodeString(body)
	if err != nil {
		return Star{}, fmt.Errorf("%w: %s", ErrBadPayload, err.Error())
	}
	var s Star
	if err := json.Unmarshal(data, &s); err != nil {
		return Star{}, fmt.Errorf("%w: %s", ErrBadPayload, err.Error())
	}
	return s, nil
}
