package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Sentinel errors surfaced by the SDK.
var (
	// ErrNotFound is returned when a block lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrNoStars is returned when an address has no registered stars.
	ErrNoStars = errors.New("no stars registered for this address")
)

// Star describes one collectible star record.
type Star struct {
	Dec   string `json:"dec"`
	RA    string `json:"ra"`
	Story string `json:"story"`
}

// Block is one sealed chain entry as returned by the registry.
type Block struct {
	Height       int    `json:"height"`
	Time         int64  `json:"time"`
	PreviousHash string `json:"previousBlockHash,omitempty"`
	Hash         string `json:"hash"`
	Owner        string `json:"owner,omitempty"`
	Body         string `json:"body"`
}

// Challenge holds the message returned by RequestChallenge. The wallet
// behind Address must sign Message within ExpiresIn seconds.
type Challenge struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"`
}

// SubmitStarRequest is the payload for SubmitStar.
type SubmitStarRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Star      Star   `json:"star"`
}

// OwnedStar pairs a star with the address that registered it.
type OwnedStar struct {
	Owner string `json:"owner"`
	Star  Star   `json:"star"`
}

// ChainOverview is the summary returned by Overview.
type ChainOverview struct {
	Height int    `json:"height"`
	Tip    string `json:"tip"`
}

// AuditFault is one finding from a chain audit.
type AuditFault struct {
	Kind   string `json:"kind"`
	Height int    `json:"height"`
	Hash   string `json:"hash"`
	Detail string `json:"detail"`
}

// AuditReport is the result of ValidateChain.
type AuditReport struct {
	Valid  bool         `json:"valid"`
	Faults []AuditFault `json:"faults,omitempty"`
}

// Client is the star registry SDK entry point.
type Client struct {
	base       string
	httpClient *http.Client
	cache      *blockCache
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithCacheTTL enables in-memory caching of block-by-hash lookups with the
// given TTL. Sealed blocks never change, so the TTL only bounds memory.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		c.cache = newBlockCache(ttl)
		return nil
	}
}

// New creates a new SDK Client connected to base.
//
//	c, err := client.New("http://localhost:8000",
//	    client.WithCacheTTL(60*time.Second),
//	)
func New(base string, opts ...Option) (*Client, error) {
	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(base string, opts ...Option) *Client {
	c, err := New(base, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// RequestChallenge asks the registry for a challenge message to sign.
func (c *Client) RequestChallenge(ctx context.Context, address string) (*Challenge, error) {
	payload, _ := json.Marshal(map[string]string{"address": address})
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/challenges", payload)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var ch Challenge
	if err := json.Unmarshal(body, &ch); err != nil {
		return nil, fmt.Errorf("decode challenge response: %w", err)
	}
	return &ch, nil
}

// SubmitStar submits a signed star registration and returns the sealed
// block on success.
func (c *Client) SubmitStar(ctx context.Context, sub SubmitStarRequest) (*Block, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/stars", payload)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Block Block `json:"block"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	return &resp.Block, nil
}

// RegisterStar runs the whole ownership workflow in one step: request a
// challenge for the wallet's address, sign it locally, and submit.
func (c *Client) RegisterStar(ctx context.Context, w *Wallet, s Star) (*Block, error) {
	ch, err := c.RequestChallenge(ctx, w.Address())
	if err != nil {
		return nil, fmt.Errorf("request challenge: %w", err)
	}

	sig, err := w.Sign(ch.Message)
	if err != nil {
		return nil, fmt.Errorf("sign challenge: %w", err)
	}

	return c.SubmitStar(ctx, SubmitStarRequest{
		Address:   w.Address(),
		Message:   ch.Message,
		Signature: sig,
		Star:      s,
	})
}

// BlockByHeight fetches one block by its height. Returns ErrNotFound when
// the height is beyond the chain tip.
func (c *Client) BlockByHeight(ctx context.Context, height int) (*Block, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/blocks/height/"+strconv.Itoa(height), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var b Block
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("decode block response: %w", err)
	}
	return &b, nil
}

// BlockByHash fetches one block by its hash, consulting the local cache
// when one is configured. Returns ErrNotFound for unknown hashes.
func (c *Client) BlockByHash(ctx context.Context, hash string) (*Block, error) {
	if c.cache != nil {
		if b, ok := c.cache.get(hash); ok {
			return b, nil
		}
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/blocks/hash/"+hash, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var b Block
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("decode block response: %w", err)
	}

	if c.cache != nil {
		c.cache.set(hash, &b)
	}
	return &b, nil
}

// StarsByOwner lists every star the address has registered, in ascending
// height order. Returns ErrNoStars when the address owns nothing.
func (c *Client) StarsByOwner(ctx context.Context, address string) ([]OwnedStar, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/owners/"+address+"/stars", nil)
	if err != nil {
		return nil, err
	}

	status, body, err := c.doStatusBody(req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNoStars
	}
	if status >= 300 {
		return nil, fmt.Errorf("server error %d: %s", status, apiError(body))
	}

	var stars []OwnedStar
	if err := json.Unmarshal(body, &stars); err != nil {
		return nil, fmt.Errorf("decode stars response: %w", err)
	}
	return stars, nil
}

// Overview fetches the chain height and tip hash.
func (c *Client) Overview(ctx context.Context) (*ChainOverview, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/chain", nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var ov ChainOverview
	if err := json.Unmarshal(body, &ov); err != nil {
		return nil, fmt.Errorf("decode overview response: %w", err)
	}
	return &ov, nil
}

// ValidateChain asks the registry for a full-chain audit.
func (c *Client) ValidateChain(ctx context.Context) (*AuditReport, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/chain/validate", nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var report AuditReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decode audit response: %w", err)
	}
	return &report, nil
}

// newRequest builds a registry request. A nil payload means no body.
func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes an HTTP request and returns the response body. 404 maps to
// ErrNotFound; other non-2xx statuses surface the registry's error text.
func (c *Client) do(req *http.Request) ([]byte, error) {
	status, body, err := c.doStatusBody(req)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
	}
	if status >= 300 {
		return nil, fmt.Errorf("server error %d: %s", status, apiError(body))
	}
	return body, nil
}

// doStatusBody is a lower-level HTTP call that returns (statusCode, body,
// error) without failing on 4xx responses. The caller interprets the
// status code.
func (c *Client) doStatusBody(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// apiError extracts the registry's {"error": "..."} message, falling back
// to the raw body.
func apiError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(body)
}

// --- simple in-memory block cache ---

type cacheEntry struct {
	block     *Block
	expiresAt time.Time
}

type blockCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

func newBlockCache(ttl time.Duration) *blockCache {
	return &blockCache{entries: make(map[string]*cacheEntry), ttl: ttl}
}

func (bc *blockCache) get(hash string) (*Block, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	e, ok := bc.entries[hash]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.block, true
}

func (bc *blockCache) set(hash string, b *Block) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.entries[hash] = &cacheEntry{block: b, expiresAt: time.Now().Add(bc.ttl)}
}
