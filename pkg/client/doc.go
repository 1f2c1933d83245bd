// Package client is the star registry Go SDK.
//
// It wraps the registry's HTTP API: requesting ownership challenges,
// submitting signed star registrations, and querying the block chain.
//
// # Registering a star (most common case)
//
// RegisterStar runs the whole ownership workflow in one step: it requests
// a challenge for the wallet's address, signs it locally, and submits the
// star before the challenge window closes:
//
//	w, err := client.LoadWallet(os.ExpandEnv("$HOME/.star/wallet.wif"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, _ := client.New("http://localhost:8000")
//	block, err := c.RegisterStar(ctx, w, client.Star{
//	    Dec:   "68 degrees 52' 56.9",
//	    RA:    "16h 29m 1.0s",
//	    Story: "Found this one on a clear night.",
//	})
//
// # Manual workflow
//
// When the signature is produced elsewhere (a hardware wallet, another
// process), drive the two steps yourself:
//
//	ch, _ := c.RequestChallenge(ctx, address)
//	// ... sign ch.Message out of band ...
//	block, err := c.SubmitStar(ctx, client.SubmitStarRequest{
//	    Address:   address,
//	    Message:   ch.Message,
//	    Signature: sig,
//	    Star:      star,
//	})
//
// # Querying the chain
//
// Blocks are immutable once sealed, so block-by-hash lookups can be cached
// client-side. Enable it with WithCacheTTL:
//
//	c, _ := client.New("http://localhost:8000",
//	    client.WithCacheTTL(60*time.Second),
//	)
//	block, err := c.BlockByHash(ctx, hash)
//	stars, err := c.StarsByOwner(ctx, address)
//	report, err := c.ValidateChain(ctx)
//
// Lookups that miss return ErrNotFound; an owner with no registrations
// returns ErrNoStars.
package client
