//go:build ignore

// smoke-registry.go drives a running registry through the full ownership
// flow with freshly generated wallets and reports per-submission latency.
//
// Run with: go run scripts/smoke-registry.go [-registry URL] [-wallets N] [-stars M]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/starnotary/starchain/pkg/client"
)

var (
	registryURL = flag.String("registry", "http://localhost:8000", "registry base URL")
	walletCount = flag.Int("wallets", 5, "number of wallets to generate")
	starCount   = flag.Int("stars", 4, "stars to register per wallet")
	workers     = flag.Int("workers", 8, "concurrent submissions")
)

type result struct {
	owner   string
	height  int
	err     string
	latency time.Duration
}

func register(ctx context.Context, c *client.Client, w *client.Wallet, n int) result {
	start := time.Now()

	block, err := c.RegisterStar(ctx, w, client.Star{
		RA:    fmt.Sprintf("%dh %dm", n%24, n%60),
		Dec:   fmt.Sprintf("%d deg", n%90),
		Story: fmt.Sprintf("smoke star %d", n),
	})
	latency := time.Since(start)
	if err != nil {
		return result{owner: w.Address(), err: err.Error(), latency: latency}
	}
	return result{owner: w.Address(), height: block.Height, latency: latency}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	c, err := client.New(*registryURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad registry URL:", err)
		os.Exit(1)
	}

	wallets := make([]*client.Wallet, *walletCount)
	for i := range wallets {
		w, err := client.NewWallet()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate wallet:", err)
			os.Exit(1)
		}
		wallets[i] = w
	}

	type job struct {
		wallet *client.Wallet
		n      int
	}

	total := *walletCount * *starCount
	jobs := make(chan job, total)
	results := make(chan result, total)

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- register(ctx, c, j.wallet, j.n)
			}
		}()
	}

	n := 0
	for _, w := range wallets {
		for s := 0; s < *starCount; s++ {
			jobs <- job{wallet: w, n: n}
			n++
		}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var ok, failed int
	var latencies []time.Duration
	done := 0
	for r := range results {
		done++
		fmt.Printf("\r  registering... %d/%d", done, total)
		if r.err != "" {
			failed++
			fmt.Printf("\n  ✗ %s: %s\n", r.owner, r.err)
			continue
		}
		ok++
		latencies = append(latencies, r.latency)
	}
	fmt.Printf("\r  done — %d submissions\n\n", total)

	// Every wallet should own exactly -stars stars.
	mismatches := 0
	for _, w := range wallets {
		stars, err := c.StarsByOwner(ctx, w.Address())
		if err != nil {
			fmt.Printf("  ✗ %s: list stars: %v\n", w.Address(), err)
			mismatches++
			continue
		}
		if len(stars) != *starCount {
			fmt.Printf("  ✗ %s: owns %d stars, want %d\n", w.Address(), len(stars), *starCount)
			mismatches++
		}
	}

	report, auditErr := c.ValidateChain(ctx)
	overview, _ := c.Overview(ctx)

	// ── Report ────────────────────────────────────────────────────────────────
	fmt.Printf("══════════════════════════════════════════════════════\n")
	fmt.Printf("  Star Registry Smoke Results\n")
	fmt.Printf("  Wallets: %d  |  Stars per wallet: %d  |  Workers: %d\n", *walletCount, *starCount, *workers)
	fmt.Printf("══════════════════════════════════════════════════════\n\n")

	fmt.Printf("  Accepted:  %d\n", ok)
	fmt.Printf("  Failed:    %d\n", failed)
	if overview != nil {
		fmt.Printf("  Height:    %d\n", overview.Height)
	}

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		fmt.Printf("  Latency:   p50 %dms  p95 %dms  max %dms\n",
			latencies[len(latencies)/2].Milliseconds(),
			latencies[len(latencies)*95/100].Milliseconds(),
			latencies[len(latencies)-1].Milliseconds(),
		)
	}
	fmt.Println()

	switch {
	case auditErr != nil:
		fmt.Printf("  ✗ Chain audit failed: %v\n", auditErr)
	case !report.Valid:
		fmt.Printf("  ✗ Chain audit found %d fault(s):\n", len(report.Faults))
		for _, f := range report.Faults {
			fmt.Printf("    • [%s] height %d: %s\n", f.Kind, f.Height, f.Detail)
		}
	default:
		fmt.Println("  ✓ Chain audit clean")
	}

	if failed > 0 || mismatches > 0 || auditErr != nil || (report != nil && !report.Valid) {
		os.Exit(1)
	}
}
