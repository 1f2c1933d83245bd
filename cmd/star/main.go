package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/starnotary/starchain/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	registryURL string
	cfgFile     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "star",
	Short: "Star registry CLI",
	Long: `star is the command-line interface for the star registry.

It allows you to create a signing wallet, claim ownership of stars, and
query the registry's block chain.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.star")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if registryURL == "" {
			registryURL = viper.GetString("registry_url")
		}
		if registryURL == "" {
			registryURL = "http://localhost:8000"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.star/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&registryURL, "registry", "", "Star registry URL (default http://localhost:8000)")

	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(starsCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// ── wallet ───────────────────────────────────────────────────────────────────

var (
	walletOutput string
	walletFile   string
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the local signing wallet",
	Long: `wallet manages the WIF-encoded private key used to sign ownership challenges.

The registry never sees the key. Only signatures produced with it are
sent over the wire.`,
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new wallet and write it to disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := walletPathOrDefault(walletOutput)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("refusing to overwrite existing wallet at %s", path)
		}

		w, err := client.NewWallet()
		if err != nil {
			return fmt.Errorf("generate wallet: %w", err)
		}
		if err := w.SaveTo(path); err != nil {
			return fmt.Errorf("save wallet: %w", err)
		}

		fmt.Printf("✓ Wallet created\n\n")
		fmt.Printf("  Address: %s\n", w.Address())
		fmt.Printf("  File:    %s\n\n", path)
		fmt.Println("Keep the wallet file private. Anyone holding it can register stars as you.")
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the address of an existing wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := walletPathOrDefault(walletFile)
		if err != nil {
			return err
		}
		w, err := client.LoadWallet(path)
		if err != nil {
			return fmt.Errorf("load wallet %s: %w", path, err)
		}
		fmt.Printf("Address: %s\n", w.Address())
		return nil
	},
}

func init() {
	walletNewCmd.Flags().StringVar(&walletOutput, "output", "", "Wallet file to create (default ~/.star/wallet.wif)")
	walletShowCmd.Flags().StringVar(&walletFile, "wallet", "", "Wallet file to read (default ~/.star/wallet.wif)")

	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletShowCmd)
}

// ── register ─────────────────────────────────────────────────────────────────

var (
	regWallet string
	regRA     string
	regDec    string
	regStory  string
	regYes    bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a star in one guided step",
	Long: `register runs the complete ownership flow: request a challenge from the
registry, sign it with your local wallet, and submit the star.

The challenge expires five minutes after it is issued, so the flow signs
and submits immediately:

  star register --ra "16h 29m 1.0s" --dec "-26 29 24.9" --story "Antares"`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&regWallet, "wallet", "", "Wallet WIF file (default ~/.star/wallet.wif)")
	registerCmd.Flags().StringVar(&regRA, "ra", "", "Right ascension of the star")
	registerCmd.Flags().StringVar(&regDec, "dec", "", "Declination of the star")
	registerCmd.Flags().StringVar(&regStory, "story", "", "Story to record with the star (max 528 bytes)")
	registerCmd.Flags().BoolVar(&regYes, "yes", false, "Skip confirmation prompt")

	_ = registerCmd.MarkFlagRequired("ra")
	_ = registerCmd.MarkFlagRequired("dec")
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	path, err := walletPathOrDefault(regWallet)
	if err != nil {
		return err
	}
	w, err := client.LoadWallet(path)
	if err != nil {
		return fmt.Errorf("load wallet %s: %w (run 'star wallet new' first)", path, err)
	}

	fmt.Printf("Will register star for address: %s\n\n", w.Address())
	fmt.Printf("  RA:    %s\n", regRA)
	fmt.Printf("  Dec:   %s\n", regDec)
	if regStory != "" {
		fmt.Printf("  Story: %s\n", regStory)
	}
	fmt.Printf("\nRegistry: %s\n\n", registryURL)

	if !regYes {
		fmt.Print("Proceed? [Y/n]: ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer = strings.TrimSpace(answer)
		if answer != "" && strings.ToLower(answer) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	c, err := client.New(registryURL)
	if err != nil {
		return err
	}

	block, err := c.RegisterStar(ctx, w, client.Star{RA: regRA, Dec: regDec, Story: regStory})
	if err != nil {
		return fmt.Errorf("register star: %w", err)
	}

	fmt.Printf("\n✓ Star registered\n\n")
	fmt.Printf("  Height: %d\n", block.Height)
	fmt.Printf("  Hash:   %s\n", block.Hash)
	fmt.Printf("  Owner:  %s\n\n", block.Owner)
	fmt.Printf("Next: star stars %s\n", w.Address())
	return nil
}

// ── challenge ────────────────────────────────────────────────────────────────

var challengeCmd = &cobra.Command{
	Use:   "challenge <address>",
	Short: "Request an ownership challenge for an address",
	Long: `challenge requests a signable message from the registry.

For the full guided flow (challenge → sign → submit), use 'star register'.
Use this command when the wallet lives on another machine: carry the
message there, sign it with 'star sign', and finish with 'star submit'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := args[0]
		c, err := client.New(registryURL)
		if err != nil {
			return err
		}

		ch, err := c.RequestChallenge(context.Background(), address)
		if err != nil {
			return fmt.Errorf("request challenge: %w", err)
		}

		fmt.Printf("Message: %s\n\n", ch.Message)
		fmt.Printf("Expires in %d seconds. Sign and submit before then:\n\n", ch.ExpiresIn)
		fmt.Printf("  star sign %q\n", ch.Message)
		fmt.Printf("  star submit --address %s --message %q --signature <sig> --ra ... --dec ...\n", address, ch.Message)
		return nil
	},
}

// ── sign ─────────────────────────────────────────────────────────────────────

var signWallet string

var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a challenge message with the local wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := walletPathOrDefault(signWallet)
		if err != nil {
			return err
		}
		w, err := client.LoadWallet(path)
		if err != nil {
			return fmt.Errorf("load wallet %s: %w", path, err)
		}

		sig, err := w.Sign(args[0])
		if err != nil {
			return fmt.Errorf("sign message: %w", err)
		}

		fmt.Printf("Address:   %s\n", w.Address())
		fmt.Printf("Signature: %s\n", sig)
		return nil
	},
}

func init() {
	signCmd.Flags().StringVar(&signWallet, "wallet", "", "Wallet WIF file (default ~/.star/wallet.wif)")
}

// ── submit ───────────────────────────────────────────────────────────────────

var (
	subAddress   string
	subMessage   string
	subSignature string
	subRA        string
	subDec       string
	subStory     string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a signed challenge and star to the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(registryURL)
		if err != nil {
			return err
		}

		block, err := c.SubmitStar(context.Background(), client.SubmitStarRequest{
			Address:   subAddress,
			Message:   subMessage,
			Signature: subSignature,
			Star:      client.Star{RA: subRA, Dec: subDec, Story: subStory},
		})
		if err != nil {
			return fmt.Errorf("submit star: %w", err)
		}

		fmt.Printf("✓ Star registered\n\n")
		fmt.Printf("  Height: %d\n", block.Height)
		fmt.Printf("  Hash:   %s\n", block.Hash)
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&subAddress, "address", "", "Wallet address that requested the challenge")
	submitCmd.Flags().StringVar(&subMessage, "message", "", "Challenge message exactly as issued")
	submitCmd.Flags().StringVar(&subSignature, "signature", "", "Base64 signature over the message")
	submitCmd.Flags().StringVar(&subRA, "ra", "", "Right ascension of the star")
	submitCmd.Flags().StringVar(&subDec, "dec", "", "Declination of the star")
	submitCmd.Flags().StringVar(&subStory, "story", "", "Story to record with the star (max 528 bytes)")

	_ = submitCmd.MarkFlagRequired("address")
	_ = submitCmd.MarkFlagRequired("message")
	_ = submitCmd.MarkFlagRequired("signature")
	_ = submitCmd.MarkFlagRequired("ra")
	_ = submitCmd.MarkFlagRequired("dec")
}

// ── stars ────────────────────────────────────────────────────────────────────

var starsFormat string

var starsCmd = &cobra.Command{
	Use:   "stars <address>",
	Short: "List the stars registered to an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := args[0]
		c, err := client.New(registryURL)
		if err != nil {
			return err
		}

		stars, err := c.StarsByOwner(context.Background(), address)
		if err != nil {
			if errors.Is(err, client.ErrNoStars) {
				fmt.Printf("No stars registered for %s\n", address)
				return nil
			}
			return fmt.Errorf("list stars: %w", err)
		}

		if starsFormat == "json" {
			out, _ := json.MarshalIndent(stars, "", "  ")
			fmt.Println(string(out))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RA\tDEC\tSTORY")
		for _, s := range stars {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Star.RA, s.Star.Dec, s.Star.Story)
		}
		return w.Flush()
	},
}

func init() {
	starsCmd.Flags().StringVar(&starsFormat, "format", "text", "Output format: text or json")
}

// ── block ────────────────────────────────────────────────────────────────────

var blockFormat string

var blockCmd = &cobra.Command{
	Use:   "block <height | hash>",
	Short: "Fetch a block by height or hash",
	Long: `block fetches a single block from the registry.

A numeric argument is treated as a height, anything else as a block hash:

  star block 3
  star block 9b1d36b1f4e7c2a0...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, err := client.New(registryURL)
		if err != nil {
			return err
		}

		var block *client.Block
		if height, convErr := strconv.Atoi(args[0]); convErr == nil {
			block, err = c.BlockByHeight(ctx, height)
		} else {
			block, err = c.BlockByHash(ctx, args[0])
		}
		if err != nil {
			return fmt.Errorf("fetch block: %w", err)
		}

		if blockFormat == "json" {
			out, _ := json.MarshalIndent(block, "", "  ")
			fmt.Println(string(out))
			return nil
		}

		fmt.Printf("Height:   %d\n", block.Height)
		fmt.Printf("Time:     %s\n", time.Unix(block.Time, 0).UTC().Format(time.RFC3339))
		fmt.Printf("Hash:     %s\n", block.Hash)
		if block.PreviousHash != "" {
			fmt.Printf("Previous: %s\n", block.PreviousHash)
		}
		if block.Owner != "" {
			fmt.Printf("Owner:    %s\n", block.Owner)
		}
		fmt.Printf("Body:     %s\n", block.Body)
		return nil
	},
}

func init() {
	blockCmd.Flags().StringVar(&blockFormat, "format", "text", "Output format: text or json")
}

// ── audit ────────────────────────────────────────────────────────────────────

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run a full chain audit on the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(registryURL)
		if err != nil {
			return err
		}

		report, err := c.ValidateChain(context.Background())
		if err != nil {
			return fmt.Errorf("audit chain: %w", err)
		}

		if report.Valid {
			fmt.Println("✓ Chain is valid")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tHEIGHT\tHASH\tDETAIL")
		for _, f := range report.Faults {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", f.Kind, f.Height, f.Hash, f.Detail)
		}
		w.Flush() //nolint:errcheck
		return fmt.Errorf("chain audit found %d fault(s)", len(report.Faults))
	},
}

// ── status ───────────────────────────────────────────────────────────────────

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the registry's chain height and tip",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(registryURL)
		if err != nil {
			return err
		}

		overview, err := c.Overview(context.Background())
		if err != nil {
			return fmt.Errorf("fetch overview: %w", err)
		}

		fmt.Printf("Height: %d\n", overview.Height)
		fmt.Printf("Tip:    %s\n", overview.Tip)
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the star CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("star %s (star registry)\n", version)
	},
}

// walletPathOrDefault returns path when non-empty, else ~/.star/wallet.wif.
func walletPathOrDefault(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".star", "wallet.wif"), nil
}
