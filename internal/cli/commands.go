package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"RegimeScan/internal/di"
	"RegimeScan/internal/domain/models"
	"RegimeScan/internal/service/alphavantage"
	"RegimeScan/internal/services/regime"
	pkgcache "RegimeScan/pkg/cache"
	"RegimeScan/pkg/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "regimescan",
		Short: "RegimeScan - MDL breakpoint detection for stock movement series",
		Long: `RegimeScan turns daily closing prices into a binary up/down series and
scans it for the point where the underlying up-probability changed,
by minimizing two-segment description length.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newSynthCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().String("config", "config/config.yaml", "configuration file path")

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server with the live monitor and event pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization: %w", err)
			}
			return app.Run()
		},
	}
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [SYMBOL]",
		Short: "Scan a symbol's daily history for a regime breakpoint",
		Long: `Fetch the daily closing history of a symbol, derive its up/down
movement series and scan for a breakpoint.
Example: regimescan scan AAPL --from=2023-01-01 --to=2024-06-30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			return runScan(cmd.Context(), cfg, args[0], from, to)
		},
	}
	cmd.Flags().String("from", "", "start date in YYYY-MM-DD format")
	cmd.Flags().String("to", "", "end date in YYYY-MM-DD format")
	return cmd
}

func newSynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Scan a synthetic binomial mixture series",
		Long: `Generate a binary series with success probability p1 before the
breakpoint and p2 after it, then scan the series. Useful for checking
detector behavior against a known ground truth.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p1, _ := cmd.Flags().GetFloat64("p1")
			p2, _ := cmd.Flags().GetFloat64("p2")
			bp, _ := cmd.Flags().GetInt("breakpoint")
			n, _ := cmd.Flags().GetInt("n")
			seed, _ := cmd.Flags().GetInt64("seed")
			return runSynth(p1, p2, bp, n, seed)
		},
	}
	cmd.Flags().Float64("p1", 0.4, "success probability before the breakpoint")
	cmd.Flags().Float64("p2", 0.6, "success probability after the breakpoint")
	cmd.Flags().Int("breakpoint", 300, "true breakpoint index")
	cmd.Flags().Int("n", 600, "series length")
	cmd.Flags().Int64("seed", time.Now().UnixNano(), "random seed")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("RegimeScan v1.0.0")
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// runScan performs a one-shot scan straight against the price source,
// without ClickHouse or a broker.
func runScan(ctx context.Context, cfg *config.Config, symbol, from, to string) error {
	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	source := alphavantage.New(
		cfg.AlphaVantage.APIKey,
		cfg.AlphaVantage.Timeout,
		cfg.AlphaVantage.MaxPerMinute,
		alphavantage.WithCache(pkgcache.NewMemoryCache(), cfg.AlphaVantage.CacheTTL),
		alphavantage.WithLogger(l),
	)
	scanner := di.ProvideScanner(cfg)
	uc := di.ProvideScanUseCase(source, nil, nil, di.ProvideMetrics(), scanner, l)

	report, err := uc.Scan(ctx, &models.ScanRequest{Symbol: symbol, From: from, To: to})
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runSynth(p1, p2 float64, breakpoint, n int, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	xs, err := regime.Mixture(rng, p1, p2, breakpoint, n)
	if err != nil {
		return err
	}
	res, err := regime.NewScanner().Scan(xs)
	if err != nil {
		return err
	}
	out := map[string]interface{}{
		"n":            n,
		"breakpoint":   breakpoint,
		"p1":           p1,
		"p2":           p2,
		"seed":         seed,
		"best_split":   res.BestSplit,
		"change_index": res.ChangeIndex,
		"p_left":       res.PLeft,
		"p_right":      res.PRight,
	}
	return printJSON(out)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
