// FastStock — multi-provider market data aggregation service.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/faststock/api"
	"github.com/seenimoa/faststock/internal/analytics"
	"github.com/seenimoa/faststock/internal/cache"
	"github.com/seenimoa/faststock/internal/config"
	"github.com/seenimoa/faststock/internal/metrics"
	"github.com/seenimoa/faststock/internal/options"
	"github.com/seenimoa/faststock/internal/poller"
	"github.com/seenimoa/faststock/internal/provider"
	"github.com/seenimoa/faststock/internal/router"
	"github.com/seenimoa/faststock/internal/subs"
	"github.com/seenimoa/faststock/pkg/symbols"
	"github.com/seenimoa/faststock/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "faststock",
	Short: "FastStock — multi-provider market data aggregation service",
	Long: `FastStock polls equities, crypto, and forex quotes from multiple
upstream providers into one cache, snapshots NSE option chains to disk,
and serves both — plus chain analytics — over a REST API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load() //nolint:errcheck // .env is optional

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log = newLogger(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(subscribeCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(statusCmd)
}

// newLogger builds the service logger from the logging config.
func newLogger(lc config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out = os.Stderr
	logger := zerolog.New(out)
	if lc.Format != "json" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// app bundles the wired core components shared by the CLI commands.
type app struct {
	cache    *cache.Store
	subs     *subs.Store
	router   *router.Router
	nse      *provider.NSE
	pipeline *options.Pipeline
	metrics  *metrics.Metrics
}

// buildApp constructs every core component from the loaded config.
func buildApp() (*app, error) {
	m := metrics.New()

	var equities provider.Provider
	switch cfg.Providers.Equities {
	case "finnhub":
		equities = provider.NewFinnhub(cfg.Providers.FinnhubKey, log)
	case "alphavantage":
		equities = provider.NewAlphaVantage(cfg.Providers.AlphaVantageKey, log)
	default:
		equities = provider.NewYahoo(log)
	}
	binance := provider.NewBinance(log)
	yahoo := provider.NewYahoo(log)
	nse := provider.NewNSE(log)

	rtr := router.New(equities, binance, yahoo, cfg.Providers.CryptoTokens)

	st := subs.New(cfg.Storage.SubscriptionsFile)
	if err := st.Load(cfg.Poller.DefaultSymbols); err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	return &app{
		cache:    cache.New(),
		subs:     st,
		router:   rtr,
		nse:      nse,
		pipeline: options.NewPipeline(nse, cfg.Storage.DataDir, m, log),
		metrics:  m,
	}, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("FastStock %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API server + poller) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and the background poller",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		srv := api.NewServer(api.Deps{
			Config:  cfg,
			Cache:   a.cache,
			Subs:    a.subs,
			Router:  a.router,
			Options: a.pipeline,
			Index:   a.nse,
			Metrics: a.metrics,
			Logger:  log,
		})

		p := poller.New(poller.Config{
			Router:      a.router,
			Cache:       a.cache,
			Subs:        a.subs,
			Interval:    time.Duration(cfg.Poller.FetchInterval) * time.Second,
			SymbolDelay: time.Duration(cfg.Poller.SymbolDelayMs) * time.Millisecond,
			Metrics:     a.metrics,
			Logger:      log,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 FastStock API on %s, polling every %ds\n", addr, cfg.Poller.FetchInterval)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Serve(ctx, addr) })
		g.Go(func() error {
			err := p.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
		return g.Wait()
	},
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [symbol]",
	Short: "Fetch one live quote through the provider router",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		symbol := symbols.Normalize(args[0])

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		q, err := a.router.Route(symbol).Quote(ctx, symbol)
		if err != nil {
			return err
		}
		return printJSON(q)
	},
}

// --- Subscribe Command ---

var subscribeCmd = &cobra.Command{
	Use:   "subscribe [symbol]...",
	Short: "Add symbols to the polled subscription list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		for _, raw := range args {
			symbol := symbols.Normalize(raw)
			if a.subs.Add(symbol) {
				fmt.Printf("✅ subscribed %s\n", symbol)
			} else {
				fmt.Printf("ℹ️  %s already subscribed\n", symbol)
			}
		}
		if err := a.subs.Save(); err != nil {
			return fmt.Errorf("persist subscriptions: %w", err)
		}
		fmt.Printf("%d symbols subscribed\n", a.subs.Len())
		return nil
	},
}

// --- Options Commands ---

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Option-chain snapshot and analytics commands",
}

var optionsExpiriesCmd = &cobra.Command{
	Use:   "expiries [index]",
	Short: "List upstream expiry dates for an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		expiries, err := a.pipeline.Expiries(ctx, args[0])
		if err != nil {
			return err
		}
		for _, e := range expiries {
			fmt.Println(e)
		}
		return nil
	},
}

var optionsFetchCmd = &cobra.Command{
	Use:   "fetch [index]",
	Short: "Fetch and persist an option-chain snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		expiry, _ := cmd.Flags().GetString("expiry")
		numStrikes, _ := cmd.Flags().GetInt("strikes")
		if numStrikes <= 0 {
			numStrikes = cfg.Options.NumStrikes
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		meta, err := a.pipeline.FetchAndPersist(ctx, args[0], expiry, numStrikes)
		if err != nil {
			return err
		}
		return printJSON(meta)
	},
}

var optionsAnalyticsCmd = &cobra.Command{
	Use:   "analytics [index]",
	Short: "Compute analytics over the latest persisted snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		chain, _, err := a.pipeline.LoadLatest(args[0])
		if err != nil {
			return err
		}
		summary := analytics.Summarize(symbols.Normalize(args[0]), chain, cfg.Options.TopN)
		return printJSON(summary)
	},
}

func init() {
	optionsFetchCmd.Flags().String("expiry", "", "expiry as DDMMYY or DD-MMM-YYYY (default: nearest)")
	optionsFetchCmd.Flags().Int("strikes", 0, "strikes each side of ATM (default from config)")

	optionsCmd.AddCommand(optionsExpiriesCmd)
	optionsCmd.AddCommand(optionsFetchCmd)
	optionsCmd.AddCommand(optionsAnalyticsCmd)
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  FastStock — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus())
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Equities:      %s\n", cfg.Providers.Equities)
		fmt.Printf("    Poll Interval: %ds\n", cfg.Poller.FetchInterval)
		fmt.Printf("    Data Dir:      %s\n", cfg.Storage.DataDir)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
