// Command backtest drives a single run, a walk-forward study, or a
// Monte-Carlo/sensitivity robustness report over the core engine. It is a
// thin driver over the config, dataset, strategy, smc, regime, engine,
// optimization, and metrics packages — no trading logic lives here.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/cache"
	"github.com/tthiemann260-coder/apex-backtest-sub000/config"
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/dataset"
	"github.com/tthiemann260-coder/apex-backtest-sub000/engine"
	"github.com/tthiemann260-coder/apex-backtest-sub000/execution"
	"github.com/tthiemann260-coder/apex-backtest-sub000/metrics"
	"github.com/tthiemann260-coder/apex-backtest-sub000/optimization"
	"github.com/tthiemann260-coder/apex-backtest-sub000/regime"
	"github.com/tthiemann260-coder/apex-backtest-sub000/risk"
	"github.com/tthiemann260-coder/apex-backtest-sub000/smc"
	"github.com/tthiemann260-coder/apex-backtest-sub000/strategy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = viper.New()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Deterministic OHLCV backtesting engine",
	Long: `backtest replays a chronological bar stream through a strategy,
execution handler, and risk-sizing pipeline to produce an equity curve,
fill log, and performance metrics.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "run config JSON path")
	rootCmd.PersistentFlags().String("csv", "", "OHLCV CSV dataset path (required)")
	rootCmd.PersistentFlags().String("symbol", "", "symbol to tag bars with (required)")
	rootCmd.PersistentFlags().String("timeframe", "1d", "bar timeframe, used for annualization")
	rootCmd.PersistentFlags().String("strategy", "", "registered strategy name (required)")
	rootCmd.PersistentFlags().String("params", "{}", "strategy params as a JSON object")
	rootCmd.PersistentFlags().Int64("seed", 0, "deterministic seed for Monte-Carlo permutations")

	_ = v.BindPFlags(rootCmd.PersistentFlags())
	v.SetEnvPrefix("BACKTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(runCmd, walkForwardCmd, robustnessCmd)

	walkForwardCmd.Flags().Int("train-bars", 252, "bars per training window")
	walkForwardCmd.Flags().Int("test-bars", 63, "bars per out-of-sample test window")
	walkForwardCmd.Flags().Int("step-bars", 63, "bars the window advances per step")
	_ = v.BindPFlags(walkForwardCmd.Flags())

	robustnessCmd.Flags().Int("mc-permutations", 1000, "Monte-Carlo permutation count")
	robustnessCmd.Flags().Int("train-bars", 252, "bars per training window")
	robustnessCmd.Flags().Int("test-bars", 63, "bars per out-of-sample test window")
	robustnessCmd.Flags().Int("step-bars", 63, "bars the window advances per step")
	_ = v.BindPFlags(robustnessCmd.Flags())
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single backtest and print its metrics as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		rc, err := loadRunContext()
		if err != nil {
			return err
		}

		eng := engine.New(rc.source, rc.strat, rc.cfg.NewPortfolio(), execution.New(rc.cfg.ExecutionConfig()), rc.riskMgr)
		result := eng.Run()

		m, err := metrics.Compute(result.EquityLog, result.FillLog, rc.timeframe, nil)
		if err != nil {
			return fmt.Errorf("compute metrics: %w", err)
		}

		return emit(runOutput{
			RunID:     uuid.New().String(),
			Metrics:   m,
			RuntimeMs: time.Since(start).Milliseconds(),
		})
	},
}

var walkForwardCmd = &cobra.Command{
	Use:   "walkforward",
	Short: "Run a rolling train/test walk-forward study",
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := loadRunContext()
		if err != nil {
			return err
		}

		bars := drainSource(rc.source)
		result, err := optimization.RunWalkForward(bars, rc.optConfig(), rc.newStrategy,
			v.GetInt("train-bars"), v.GetInt("test-bars"), v.GetInt("step-bars"))
		if err != nil {
			return fmt.Errorf("walkforward: %w", err)
		}

		return emit(result)
	},
}

var robustnessCmd = &cobra.Command{
	Use:   "robustness",
	Short: "Run walk-forward, Monte-Carlo, and sensitivity together and score overall robustness",
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := loadRunContext()
		if err != nil {
			return err
		}

		baseParams, err := parseFloatParams(v.GetString("params"))
		if err != nil {
			return err
		}

		hash, err := contentHash(v.GetString("csv"))
		if err != nil {
			return fmt.Errorf("hash dataset: %w", err)
		}
		key := cache.Key{DatasetHash: hash, Strategy: rc.strategy, Params: baseParams, Seed: v.GetInt64("seed")}

		ctx := cmd.Context()
		var cached optimization.RobustnessReport
		if err := rc.resultCache.Get(ctx, key, &cached); err == nil {
			return emit(cached)
		}

		bars := drainSource(rc.source)
		optCfg := rc.optConfig()

		wfo, err := optimization.RunWalkForward(bars, optCfg, rc.newStrategy,
			v.GetInt("train-bars"), v.GetInt("test-bars"), v.GetInt("step-bars"))
		if err != nil {
			return fmt.Errorf("walkforward: %w", err)
		}

		eng := engine.New(engine.NewSliceSource(bars), rc.strat, rc.cfg.NewPortfolio(), execution.New(rc.cfg.ExecutionConfig()), rc.riskMgr)
		result := eng.Run()
		mc := optimization.RunMonteCarlo(result.FillLog, rc.cfg.InitialCash, v.GetInt("mc-permutations"), v.GetInt64("seed"))

		sens, err := optimization.RunSensitivity(bars, optCfg, rc.newFloatStrategy, baseParams, nil)
		if err != nil {
			return fmt.Errorf("sensitivity: %w", err)
		}

		report := optimization.ComputeRobustness(wfo, mc, sens, toFloat(rc.cfg.InitialCash), optimization.DefaultRobustnessThresholds())
		_ = rc.resultCache.Set(ctx, key, report)
		return emit(report)
	},
}

// runContext bundles the shared wiring every subcommand needs: the loaded
// config, a fresh dataset source, the built strategy, and the optional
// risk pipeline.
type runContext struct {
	cfg         *config.Config
	source      *dataset.CSVDataSource
	strat       core.Strategy
	riskMgr     core.RiskManager
	resultCache cache.ResultCache
	timeframe   string
	symbol      string
	strategy    string
	newStrategy func() (core.Strategy, error)
}

func (rc *runContext) optConfig() optimization.RunConfig {
	return optimization.RunConfig{
		Timeframe:         rc.timeframe,
		InitialCash:       rc.cfg.InitialCash,
		MarginRequirement: rc.cfg.MarginRequirement,
		Execution:         rc.cfg.ExecutionConfig(),
		Risk:              rc.riskMgr,
	}
}

func loadRunContext() (*runContext, error) {
	csvPath := v.GetString("csv")
	symbol := v.GetString("symbol")
	strategyName := v.GetString("strategy")
	if csvPath == "" || symbol == "" || strategyName == "" {
		return nil, fmt.Errorf("--csv, --symbol, and --strategy are required")
	}

	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(v.GetString("params")), &params); err != nil {
		return nil, fmt.Errorf("parse --params: %w", err)
	}

	source, err := dataset.LoadCSV(csvPath, symbol)
	if err != nil {
		return nil, fmt.Errorf("load csv: %w", err)
	}

	reg, err := buildRegistry()
	if err != nil {
		return nil, err
	}

	timeframe := v.GetString("timeframe")

	strat, err := reg.Build(strategyName, symbol, timeframe, params)
	if err != nil {
		return nil, fmt.Errorf("build strategy: %w", err)
	}

	resultCache, err := buildCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("build cache: %w", err)
	}

	return &runContext{
		cfg:         cfg,
		source:      source,
		strat:       strat,
		riskMgr:     buildRiskManager(cfg),
		resultCache: resultCache,
		timeframe:   timeframe,
		symbol:      symbol,
		strategy:    strategyName,
		newStrategy: func() (core.Strategy, error) {
			reg, err := buildRegistry()
			if err != nil {
				return nil, err
			}
			return reg.Build(strategyName, symbol, timeframe, params)
		},
	}, nil
}

// newFloatStrategy adapts runContext's JSON-params strategy constructor to
// optimization.RunSensitivity's float64-keyed perturbation grid.
func (rc *runContext) newFloatStrategy(params map[string]float64) (core.Strategy, error) {
	converted := make(map[string]any, len(params))
	for k, val := range params {
		converted[k] = val
	}
	reg, err := buildRegistry()
	if err != nil {
		return nil, err
	}
	return reg.Build(rc.strategy, rc.symbol, rc.timeframe, converted)
}

func buildRegistry() (*strategy.Registry, error) {
	reg := strategy.Default()
	if err := smc.RegisterDefaults(reg); err != nil {
		return nil, fmt.Errorf("register smc strategies: %w", err)
	}
	if err := regime.RegisterDefaults(reg); err != nil {
		return nil, fmt.Errorf("register regime strategies: %w", err)
	}
	return reg, nil
}

func parseFloatParams(raw string) (map[string]float64, error) {
	var anyParams map[string]any
	if err := json.Unmarshal([]byte(raw), &anyParams); err != nil {
		return nil, fmt.Errorf("parse --params: %w", err)
	}
	out := make(map[string]float64, len(anyParams))
	for k, val := range anyParams {
		if f, ok := val.(float64); ok {
			out[k] = f
		}
	}
	return out, nil
}

// buildRiskManager wires the optional Kelly/heat/drawdown overlays onto
// the base risk.Manager when the loaded config carries their blocks.
func buildRiskManager(cfg *config.Config) *risk.Manager {
	m := risk.NewManager(cfg.RiskManagerConfig())
	if kc, ok := cfg.KellyRiskConfig(); ok {
		m.Kelly = risk.NewKelly(kc)
	}
	if hc, ok := cfg.HeatRiskConfig(); ok {
		m.Heat = risk.NewHeatMonitor(hc)
	}
	if dc, ok := cfg.DrawdownRiskConfig(); ok {
		m.DD = risk.NewDrawdownScaler(dc)
	}
	return m
}

// buildCache constructs the optional result memoization layer: a
// cache.NullCache when no Redis address is configured, a cache.RedisCache
// otherwise.
func buildCache(cfg *config.Config) (cache.ResultCache, error) {
	if cfg.Cache.RedisAddr == "" {
		return cache.NullCache{}, nil
	}
	return cache.NewRedisCache(cache.DefaultConfig(cfg.Cache.RedisAddr))
}

func drainSource(source *dataset.CSVDataSource) []core.Bar {
	source.Reset()
	bars := make([]core.Bar, 0, source.Len())
	for {
		bar, ok := source.Next()
		if !ok {
			break
		}
		bars = append(bars, bar)
	}
	return bars
}

// contentHash returns the hex-encoded SHA-256 digest of path's bytes, used
// to key cached optimization results to the exact dataset contents.
func contentHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

type runOutput struct {
	RunID     string         `json:"run_id"`
	Metrics   metrics.Result `json:"metrics"`
	RuntimeMs int64          `json:"runtime_ms"`
}

func emit(result any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
