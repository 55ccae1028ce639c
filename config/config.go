package config

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"strings"

	"github.com/tthiemann260-coder/apex-backtest-sub000/execution"
	"github.com/tthiemann260-coder/apex-backtest-sub000/portfolio"
	"github.com/tthiemann260-coder/apex-backtest-sub000/risk"
	"github.com/tthiemann260-coder/apex-backtest-sub000/smc"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// KellyConfig mirrors risk.KellyConfig with JSON tags for the run file.
type KellyConfig struct {
	Lookback    int             `json:"lookback" validate:"min=1"`
	Fraction    decimal.Decimal `json:"fraction" validate:"required"`
	MinTrades   int             `json:"min_trades" validate:"min=0"`
	MaxKellyPct decimal.Decimal `json:"max_kelly_pct" validate:"required"`
}

// HeatConfig mirrors risk.HeatConfig with JSON tags for the run file.
type HeatConfig struct {
	MaxHeatPct    decimal.Decimal `json:"max_heat_pct" validate:"required"`
	ATRMultiplier decimal.Decimal `json:"atr_multiplier" validate:"required"`
}

// DrawdownScalerConfig mirrors risk.DrawdownConfig with JSON tags for the
// run file.
type DrawdownScalerConfig struct {
	MaxDrawdownPct decimal.Decimal `json:"max_drawdown_pct" validate:"required"`
	FullStopPct    decimal.Decimal `json:"full_stop_pct" validate:"required"`
	MinScale       decimal.Decimal `json:"min_scale" validate:"required"`
}

// SMCConfig mirrors smc.SMCConfig with JSON tags for the run file.
type SMCConfig struct {
	SwingStrength    int             `json:"swing_strength" validate:"min=1"`
	ATRPeriod        int             `json:"atr_period" validate:"min=1"`
	ATRMultThreshold decimal.Decimal `json:"atr_mult_threshold" validate:"required"`
	OBLookbackBars   int             `json:"ob_lookback" validate:"min=1"`
	MaxActiveOBs     int             `json:"max_active_obs" validate:"min=1"`
	OBMaxAgeBars     int             `json:"max_age" validate:"min=1"`
	MaxFVGs          int             `json:"max_fvgs" validate:"min=1"`
	FVGMaxAgeBars    int             `json:"fvg_max_age" validate:"min=1"`
	FVGMinSizeATR    decimal.Decimal `json:"min_size_atr_mult" validate:"required"`
	MitigationMode   string          `json:"mitigation_mode" validate:"oneof=wick 50pct close"`
	WarmupBars       int             `json:"warmup_bars" validate:"min=0"`
	MaxBufferSize    int             `json:"max_buffer_size" validate:"min=1"`
}

// ICTConfig mirrors smc.ICTConfig with JSON tags for the run file.
type ICTConfig struct {
	SMCConfig
	SweepMinDepthATR     decimal.Decimal `json:"sweep_min_depth_atr" validate:"required"`
	SweepCooldownBars    int             `json:"sweep_cooldown_bars" validate:"min=0"`
	IDMSecondaryStrength int             `json:"idm_secondary_strength" validate:"min=1"`
	RequireSweep         bool            `json:"require_sweep"`
	RequireIDM           bool            `json:"require_idm"`
	RequireKillZone      bool            `json:"require_kill_zone"`
	RequireOTE           bool            `json:"require_ote"`
	ActiveSessions       []string        `json:"active_sessions"`
}

// CacheConfig configures the optional result-memoization layer. An empty
// RedisAddr leaves memoization off (a cache.NullCache is wired instead).
type CacheConfig struct {
	RedisAddr string `json:"redis_addr"`
}

// Config is the full run configuration a cmd/backtest invocation loads
// from a JSON file: friction and margin, the sizing/gating risk pipeline,
// the SMC/ICT strategy tunables, the multi-strategy router's weights, and
// the optional result cache. Every decimal field decodes from a JSON
// string (or bare numeric literal routed through decimal's own
// string-preserving parser) — never through float64.
type Config struct {
	InitialCash            decimal.Decimal            `json:"initial_cash" validate:"required"`
	MarginRequirement      decimal.Decimal            `json:"margin_requirement" validate:"required"`
	SlippagePct            decimal.Decimal            `json:"slippage_pct" validate:"required"`
	SpreadPct              decimal.Decimal            `json:"spread_pct" validate:"required"`
	CommissionPerTrade     decimal.Decimal            `json:"commission_per_trade"`
	CommissionPerShare     decimal.Decimal            `json:"commission_per_share"`
	RiskPerTrade           decimal.Decimal            `json:"risk_per_trade" validate:"required"`
	ATRMultiplier          decimal.Decimal            `json:"atr_multiplier" validate:"required"`
	FallbackRiskPct        decimal.Decimal            `json:"fallback_risk_pct" validate:"required"`
	MaxPositionPct         decimal.Decimal            `json:"max_position_pct" validate:"required"`
	MaxConcurrentPositions int                        `json:"max_concurrent_positions" validate:"min=1"`
	PerAssetMaxPositions   map[string]int             `json:"per_asset_max_positions,omitempty"`
	PerAssetMaxPct         map[string]decimal.Decimal `json:"per_asset_max_pct,omitempty"`

	Kelly          *KellyConfig          `json:"kelly,omitempty"`
	Heat           *HeatConfig           `json:"heat,omitempty"`
	DrawdownScaler *DrawdownScalerConfig `json:"drawdown_scaler,omitempty"`

	SMC *SMCConfig `json:"smc,omitempty"`
	ICT *ICTConfig `json:"ict,omitempty"`

	RouterWeights map[string]decimal.Decimal `json:"router,omitempty"`

	Cache CacheConfig `json:"cache"`

	Version string `json:"-"`
}

// DefaultConfig assembles the standard run defaults: the execution and
// risk packages' own DefaultConfig values, an initial cash of 100000 and a
// margin requirement of 1.0, Kelly/Heat/
// DrawdownScaler left nil (opt-in), no router weights, memoization off.
func DefaultConfig() *Config {
	exec := execution.DefaultConfig()
	riskCfg := risk.DefaultConfig()

	return &Config{
		InitialCash:            decimal.NewFromInt(100000),
		MarginRequirement:      decimal.NewFromFloat(1.0),
		SlippagePct:            exec.SlippagePct,
		SpreadPct:              exec.SpreadPct,
		CommissionPerTrade:     exec.CommissionPerTrade,
		CommissionPerShare:     exec.CommissionPerShare,
		RiskPerTrade:           riskCfg.RiskPerTrade,
		ATRMultiplier:          riskCfg.ATRMultiplier,
		FallbackRiskPct:        riskCfg.FallbackRiskPct,
		MaxPositionPct:         riskCfg.MaxPositionPct,
		MaxConcurrentPositions: riskCfg.MaxConcurrentPositions,
		Cache:                  CacheConfig{},
	}
}

// Load reads a JSON run configuration from path. An empty (or missing)
// path returns DefaultConfig. A non-empty path that fails to parse or
// fails validation returns a wrapped error.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if violations := cfg.validate(); len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(violations, "; "))
	}

	cfg.Version = version(data)
	return cfg, nil
}

// validate aggregates struct-tag violations (via validator/v10) with the
// cross-field checks validator tags can't express, collecting every
// violation before reporting rather than stopping at the first.
func (c *Config) validate() []string {
	var violations []string

	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				violations = append(violations, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			violations = append(violations, err.Error())
		}
	}

	if c.InitialCash.LessThanOrEqual(decimal.Zero) {
		violations = append(violations, "initial_cash must be positive")
	}
	if c.MarginRequirement.LessThanOrEqual(decimal.Zero) || c.MarginRequirement.GreaterThan(decimal.NewFromInt(1)) {
		violations = append(violations, "margin_requirement must be in (0, 1]")
	}
	if c.MaxPositionPct.GreaterThan(decimal.NewFromInt(1)) {
		violations = append(violations, "max_position_pct must not exceed 1.0")
	}
	for symbol, pct := range c.PerAssetMaxPct {
		if pct.GreaterThan(decimal.NewFromInt(1)) || pct.LessThanOrEqual(decimal.Zero) {
			violations = append(violations, fmt.Sprintf("per_asset_max_pct[%s] must be in (0, 1]", symbol))
		}
	}
	if sum := sumWeights(c.RouterWeights); len(c.RouterWeights) > 0 && !sum.Equal(decimal.NewFromInt(1)) {
		violations = append(violations, fmt.Sprintf("router weights must sum to 1.0, got %s", sum.String()))
	}

	return violations
}

func sumWeights(weights map[string]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	return sum
}

// version returns a short, deterministic, non-cryptographic hash of the
// raw config bytes for audit labelling.
func version(data []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return fmt.Sprintf("%x", h.Sum64())
}

// RiskManagerConfig converts the loaded friction/sizing fields into a
// risk.Config ready for risk.NewManager.
func (c *Config) RiskManagerConfig() risk.Config {
	return risk.Config{
		RiskPerTrade:           c.RiskPerTrade,
		ATRMultiplier:          c.ATRMultiplier,
		FallbackRiskPct:        c.FallbackRiskPct,
		MaxPositionPct:         c.MaxPositionPct,
		MaxConcurrentPositions: c.MaxConcurrentPositions,
		PerAssetMaxPositions:   c.PerAssetMaxPositions,
		PerAssetMaxPct:         c.PerAssetMaxPct,
	}
}

// ExecutionConfig converts the loaded friction fields into an
// execution.Config ready for execution.New.
func (c *Config) ExecutionConfig() execution.Config {
	return execution.Config{
		SlippagePct:        c.SlippagePct,
		CommissionPerTrade: c.CommissionPerTrade,
		CommissionPerShare: c.CommissionPerShare,
		SpreadPct:          c.SpreadPct,
	}
}

// NewPortfolio builds a portfolio.Portfolio from InitialCash and
// MarginRequirement.
func (c *Config) NewPortfolio() *portfolio.Portfolio {
	return portfolio.New(c.InitialCash, c.MarginRequirement)
}

// KellyRiskConfig converts the optional Kelly block into a risk.KellyConfig.
// ok is false when no kelly block was configured.
func (c *Config) KellyRiskConfig() (cfg risk.KellyConfig, ok bool) {
	if c.Kelly == nil {
		return risk.KellyConfig{}, false
	}
	return risk.KellyConfig{
		Lookback:    c.Kelly.Lookback,
		Fraction:    c.Kelly.Fraction,
		MinTrades:   c.Kelly.MinTrades,
		MaxKellyPct: c.Kelly.MaxKellyPct,
	}, true
}

// HeatRiskConfig converts the optional Heat block into a risk.HeatConfig.
// ok is false when no heat block was configured.
func (c *Config) HeatRiskConfig() (cfg risk.HeatConfig, ok bool) {
	if c.Heat == nil {
		return risk.HeatConfig{}, false
	}
	return risk.HeatConfig{
		MaxHeatPct:    c.Heat.MaxHeatPct,
		ATRMultiplier: c.Heat.ATRMultiplier,
	}, true
}

// DrawdownRiskConfig converts the optional DrawdownScaler block into a
// risk.DrawdownConfig. ok is false when no drawdown_scaler block was
// configured.
func (c *Config) DrawdownRiskConfig() (cfg risk.DrawdownConfig, ok bool) {
	if c.DrawdownScaler == nil {
		return risk.DrawdownConfig{}, false
	}
	return risk.DrawdownConfig{
		MaxDrawdownPct: c.DrawdownScaler.MaxDrawdownPct,
		FullStopPct:    c.DrawdownScaler.FullStopPct,
		MinScale:       c.DrawdownScaler.MinScale,
	}, true
}

// SMCStrategyConfig converts the optional SMC block into an smc.SMCConfig,
// falling back to smc.DefaultSMCConfig for any unset block.
func (c *Config) SMCStrategyConfig() smc.SMCConfig {
	if c.SMC == nil {
		return smc.DefaultSMCConfig()
	}
	return smc.SMCConfig{
		SwingStrength:    c.SMC.SwingStrength,
		ATRPeriod:        c.SMC.ATRPeriod,
		ATRMultThreshold: c.SMC.ATRMultThreshold,
		OBLookbackBars:   c.SMC.OBLookbackBars,
		MaxActiveOBs:     c.SMC.MaxActiveOBs,
		OBMaxAgeBars:     c.SMC.OBMaxAgeBars,
		MaxFVGs:          c.SMC.MaxFVGs,
		FVGMaxAgeBars:    c.SMC.FVGMaxAgeBars,
		FVGMinSizeATR:    c.SMC.FVGMinSizeATR,
		MitigationMode:   smc.MitigationMode(c.SMC.MitigationMode),
		WarmupBars:       c.SMC.WarmupBars,
		MaxBufferSize:    c.SMC.MaxBufferSize,
	}
}

// ICTStrategyConfig converts the optional ICT block into an smc.ICTConfig,
// falling back to smc.DefaultICTConfig for any unset block.
func (c *Config) ICTStrategyConfig() smc.ICTConfig {
	if c.ICT == nil {
		return smc.DefaultICTConfig()
	}

	base := smc.DefaultSMCConfig()
	smcCfg := c.ICT.SMCConfig
	if smcCfg.SwingStrength != 0 {
		base.SwingStrength = smcCfg.SwingStrength
	}
	if smcCfg.ATRPeriod != 0 {
		base.ATRPeriod = smcCfg.ATRPeriod
	}

	sessions := make([]smc.SessionType, 0, len(c.ICT.ActiveSessions))
	for _, s := range c.ICT.ActiveSessions {
		sessions = append(sessions, smc.SessionType(s))
	}

	return smc.ICTConfig{
		SMCConfig:            base,
		SweepMinDepthATR:     c.ICT.SweepMinDepthATR,
		SweepCooldownBars:    c.ICT.SweepCooldownBars,
		IDMSecondaryStrength: c.ICT.IDMSecondaryStrength,
		RequireSweep:         c.ICT.RequireSweep,
		RequireIDM:           c.ICT.RequireIDM,
		RequireKillZone:      c.ICT.RequireKillZone,
		RequireOTE:           c.ICT.RequireOTE,
		ActiveSessions:       sessions,
	}
}
