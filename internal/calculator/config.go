package calculator

// Config holds estimator parameters. Zero values fall back to the defaults
// below, except EpsilonZeroReturn where only nil does; HurstMaxWindow 0 means
// half the series length.
type Config struct {
	RollingWindowDays     int      `yaml:"rolling_window_days" envconfig:"ROLLING_WINDOW_DAYS" validate:"gte=0"`
	EpsilonZeroReturn     *float64 `yaml:"epsilon_zero_return" envconfig:"EPSILON_ZERO_RETURN" validate:"omitempty,gte=0"`
	AmihudScale           float64  `yaml:"amihud_scale" envconfig:"AMIHUD_SCALE" validate:"gte=0"`
	HurstMinWindow        int      `yaml:"hurst_min_window" envconfig:"HURST_MIN_WINDOW" validate:"gte=0"`
	HurstMaxWindow        int      `yaml:"hurst_max_window" envconfig:"HURST_MAX_WINDOW" validate:"gte=0"`
	VolumeSmoothingWindow int      `yaml:"volume_smoothing_window" envconfig:"VOLUME_SMOOTHING_WINDOW" validate:"gte=0"`
	HurstRandomWalkBand   float64  `yaml:"hurst_random_walk_band" envconfig:"HURST_RANDOM_WALK_BAND" validate:"gte=0,lt=0.5"`
	EventHalfWindowDays   int      `yaml:"event_half_window_days" envconfig:"EVENT_HALF_WINDOW_DAYS" validate:"gte=0"`
	TradingDaysPerYear    int      `yaml:"trading_days_per_year" envconfig:"TRADING_DAYS_PER_YEAR" validate:"gte=0"`
	TailProbability       float64  `yaml:"tail_probability" envconfig:"TAIL_PROBABILITY" validate:"gte=0,lt=1"`
}

const (
	DefaultRollingWindowDays     = 252
	DefaultEpsilonZeroReturn     = 1e-8
	DefaultAmihudScale           = 1e6
	DefaultHurstMinWindow        = 8
	DefaultVolumeSmoothingWindow = 21
	DefaultHurstRandomWalkBand   = 0.05
	DefaultEventHalfWindowDays   = 10
	DefaultTradingDaysPerYear    = 252
	DefaultTailProbability       = 0.05
)

// DefaultConfig returns the standard study parameters.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy with every unset field replaced by its default.
func (c Config) WithDefaults() Config {
	if c.RollingWindowDays == 0 {
		c.RollingWindowDays = DefaultRollingWindowDays
	}
	if c.EpsilonZeroReturn == nil {
		eps := DefaultEpsilonZeroReturn
		c.EpsilonZeroReturn = &eps
	}
	if c.AmihudScale == 0 {
		c.AmihudScale = DefaultAmihudScale
	}
	if c.HurstMinWindow == 0 {
		c.HurstMinWindow = DefaultHurstMinWindow
	}
	if c.VolumeSmoothingWindow == 0 {
		c.VolumeSmoothingWindow = DefaultVolumeSmoothingWindow
	}
	if c.HurstRandomWalkBand == 0 {
		c.HurstRandomWalkBand = DefaultHurstRandomWalkBand
	}
	if c.EventHalfWindowDays == 0 {
		c.EventHalfWindowDays = DefaultEventHalfWindowDays
	}
	if c.TradingDaysPerYear == 0 {
		c.TradingDaysPerYear = DefaultTradingDaysPerYear
	}
	if c.TailProbability == 0 {
		c.TailProbability = DefaultTailProbability
	}
	return c
}

// ZeroReturnEpsilon is the |r| threshold of a zero-return day. An explicit 0
// counts only exactly flat days.
func (c Config) ZeroReturnEpsilon() float64 {
	if c.EpsilonZeroReturn == nil {
		return DefaultEpsilonZeroReturn
	}
	return *c.EpsilonZeroReturn
}
