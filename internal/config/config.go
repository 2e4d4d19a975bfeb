package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"GreenMetrics/internal/calculator"
	"GreenMetrics/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. GREEN_TELEGRAM_BOT_TOKEN.
const EnvPrefix = "GREEN"

// Config holds all application configuration.
type Config struct {
	DataSource DataSource        `yaml:"data_source" envconfig:"DATA_SOURCE"`
	Study      Study             `yaml:"study" envconfig:"STUDY"`
	Metrics    calculator.Config `yaml:"metrics" envconfig:"METRICS"`
	Schedule   struct {
		Cron string `yaml:"cron" envconfig:"CRON"`
	} `yaml:"schedule" envconfig:"SCHEDULE"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"CHAT_ID" validate:"required_with=BotToken"`
	} `yaml:"telegram" envconfig:"TELEGRAM"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
		StateFile  string `yaml:"state_file" envconfig:"STATE_FILE"`
	} `yaml:"database" envconfig:"DATABASE"`
	Output struct {
		Dir  string `yaml:"dir" envconfig:"DIR"`
		XLSX bool   `yaml:"xlsx" envconfig:"XLSX"`
	} `yaml:"output" envconfig:"OUTPUT"`
	Logging struct {
		Level       string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn error"`
		Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
	} `yaml:"logging" envconfig:"LOGGING"`
}

// DataSource selects and tunes the market data provider.
type DataSource struct {
	Provider          string        `yaml:"provider" envconfig:"PROVIDER" validate:"oneof=yahoo csv mock"`
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	CSVDir            string        `yaml:"csv_dir" envconfig:"CSV_DIR" validate:"required_if=Provider csv"`
	Proxy             string        `yaml:"proxy" envconfig:"PROXY" validate:"omitempty,url"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gt=0"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// Study describes the instruments and dates under analysis.
type Study struct {
	Start         string         `yaml:"start" envconfig:"START" validate:"required,datetime=2006-01-02"`
	End           string         `yaml:"end" envconfig:"END" validate:"required,datetime=2006-01-02"`
	Assets        []model.Asset  `yaml:"assets" ignored:"true" validate:"required,min=1,dive"`
	VolumePeriods *VolumePeriods `yaml:"volume_periods" ignored:"true"`
	Events        []Event        `yaml:"events" ignored:"true" validate:"dive"`
}

// VolumePeriods are the caller-chosen early and late windows compared by
// volume growth. Both are required when the section is present.
type VolumePeriods struct {
	Early DateRange `yaml:"early"`
	Late  DateRange `yaml:"late"`
}

type DateRange struct {
	From string `yaml:"from" validate:"required,datetime=2006-01-02"`
	To   string `yaml:"to" validate:"required,datetime=2006-01-02"`
}

type Event struct {
	Date string `yaml:"date" validate:"required,datetime=2006-01-02"`
	Name string `yaml:"name" validate:"required"`
}

// Load reads config from a YAML file, then an optional .env file, then
// environment variable overrides, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.RequestsPerSecond == 0 {
		c.DataSource.RequestsPerSecond = 2
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.Study.Start == "" {
		c.Study.Start = "2019-01-01"
	}
	if c.Study.End == "" {
		c.Study.End = "2024-12-31"
	}
	if len(c.Study.Assets) == 0 {
		c.Study.Assets = DefaultAssets()
	}
	if c.Study.Events == nil {
		c.Study.Events = DefaultEvents()
	}
	c.Metrics = c.Metrics.WithDefaults()
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 0 22 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/greenmetrics.db"
	}
	if c.Database.StateFile == "" {
		c.Database.StateFile = "data/state.json"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks struct constraints and the date ordering rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	span, err := c.Study.Period()
	if err != nil {
		return err
	}
	if !span.From.Before(span.To) {
		return fmt.Errorf("invalid config: study.start %s must be before study.end", c.Study.Start)
	}
	if c.Study.VolumePeriods != nil {
		early, late, err := c.Study.VolumePeriods.Periods()
		if err != nil {
			return err
		}
		if early.From.After(early.To) || late.From.After(late.To) || !early.To.Before(late.From) {
			return fmt.Errorf("invalid config: volume_periods early %s must end before late %s", early, late)
		}
	}
	return nil
}

// Period returns the study date range.
func (s Study) Period() (model.Period, error) {
	return DateRange{From: s.Start, To: s.End}.Period()
}

// MarketEvents converts the configured events.
func (s Study) MarketEvents() ([]model.MarketEvent, error) {
	out := make([]model.MarketEvent, 0, len(s.Events))
	for _, e := range s.Events {
		d, err := model.ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", e.Name, err)
		}
		out = append(out, model.MarketEvent{Date: d, Name: e.Name})
	}
	return out, nil
}

// Symbols returns every asset and benchmark ticker once, assets first.
func (s Study) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(sym string) {
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	for _, a := range s.Assets {
		add(a.Symbol)
	}
	for _, a := range s.Assets {
		for _, b := range a.Benchmarks {
			add(b)
		}
	}
	return out
}

func (r DateRange) Period() (model.Period, error) {
	from, err := model.ParseDate(r.From)
	if err != nil {
		return model.Period{}, fmt.Errorf("parse date %q: %w", r.From, err)
	}
	to, err := model.ParseDate(r.To)
	if err != nil {
		return model.Period{}, fmt.Errorf("parse date %q: %w", r.To, err)
	}
	return model.Period{From: from, To: to}, nil
}

func (v VolumePeriods) Periods() (early, late model.Period, err error) {
	if early, err = v.Early.Period(); err != nil {
		return
	}
	late, err = v.Late.Period()
	return
}

// DefaultAssets is the green ETF universe with its benchmark baskets.
func DefaultAssets() []model.Asset {
	return []model.Asset{
		{Symbol: "KRBN", Name: "KraneShares Global Carbon Strategy ETF", Category: "Carbon Credits", Benchmarks: []string{"SPY", "AGG", "GLD", "USO"}},
		{Symbol: "ICLN", Name: "iShares Global Clean Energy ETF", Category: "Clean Energy", Benchmarks: []string{"SPY", "QCLN", "VGT", "XLI"}},
		{Symbol: "BGRN", Name: "iShares Global Green Bond ETF", Category: "Green Bonds", Benchmarks: []string{"AGG", "LQD", "TLT", "HYG"}},
	}
}

// DefaultEvents lists the market events used for event-impact analysis.
func DefaultEvents() []Event {
	return []Event{
		{Date: "2019-12-11", Name: "EU Green Deal"},
		{Date: "2020-03-12", Name: "COVID-19"},
		{Date: "2022-02-24", Name: "Russia Invades Ukraine"},
		{Date: "2022-06-15", Name: "Fed 75bp Hike"},
		{Date: "2023-03-10", Name: "SVB Collapse"},
	}
}
