// Package config loads the run configuration from a YAML file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"

	forecaster "github.com/aouyang1/go-demoforecast"
	"github.com/aouyang1/go-demoforecast/arima"
	"github.com/aouyang1/go-demoforecast/internal/store"
	"github.com/aouyang1/go-demoforecast/internal/store/csvfile"
	"github.com/aouyang1/go-demoforecast/quadrant"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// input sources and output sinks
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

type Config struct {
	Forecasting ForecastingConfig `mapstructure:"forecasting"`
	Quadrant    QuadrantConfig    `mapstructure:"quadrant"`
	Outputs     OutputsConfig     `mapstructure:"outputs"`
	Input       InputConfig       `mapstructure:"input"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Log         LogConfig         `mapstructure:"log"`
}

type ForecastingConfig struct {
	HorizonYears int         `mapstructure:"horizon_years"`
	ARIMA        ARIMAConfig `mapstructure:"arima"`
}

type ARIMAConfig struct {
	MaxP                 int    `mapstructure:"max_p"`
	MaxD                 int    `mapstructure:"max_d"`
	MaxQ                 int    `mapstructure:"max_q"`
	InformationCriterion string `mapstructure:"information_criterion"`
}

type QuadrantConfig struct {
	TFRThresholdMethod         string         `mapstructure:"tfr_threshold_method"`
	ExpenditureThresholdMethod string         `mapstructure:"expenditure_threshold_method"`
	TFRThresholdFixed          float64        `mapstructure:"tfr_threshold_fixed"`
	ExpenditureThresholdFixed  float64        `mapstructure:"expenditure_threshold_fixed"`
	Segments                   SegmentsConfig `mapstructure:"segments"`
}

type SegmentsConfig struct {
	HighTFRHighExp string `mapstructure:"high_tfr_high_exp"`
	HighTFRLowExp  string `mapstructure:"high_tfr_low_exp"`
	LowTFRHighExp  string `mapstructure:"low_tfr_high_exp"`
	LowTFRLowExp   string `mapstructure:"low_tfr_low_exp"`
}

type OutputsConfig struct {
	TopNRegions      int    `mapstructure:"top_n_regions"`
	SaveForecasts    bool   `mapstructure:"save_forecasts"`
	SaveSegmentation bool   `mapstructure:"save_segmentation"`
	RenderDashboard  bool   `mapstructure:"render_dashboard"`
	Dir              string `mapstructure:"dir"`
	Sink             string `mapstructure:"sink"`
}

type InputConfig struct {
	Source string           `mapstructure:"source"`
	Dir    string           `mapstructure:"dir"`
	Files  InputFilesConfig `mapstructure:"files"`
}

// InputFilesConfig names the csv file of each input table within the input dir
type InputFilesConfig struct {
	Expenditure string `mapstructure:"expenditure"`
	TFR         string `mapstructure:"tfr"`
	Regions     string `mapstructure:"regions"`
}

// FileMap maps the input table names to their csv file names
func (f InputFilesConfig) FileMap() map[string]string {
	return map[string]string{
		store.Expenditure.Name: f.Expenditure,
		store.TFR.Name:         f.TFR,
		store.Regions.Name:     f.Regions,
	}
}

type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Name       string `mapstructure:"name"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password" json:"-"`
	SSLMode    string `mapstructure:"sslmode"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Load reads the configuration. When path is empty config.yaml is searched for in ./configs and the
// working directory, and a missing file falls back to the defaults. A .env file in the working
// directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"database.host":     "DB_HOST",
		"database.port":     "DB_PORT",
		"database.name":     "DB_NAME",
		"database.user":     "DB_USER",
		"database.password": "DB_PASSWORD",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("forecasting.horizon_years", 5)
	v.SetDefault("forecasting.arima.max_p", arima.DefaultMaxP)
	v.SetDefault("forecasting.arima.max_d", arima.DefaultMaxD)
	v.SetDefault("forecasting.arima.max_q", arima.DefaultMaxQ)
	v.SetDefault("forecasting.arima.information_criterion", string(arima.AIC))

	labels := quadrant.NewDefaultLabels()
	v.SetDefault("quadrant.tfr_threshold_method", string(quadrant.Median))
	v.SetDefault("quadrant.expenditure_threshold_method", string(quadrant.Median))
	v.SetDefault("quadrant.tfr_threshold_fixed", quadrant.DefaultTFRFixed)
	v.SetDefault("quadrant.expenditure_threshold_fixed", quadrant.DefaultExpenditureFixed)
	v.SetDefault("quadrant.segments.high_tfr_high_exp", labels.HighTFRHighExp)
	v.SetDefault("quadrant.segments.high_tfr_low_exp", labels.HighTFRLowExp)
	v.SetDefault("quadrant.segments.low_tfr_high_exp", labels.LowTFRHighExp)
	v.SetDefault("quadrant.segments.low_tfr_low_exp", labels.LowTFRLowExp)

	v.SetDefault("outputs.top_n_regions", forecaster.DefaultTopN)
	v.SetDefault("outputs.save_forecasts", true)
	v.SetDefault("outputs.save_segmentation", true)
	v.SetDefault("outputs.render_dashboard", true)
	v.SetDefault("outputs.dir", "data/processed")
	v.SetDefault("outputs.sink", BackendCSV)

	v.SetDefault("input.source", BackendCSV)
	v.SetDefault("input.dir", "data/interim")
	for table, file := range csvfile.InterimFiles() {
		v.SetDefault("input.files."+table, file)
	}

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "demographics")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "data/demographics.db")

	v.SetDefault("log.debug", false)
}

func validBackend(name string) bool {
	switch name {
	case BackendCSV, BackendPostgres, BackendSQLite:
		return true
	}
	return false
}

// Validate checks the values the engine options cannot check on their own
func (c *Config) Validate() error {
	if !validBackend(c.Input.Source) {
		return fmt.Errorf("input source %q: %w", c.Input.Source, ErrUnknownBackend)
	}
	if !validBackend(c.Outputs.Sink) {
		return fmt.Errorf("output sink %q: %w", c.Outputs.Sink, ErrUnknownBackend)
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535, got %d", c.Database.Port)
	}
	if _, err := c.ForecasterOptions(nil); err != nil {
		return err
	}
	if _, err := c.QuadrantOptions(nil); err != nil {
		return err
	}
	return nil
}

// ForecasterOptions converts the forecasting section into validated forecaster options
func (c *Config) ForecasterOptions(logger *zap.Logger) (*forecaster.Options, error) {
	crit, err := arima.ParseCriterion(strings.ToLower(c.Forecasting.ARIMA.InformationCriterion))
	if err != nil {
		return nil, fmt.Errorf("invalid forecasting.arima.information_criterion: %w", err)
	}

	opt := forecaster.NewDefaultOptions()
	opt.Horizon = c.Forecasting.HorizonYears
	opt.Search = arima.SearchOptions{
		Bounds: arima.Bounds{
			MaxP: c.Forecasting.ARIMA.MaxP,
			MaxD: c.Forecasting.ARIMA.MaxD,
			MaxQ: c.Forecasting.ARIMA.MaxQ,
		},
		Criterion: crit,
	}
	opt.TopN = c.Outputs.TopNRegions
	opt.Logger = logger

	validated, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid forecasting config: %w", err)
	}
	return validated, nil
}

// QuadrantOptions converts the quadrant section into validated segmentation options
func (c *Config) QuadrantOptions(logger *zap.Logger) (*quadrant.Options, error) {
	tfrMethod, err := quadrant.ParseMethod(strings.ToLower(c.Quadrant.TFRThresholdMethod))
	if err != nil {
		return nil, fmt.Errorf("invalid quadrant.tfr_threshold_method: %w", err)
	}
	expMethod, err := quadrant.ParseMethod(strings.ToLower(c.Quadrant.ExpenditureThresholdMethod))
	if err != nil {
		return nil, fmt.Errorf("invalid quadrant.expenditure_threshold_method: %w", err)
	}

	opt := &quadrant.Options{
		TFRMethod:         tfrMethod,
		ExpenditureMethod: expMethod,
		TFRFixed:          c.Quadrant.TFRThresholdFixed,
		ExpenditureFixed:  c.Quadrant.ExpenditureThresholdFixed,
		Labels: quadrant.Labels{
			HighTFRHighExp: c.Quadrant.Segments.HighTFRHighExp,
			HighTFRLowExp:  c.Quadrant.Segments.HighTFRLowExp,
			LowTFRHighExp:  c.Quadrant.Segments.LowTFRHighExp,
			LowTFRLowExp:   c.Quadrant.Segments.LowTFRLowExp,
		},
		Logger: logger,
	}
	validated, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid quadrant config: %w", err)
	}
	return validated, nil
}

// DSN returns the postgres connection url
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
