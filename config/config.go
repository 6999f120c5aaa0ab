package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/spf13/viper"
)

// Config for the whole application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	API        APIConfig        `mapstructure:"api"`
	Data       DataConfig       `mapstructure:"data"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Optimizer  OptimizerConfig  `mapstructure:"optimizer"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AppConfig is general application configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"oneof=development staging production test"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// APIConfig configures the HTTP server
type APIConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	RateLimit       float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst       int           `mapstructure:"rate_burst" validate:"gte=0"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

// CORSConfig lists allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DataConfig locates the historical price files
type DataConfig struct {
	Dir      string            `mapstructure:"dir" validate:"required"`
	Files    map[string]string `mapstructure:"files" validate:"required"`
	Tickers  []string          `mapstructure:"tickers" validate:"required,min=1"`
	CacheTTL time.Duration     `mapstructure:"cache_ttl" validate:"gte=0"`
	// MaxResults bounds the in-memory result store
	MaxResults int `mapstructure:"max_results" validate:"gte=0"`
}

// SimulationConfig configures the path simulators
type SimulationConfig struct {
	Iterations  int    `mapstructure:"iterations" validate:"min=1"`
	TradingDays int    `mapstructure:"trading_days" validate:"min=1"`
	Seed        uint64 `mapstructure:"seed"`
	Workers     int    `mapstructure:"workers" validate:"gte=0"`
}

// OptimizerConfig configures both optimizer variants
type OptimizerConfig struct {
	MinWeight     float64       `mapstructure:"min_weight" validate:"gte=0,lt=1"`
	MaxWeight     float64       `mapstructure:"max_weight" validate:"gt=0,lte=1,gtfield=MinWeight"`
	Starts        int           `mapstructure:"starts" validate:"min=1"`
	Workers       int           `mapstructure:"workers" validate:"min=1"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Seed          uint64        `mapstructure:"seed"`
	MaxIterations int           `mapstructure:"max_iterations" validate:"min=1"`
	Tolerance     float64       `mapstructure:"tolerance" validate:"gt=0"`
	RiskFreeRate  float64       `mapstructure:"risk_free_rate"`
}

// RiskConfig configures tail-risk reporting
type RiskConfig struct {
	VaRConfidenceLevel float64 `mapstructure:"var_confidence_level" validate:"gt=0,lt=1"`
	ESConfidenceLevel  float64 `mapstructure:"es_confidence_level" validate:"gt=0,lt=1"`
	TailMethod         string  `mapstructure:"tail_method" validate:"oneof=historical parametric"`
	HistoricalDays     int     `mapstructure:"historical_days" validate:"min=2"`
}

// KafkaConfig configures the request worker
type KafkaConfig struct {
	Enabled           bool              `mapstructure:"enabled"`
	Brokers           []string          `mapstructure:"brokers" validate:"required_if=Enabled true"`
	GroupID           string            `mapstructure:"group_id"`
	SessionTimeout    time.Duration     `mapstructure:"session_timeout"`
	Partitions        int               `mapstructure:"partitions" validate:"gte=0"`
	ReplicationFactor int               `mapstructure:"replication_factor" validate:"gte=0"`
	Topics            KafkaTopicsConfig `mapstructure:"topics"`
}

// KafkaTopicsConfig names the request and result topics
type KafkaTopicsConfig struct {
	Requests string `mapstructure:"requests" validate:"required"`
	Results  string `mapstructure:"results" validate:"required"`
}

// MetricsConfig configures metrics exposure
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig configures the standalone metrics server
type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"min=1,max=65535"`
}

// Load reads the configuration file at path, applies PILOT_* environment
// overrides and validates the result. A missing file falls back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrapf(err, "failed to read config file %s", path)
			}
		}
	}

	v.SetEnvPrefix("PILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.InvalidArgumentf("invalid configuration: %v", err)
	}
	if err := c.Optimizer.checkBounds("asset classes", len(models.AssetClasses)); err != nil {
		return err
	}
	return c.Optimizer.checkBounds("stocks", len(models.StockTickers))
}

// checkBounds rejects weight bounds the solver cannot meet for n assets.
// The solver only honours max_weight when it is implied by the floor, i.e.
// max_weight >= 1 - (n-1)*min_weight; tighter caps are not enforced.
func (o OptimizerConfig) checkBounds(basket string, n int) error {
	if float64(n)*o.MinWeight > 1+1e-12 {
		return errors.InvalidArgumentf("invalid configuration: optimizer.min_weight %.4f leaves no feasible allocation across %d %s",
			o.MinWeight, n, basket)
	}
	if floor := 1 - float64(n-1)*o.MinWeight; o.MaxWeight < floor-1e-12 {
		return errors.InvalidArgumentf("invalid configuration: optimizer.max_weight %.4f is below %.4f, the smallest cap enforceable across %d %s with min_weight %.4f",
			o.MaxWeight, floor, n, basket, o.MinWeight)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "portfolio-pilot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "10s")
	v.SetDefault("api.write_timeout", "60s")
	v.SetDefault("api.request_timeout", "45s")
	v.SetDefault("api.shutdown_timeout", "30s")
	v.SetDefault("api.rate_limit", 5)
	v.SetDefault("api.rate_burst", 20)
	v.SetDefault("api.cors.allowed_origins", []string{"*"})

	// Data defaults
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.files", map[string]string{
		"stocks":      "stocks.csv",
		"bonds":       "bonds.csv",
		"real_estate": "real_estate.csv",
		"commodities": "commodities.csv",
	})
	v.SetDefault("data.tickers", []string{"AAPL", "GOOGL", "MSFT", "TSLA", "NVDA"})
	v.SetDefault("data.cache_ttl", "1h")
	v.SetDefault("data.max_results", 1000)

	// Simulation defaults
	v.SetDefault("simulation.iterations", 10000)
	v.SetDefault("simulation.trading_days", 252)
	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.workers", 4)

	// Optimizer defaults
	v.SetDefault("optimizer.min_weight", 0.05)
	v.SetDefault("optimizer.max_weight", 1.0)
	v.SetDefault("optimizer.starts", 1000)
	v.SetDefault("optimizer.workers", 4)
	v.SetDefault("optimizer.timeout", "20s")
	v.SetDefault("optimizer.seed", 42)
	v.SetDefault("optimizer.max_iterations", 200)
	v.SetDefault("optimizer.tolerance", 1e-9)
	v.SetDefault("optimizer.risk_free_rate", 0.0)

	// Risk defaults
	v.SetDefault("risk.var_confidence_level", 0.95)
	v.SetDefault("risk.es_confidence_level", 0.975)
	v.SetDefault("risk.tail_method", "historical")
	v.SetDefault("risk.historical_days", 252)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "portfolio-pilot")
	v.SetDefault("kafka.session_timeout", "30s")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication_factor", 1)
	v.SetDefault("kafka.topics.requests", "portfolio.requests")
	v.SetDefault("kafka.topics.results", "portfolio.results")

	// Metrics defaults
	v.SetDefault("metrics.prometheus.enabled", true)
	v.SetDefault("metrics.prometheus.port", 9090)
}

// GetConfigPath returns PILOT_CONFIG_PATH or the default location
func GetConfigPath() string {
	if configPath := os.Getenv("PILOT_CONFIG_PATH"); configPath != "" {
		return configPath
	}
	return "./config/config.yaml"
}
