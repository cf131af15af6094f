package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Planner  PlannerConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	PlanTTLSeconds int
}

// PlannerConfig carries the default computation parameters; each request can
// override them within the validated ranges.
type PlannerConfig struct {
	Workers            int
	HorizonDays        int
	LeadTimeDays       float64
	ServiceLevel       float64
	SafetyStockMethod  string
	SafetyStockPct     float64
	OrderingCost       float64
	HoldingCostPerUnit float64
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "demand_planner")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_PLAN_TTL_SECONDS", 300)
		viper.SetDefault("PLANNER_WORKERS", 4)
		viper.SetDefault("PLANNER_HORIZON_DAYS", 30)
		viper.SetDefault("PLANNER_LEAD_TIME_DAYS", 7.0)
		viper.SetDefault("PLANNER_SERVICE_LEVEL", 0.95)
		viper.SetDefault("PLANNER_SAFETY_STOCK_METHOD", "statistical")
		viper.SetDefault("PLANNER_SAFETY_STOCK_PCT", 0.20)
		viper.SetDefault("PLANNER_ORDERING_COST", 50.0)
		viper.SetDefault("PLANNER_HOLDING_COST_PER_UNIT", 2.0)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:        viper.GetBool("CACHE_ENABLED"),
				RedisURL:       viper.GetString("REDIS_URL"),
				RedisHost:      viper.GetString("REDIS_HOST"),
				RedisPort:      viper.GetString("REDIS_PORT"),
				RedisPassword:  viper.GetString("REDIS_PASSWORD"),
				RedisDB:        viper.GetInt("REDIS_DB"),
				PlanTTLSeconds: viper.GetInt("CACHE_PLAN_TTL_SECONDS"),
			},
			Planner: PlannerConfig{
				Workers:            viper.GetInt("PLANNER_WORKERS"),
				HorizonDays:        viper.GetInt("PLANNER_HORIZON_DAYS"),
				LeadTimeDays:       viper.GetFloat64("PLANNER_LEAD_TIME_DAYS"),
				ServiceLevel:       viper.GetFloat64("PLANNER_SERVICE_LEVEL"),
				SafetyStockMethod:  viper.GetString("PLANNER_SAFETY_STOCK_METHOD"),
				SafetyStockPct:     viper.GetFloat64("PLANNER_SAFETY_STOCK_PCT"),
				OrderingCost:       viper.GetFloat64("PLANNER_ORDERING_COST"),
				HoldingCostPerUnit: viper.GetFloat64("PLANNER_HOLDING_COST_PER_UNIT"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
		}
	})

	return instance
}
