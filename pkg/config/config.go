package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Engine   EngineConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxConns      int
	MinConns      int
	MigrationsDir string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration for the admin gate
type JWTConfig struct {
	Secret string
}

// EngineConfig holds the scoring policy knobs. All weight tables are policy
// defaults, overridable by environment, and validated at startup.
type EngineConfig struct {
	Trust       TrustWeights
	Fraud       FraudWeights
	Suggestions SuggestionWeights
	Levels      LevelThresholds

	TrustCacheStalenessMinutes int
	SignalFetchRetries         int
	SuggestionExpiryDays       int
	SuggestionLimit            int
	FlagThreshold              float64
	BatchIntervalMinutes       int
	BatchConcurrency           int
}

// TrustWeights blends the trust sub-scores into the total. Must sum to 1.
type TrustWeights struct {
	Giving    float64
	Receiving float64
	Feedback  float64
}

// Sum returns the total of all trust weights.
func (w TrustWeights) Sum() float64 {
	return w.Giving + w.Receiving + w.Feedback
}

// LevelThresholds are the minimum total scores for the trust tiers above NEW.
// Boundaries are inclusive.
type LevelThresholds struct {
	Emerging      float64
	Trusted       float64
	HighlyTrusted float64
}

// FraudWeights blends the normalized anomaly signals into the risk score.
// Must sum to 1.
type FraudWeights struct {
	GiveawayVelocity   float64
	CompletionRatio    float64
	AccountAgeActivity float64
	ParticipationSpam  float64
	ReportsFeedback    float64
}

// Sum returns the total of all fraud weights.
func (w FraudWeights) Sum() float64 {
	return w.GiveawayVelocity + w.CompletionRatio + w.AccountAgeActivity +
		w.ParticipationSpam + w.ReportsFeedback
}

// SuggestionWeights blends the candidate signals into the confidence score.
// Must sum to 1.
type SuggestionWeights struct {
	Popularity           float64
	CategoryMatch        float64
	LocationProximity    float64
	ParticipationHistory float64
	TrustScore           float64
}

// Sum returns the total of all suggestion weights.
func (w SuggestionWeights) Sum() float64 {
	return w.Popularity + w.CategoryMatch + w.LocationProximity +
		w.ParticipationHistory + w.TrustScore
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			DBName:        getEnv("DB_NAME", "pepo"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MaxConns:      getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:      getEnvAsInt("DB_MIN_CONNS", 5),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Engine: EngineConfig{
			Trust: TrustWeights{
				Giving:    getEnvAsFloat("TRUST_WEIGHT_GIVING", 0.40),
				Receiving: getEnvAsFloat("TRUST_WEIGHT_RECEIVING", 0.35),
				Feedback:  getEnvAsFloat("TRUST_WEIGHT_FEEDBACK", 0.25),
			},
			Levels: LevelThresholds{
				Emerging:      getEnvAsFloat("TRUST_LEVEL_EMERGING", 30),
				Trusted:       getEnvAsFloat("TRUST_LEVEL_TRUSTED", 60),
				HighlyTrusted: getEnvAsFloat("TRUST_LEVEL_HIGHLY_TRUSTED", 85),
			},
			Fraud: FraudWeights{
				GiveawayVelocity:   getEnvAsFloat("FRAUD_WEIGHT_VELOCITY", 0.25),
				CompletionRatio:    getEnvAsFloat("FRAUD_WEIGHT_COMPLETION", 0.25),
				AccountAgeActivity: getEnvAsFloat("FRAUD_WEIGHT_ACCOUNT_AGE", 0.20),
				ParticipationSpam:  getEnvAsFloat("FRAUD_WEIGHT_PARTICIPATION", 0.15),
				ReportsFeedback:    getEnvAsFloat("FRAUD_WEIGHT_REPORTS", 0.15),
			},
			Suggestions: SuggestionWeights{
				Popularity:           getEnvAsFloat("SUGGESTION_WEIGHT_POPULARITY", 0.20),
				CategoryMatch:        getEnvAsFloat("SUGGESTION_WEIGHT_CATEGORY", 0.25),
				LocationProximity:    getEnvAsFloat("SUGGESTION_WEIGHT_LOCATION", 0.15),
				ParticipationHistory: getEnvAsFloat("SUGGESTION_WEIGHT_PARTICIPATION", 0.25),
				TrustScore:           getEnvAsFloat("SUGGESTION_WEIGHT_TRUST", 0.15),
			},
			TrustCacheStalenessMinutes: getEnvAsInt("TRUST_CACHE_STALENESS_MINUTES", 60),
			SignalFetchRetries:         getEnvAsInt("SIGNAL_FETCH_RETRIES", 3),
			SuggestionExpiryDays:       getEnvAsInt("SUGGESTION_EXPIRY_DAYS", 30),
			SuggestionLimit:            getEnvAsInt("SUGGESTION_LIMIT", 20),
			FlagThreshold:              getEnvAsFloat("FRAUD_FLAG_THRESHOLD", 50),
			BatchIntervalMinutes:       getEnvAsInt("BATCH_INTERVAL_MINUTES", 360),
			BatchConcurrency:           getEnvAsInt("BATCH_CONCURRENCY", 8),
		},
	}

	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

const weightTolerance = 1e-9

// Validate checks that every weight table sums to 1 and that the thresholds
// are sane. Misconfiguration fails fast at startup instead of skewing scores.
func (e *EngineConfig) Validate() error {
	if diff := math.Abs(e.Trust.Sum() - 1.0); diff > weightTolerance {
		return fmt.Errorf("trust weights must sum to 1.0, got %v", e.Trust.Sum())
	}
	if diff := math.Abs(e.Fraud.Sum() - 1.0); diff > weightTolerance {
		return fmt.Errorf("fraud weights must sum to 1.0, got %v", e.Fraud.Sum())
	}
	if diff := math.Abs(e.Suggestions.Sum() - 1.0); diff > weightTolerance {
		return fmt.Errorf("suggestion weights must sum to 1.0, got %v", e.Suggestions.Sum())
	}
	if !(e.Levels.Emerging > 0 && e.Levels.Emerging < e.Levels.Trusted && e.Levels.Trusted < e.Levels.HighlyTrusted && e.Levels.HighlyTrusted <= 100) {
		return fmt.Errorf("trust level thresholds must be strictly increasing within (0,100], got %+v", e.Levels)
	}
	if e.FlagThreshold < 0 || e.FlagThreshold > 100 {
		return fmt.Errorf("fraud flag threshold must be within [0,100], got %v", e.FlagThreshold)
	}
	if e.SignalFetchRetries < 1 {
		return fmt.Errorf("signal fetch retries must be at least 1, got %d", e.SignalFetchRetries)
	}
	if e.SuggestionLimit < 1 {
		return fmt.Errorf("suggestion limit must be at least 1, got %d", e.SuggestionLimit)
	}
	if e.BatchConcurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1, got %d", e.BatchConcurrency)
	}
	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// MigrateURL returns the database URL used by the migration runner.
func (c *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
