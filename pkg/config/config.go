package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port                    string
	Env                     string
	MongoURI                string
	MongoDatabase           string
	PostgresConnStr         string
	JWTSecret               string
	FirebaseCredentialsPath string
	FirebaseStorageBucket   string
	RollbarToken            string
	NoticeStore             string
	CORSAllowOrigins        []string
	RevisionHistoryLimit    int
	MaxUploadBytes          int64
	ShutdownTimeout         time.Duration
}

// Load reads the configuration from the environment, a .env file when present, and defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "campus")
	v.SetDefault("POSTGRES_CONN_STR", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")
	v.SetDefault("ROLLBAR_TOKEN", "")
	v.SetDefault("NOTICE_STORE", StoreMongo)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("REVISION_HISTORY_LIMIT", 20)
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                    v.GetString("PORT"),
		Env:                     v.GetString("ENV"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		PostgresConnStr:         v.GetString("POSTGRES_CONN_STR"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		FirebaseStorageBucket:   v.GetString("FIREBASE_STORAGE_BUCKET"),
		RollbarToken:            v.GetString("ROLLBAR_TOKEN"),
		NoticeStore:             strings.ToLower(v.GetString("NOTICE_STORE")),
		CORSAllowOrigins:        splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		RevisionHistoryLimit:    v.GetInt("REVISION_HISTORY_LIMIT"),
		MaxUploadBytes:          v.GetInt64("MAX_UPLOAD_BYTES"),
		ShutdownTimeout:         v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need to connect.
func (c *Config) Validate() error {
	switch c.NoticeStore {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI environment variable not set")
		}
	case StoreMemory:
	default:
		return errors.Errorf("NOTICE_STORE must be %q or %q, got %q", StoreMongo, StoreMemory, c.NoticeStore)
	}
	if c.PostgresConnStr == "" {
		return errors.New("POSTGRES_CONN_STR environment variable not set")
	}
	if c.JWTSecret == "" && c.FirebaseCredentialsPath == "" {
		return errors.New("either JWT_SECRET or FIREBASE_CREDENTIALS_PATH must be set")
	}
	if c.RevisionHistoryLimit < 1 {
		return errors.New("REVISION_HISTORY_LIMIT must be positive")
	}
	if c.MaxUploadBytes < 1 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
