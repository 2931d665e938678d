package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":8080"`
	Env           string `env:"APP_ENV" envDefault:"development"`
	// PublicBaseURL prefixes links handed to clients (uploads, downloads).
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// memory | firestore | mongo
	DocumentStore string `env:"DOCUMENT_STORE" envDefault:"memory"`
	// local | firebase | minio
	BlobStore string `env:"BLOB_STORE" envDefault:"local"`
	// local | firebase
	AuthProvider string `env:"AUTH_PROVIDER" envDefault:"local"`

	DataDir         string `env:"DATA_DIR" envDefault:"./data"`
	UploadDir       string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxUploadSizeMB int64  `env:"MAX_UPLOAD_SIZE_MB" envDefault:"5"`

	JWTSecret     string        `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`

	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsJSON string `env:"FIREBASE_CREDENTIALS_JSON"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseStorageBucket   string `env:"FIREBASE_STORAGE_BUCKET"`

	MongoURI string `env:"MONGO_URI"`
	MongoDB  string `env:"MONGO_DB" envDefault:"cvbuilder"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"cv-images"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL"`
	MinioPublicURL string `env:"MINIO_PUBLIC_URL"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB << 20
}

func (c *Config) validate() error {
	switch c.DocumentStore {
	case "memory", "firestore":
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("config: MONGO_URI is required for the mongo document store")
		}
	default:
		return fmt.Errorf("config: unknown DOCUMENT_STORE %q", c.DocumentStore)
	}

	switch c.BlobStore {
	case "local", "firebase":
	case "minio":
		if c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			return fmt.Errorf("config: MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio blob store")
		}
	default:
		return fmt.Errorf("config: unknown BLOB_STORE %q", c.BlobStore)
	}

	switch c.AuthProvider {
	case "local":
		if c.IsProduction() && c.JWTSecret == "your-secret-key-change-in-production" {
			return fmt.Errorf("config: JWT_SECRET must be set in production")
		}
	case "firebase":
	default:
		return fmt.Errorf("config: unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_SIZE_MB must be positive")
	}
	return nil
}

// UsesFirebase reports whether any component needs the Firebase app.
func (c *Config) UsesFirebase() bool {
	return c.DocumentStore == "firestore" || c.BlobStore == "firebase" || c.AuthProvider == "firebase"
}
