package config

import (
	"errors"
	"log"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Env          string        `env:"ENV,default=production"`
	Port         string        `env:"PORT,default=8080"`
	StoreBackend string        `env:"STORE_BACKEND,default=mongo"`
	MongoURI     string        `env:"MONGO_URI"`
	DBName       string        `env:"DB_NAME,default=microtask"`
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,default=2h"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	FirebaseProjectID         string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile   string `env:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseCredentialsBase64 string `env:"FIREBASE_CREDENTIALS_BASE64"`
	StorageBucket             string `env:"STORAGE_BUCKET"`
	UploadBackend             string `env:"UPLOAD_BACKEND,default=local"`
	UploadDir                 string `env:"UPLOAD_DIR,default=uploads"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT,default=587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`

	WhishBaseURL    string `env:"WHISH_BASE_URL"`
	WhishChannel    string `env:"WHISH_CHANNEL"`
	WhishSecret     string `env:"WHISH_SECRET"`
	WhishWebsiteURL string `env:"WHISH_WEBSITE_URL"`
	WhishEnv        string `env:"WHISH_ENV,default=sandbox"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL,default=http://localhost:8080"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	LogLevel           string   `env:"LOG_LEVEL,default=info"`
	LogFormat          string   `env:"LOG_FORMAT,default=text"`
}

// IsDevelopment reports whether ENV names a development environment
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Load reads .env (if present) and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}
	if cfg.JWTSecret == "" && !cfg.IsDevelopment() {
		return nil, errors.New("JWT_SECRET is required outside development")
	}
	if (cfg.WhishChannel == "" || cfg.WhishSecret == "") && !cfg.IsDevelopment() {
		return nil, errors.New("WHISH_CHANNEL and WHISH_SECRET are required outside development")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}
	return &cfg, nil
}
