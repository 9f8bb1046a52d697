package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

const (
	VerifyRemote = "remote"
	VerifyJWKS   = "jwks"
)

type Config struct {
	ServerPort        string
	AppEnv            string
	LogLevel          string
	AuthVerifyMode    string
	CORSAllowedOrigin string
	StaticDir         string
	DB                DBConfig
	Cognito           CognitoConfig
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate rejects settings the process cannot start with. Missing identity
// credentials are not an error here; see MissingCredentials.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if c.AuthVerifyMode != VerifyRemote && c.AuthVerifyMode != VerifyJWKS {
		return fmt.Errorf("invalid AUTH_VERIFY_MODE %q: must be remote or jwks", c.AuthVerifyMode)
	}
	return nil
}

// MissingCredentials lists the identity settings that are required but unset.
// A non-empty result puts the API into its misconfigured mode.
func (c Config) MissingCredentials() []string {
	var missing []string
	if c.Cognito.UserPoolID == "" {
		missing = append(missing, "COGNITO_USER_POOL_ID")
	}
	if c.AuthVerifyMode == VerifyJWKS && c.Cognito.AppClientID == "" {
		missing = append(missing, "COGNITO_APP_CLIENT_ID")
	}
	return missing
}

// ServeStatic reports whether the process serves the frontend assets itself.
func (c Config) ServeStatic() bool {
	return c.AppEnv != "prod" && c.StaticDir != ""
}

type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type CognitoConfig struct {
	Region               string
	UserPoolID           string
	AppClientID          string
	AppClientSecret      string
	Endpoint             string
	AdminAccessKeyID     string
	AdminSecretAccessKey string
}

func Load() Config {
	return Config{
		ServerPort:        firstNonEmpty(os.Getenv("SERVER_PORT"), os.Getenv("PORT"), "3001"),
		AppEnv:            envOrDefault("APP_ENV", "local"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		AuthVerifyMode:    strings.ToLower(envOrDefault("AUTH_VERIFY_MODE", VerifyRemote)),
		CORSAllowedOrigin: envOrDefault("CORS_ALLOWED_ORIGIN", "*"),
		StaticDir:         envOrDefault("STATIC_DIR", "public"),
		DB: DBConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     envOrDefault("DB_PORT", "5432"),
			User:     envOrDefault("DB_USER", "todo"),
			Password: envOrDefault("DB_PASSWORD", "todo"),
			Name:     envOrDefault("DB_NAME", "todo"),
			SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
			Migrate:  !strings.EqualFold(envOrDefault("DB_MIGRATE", "true"), "false"),
		},
		Cognito: CognitoConfig{
			Region:               envOrDefault("COGNITO_REGION", "ap-northeast-1"),
			UserPoolID:           os.Getenv("COGNITO_USER_POOL_ID"),
			AppClientID:          os.Getenv("COGNITO_APP_CLIENT_ID"),
			AppClientSecret:      os.Getenv("COGNITO_APP_CLIENT_SECRET"),
			Endpoint:             os.Getenv("COGNITO_ENDPOINT"),
			AdminAccessKeyID:     os.Getenv("COGNITO_ADMIN_ACCESS_KEY_ID"),
			AdminSecretAccessKey: os.Getenv("COGNITO_ADMIN_SECRET_ACCESS_KEY"),
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
