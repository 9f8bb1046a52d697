package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ClientConfig configures the terminal client. It is read from a TOML file
// and then overridden by TODO_* environment variables.
type ClientConfig struct {
	APIOrigin   string              `toml:"api_origin"`
	LocalPort   int                 `toml:"local_port"`
	SessionFile string              `toml:"session_file"`
	LogLevel    string              `toml:"log_level"`
	Cognito     ClientCognitoConfig `toml:"cognito"`
}

type ClientCognitoConfig struct {
	Region          string `toml:"region"`
	AppClientID     string `toml:"app_client_id"`
	AppClientSecret string `toml:"app_client_secret"`
	Endpoint        string `toml:"endpoint"`
}

// DefaultClientConfigPath is ~/.config/todolist/config.toml, or a relative
// path when the home directory is unknown.
func DefaultClientConfigPath() string {
	return filepath.Join(configDir(), "config.toml")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "todolist")
	}
	return filepath.Join(home, ".config", "todolist")
}

func defaultClientConfig() ClientConfig {
	return ClientConfig{
		APIOrigin:   "http://localhost:3001",
		LocalPort:   3001,
		SessionFile: filepath.Join(configDir(), "session.toml"),
		LogLevel:    "warn",
		Cognito:     ClientCognitoConfig{Region: "ap-northeast-1"},
	}
}

// LoadClient reads path over the defaults. A missing file is not an error.
func LoadClient(path string) (ClientConfig, error) {
	cfg := defaultClientConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ClientConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := clientEnvOverrides(&cfg); err != nil {
		return ClientConfig{}, err
	}
	cfg.SessionFile = expandHome(cfg.SessionFile)
	return cfg, nil
}

func clientEnvOverrides(cfg *ClientConfig) error {
	if v := os.Getenv("TODO_API_ORIGIN"); v != "" {
		cfg.APIOrigin = v
	}
	if v := os.Getenv("TODO_LOCAL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TODO_LOCAL_PORT %q: %w", v, err)
		}
		cfg.LocalPort = port
	}
	if v := os.Getenv("TODO_SESSION_FILE"); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv("TODO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TODO_COGNITO_REGION"); v != "" {
		cfg.Cognito.Region = v
	}
	if v := os.Getenv("TODO_COGNITO_APP_CLIENT_ID"); v != "" {
		cfg.Cognito.AppClientID = v
	}
	if v := os.Getenv("TODO_COGNITO_APP_CLIENT_SECRET"); v != "" {
		cfg.Cognito.AppClientSecret = v
	}
	if v := os.Getenv("TODO_COGNITO_ENDPOINT"); v != "" {
		cfg.Cognito.Endpoint = v
	}
	return nil
}

// Validate reports settings the client cannot run without.
func (c ClientConfig) Validate() error {
	if c.Cognito.AppClientID == "" {
		return errors.New("cognito.app_client_id is not set (config file or TODO_COGNITO_APP_CLIENT_ID)")
	}
	if c.SessionFile == "" {
		return errors.New("session_file is not set")
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
}
