package credentials

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

const (
	// EnvVar is the environment variable consulted last
	EnvVar = "CLAUDE_API_KEY"
	// DefaultKeyFile is the plain-text secret file
	DefaultKeyFile = "api.txt"

	keyringService = "modforge"
	keyringUser    = "anthropic"
)

// ErrNoCredential is returned when no source yields an API key
var ErrNoCredential = errors.New("API key not configured")

// Source identifies where a key was found
type Source string

const (
	SourceConfig  Source = "config"
	SourceFile    Source = "file"
	SourceKeyring Source = "keyring"
	SourceEnv     Source = "env"
)

// Resolver looks up the API key from, in order, the configured value, the
// secret file, the OS keyring and the environment (after loading .env).
type Resolver struct {
	KeyFile string
	EnvFile string
	// UseKeyring enables the keyring lookup
	UseKeyring bool
	Logger     *slog.Logger
}

// Resolve returns the first key found. configured is the value already held
// by the project document.
func (r Resolver) Resolve(configured string) (string, Source, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if key := strings.TrimSpace(configured); key != "" {
		return key, SourceConfig, nil
	}

	if key, err := ReadKeyFile(r.keyFile()); err == nil && key != "" {
		logger.Info("API key loaded from file", "path", r.keyFile(), "key", Mask(key))
		return key, SourceFile, nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to read key file", "path", r.keyFile(), "error", err)
	}

	if r.UseKeyring {
		if key, err := keyring.Get(keyringService, keyringUser); err == nil && key != "" {
			logger.Info("API key loaded from keyring", "key", Mask(key))
			return key, SourceKeyring, nil
		} else if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("keyring lookup failed", "error", err)
		}
	}

	envFile := r.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug("failed to load env file", "path", envFile, "error", err)
	}
	if key := strings.TrimSpace(os.Getenv(EnvVar)); key != "" {
		logger.Info("API key loaded from environment", "key", Mask(key))
		return key, SourceEnv, nil
	}

	return "", "", ErrNoCredential
}

func (r Resolver) keyFile() string {
	if r.KeyFile == "" {
		return DefaultKeyFile
	}
	return r.KeyFile
}

// ReadKeyFile returns the trimmed contents of path
func ReadKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// StoreInKeyring saves key in the OS keyring
func StoreInKeyring(key string) error {
	if key == "" {
		return errors.New("API key is empty")
	}
	if err := keyring.Set(keyringService, keyringUser, key); err != nil {
		return fmt.Errorf("failed to store key in keyring: %w", err)
	}
	return nil
}

// DeleteFromKeyring removes the stored key. A missing entry is not an error.
func DeleteFromKeyring() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete key from keyring: %w", err)
	}
	return nil
}

// Mask shows the first 10 and last 5 characters of keys longer than 15
func Mask(key string) string {
	if len(key) <= 15 {
		return "(too short)"
	}
	return key[:10] + "..." + key[len(key)-5:]
}
