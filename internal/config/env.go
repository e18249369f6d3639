package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/kelsos/rotki-client/internal/logger"
)

// LoadEnvironment loads environment variables from .env files.
// It tries the current directory first and then the directory of the executable;
// variables that are already set are never overwritten.
func LoadEnvironment() []string {
	var loaded []string

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found in current directory or error loading it: %v", err)
	} else {
		loaded = append(loaded, ".env")
	}

	execPath, err := os.Executable()
	if err != nil {
		logger.Debug("Could not determine executable path: %v", err)
		return loaded
	}

	envPath := filepath.Join(filepath.Dir(execPath), ".env")
	if err := godotenv.Load(envPath); err != nil {
		logger.Debug("No .env file found in app directory (%s) or error loading it: %v", filepath.Dir(execPath), err)
	} else {
		loaded = append(loaded, envPath)
	}

	return loaded
}
