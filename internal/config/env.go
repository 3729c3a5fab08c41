// internal/config/env.go
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Credential environment variable names.
const (
	EnvTeleseroUsername = "TELESERO_USERNAME"
	EnvTeleseroPassword = "TELESERO_PASSWORD"
	EnvZoomEmail        = "ZOOM_EMAIL"
	EnvZoomPassword     = "ZOOM_PASSWORD"
)

// Credentials is a username/password pair resolved from the environment.
type Credentials struct {
	Username string
	Password string
}

// LoadDotEnv loads a .env file if one exists next to the working directory.
// A missing file is not an error; explicit environment variables win.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// TeleseroCredentials resolves portal credentials for a server. The portal
// expects domain-qualified usernames (IB6\user), so the server prefix is
// applied here. Per-server env overrides take precedence over the shared
// TELESERO_* variables.
func TeleseroCredentials(serverID string, sc *ServerConfig) (Credentials, error) {
	userEnv := EnvTeleseroUsername
	passEnv := EnvTeleseroPassword
	if sc != nil && sc.UsernameEnv != "" {
		userEnv = sc.UsernameEnv
	}
	if sc != nil && sc.PasswordEnv != "" {
		passEnv = sc.PasswordEnv
	}

	user := os.Getenv(userEnv)
	pass := os.Getenv(passEnv)
	if user == "" || pass == "" {
		return Credentials{}, fmt.Errorf("missing required environment variables: %s, %s", userEnv, passEnv)
	}

	return Credentials{
		Username: ServerLoginPrefix(serverID) + `\` + user,
		Password: pass,
	}, nil
}

// ZoomCredentials resolves the Zoom account credentials.
func ZoomCredentials() (Credentials, error) {
	email := os.Getenv(EnvZoomEmail)
	pass := os.Getenv(EnvZoomPassword)
	if email == "" || pass == "" {
		return Credentials{}, fmt.Errorf("missing required environment variables: %s, %s", EnvZoomEmail, EnvZoomPassword)
	}
	return Credentials{Username: email, Password: pass}, nil
}
