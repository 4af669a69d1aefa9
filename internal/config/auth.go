package config

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds the admin credentials and the settings for signing admin tokens.
type AuthConfig struct {
	JWTSecret         string
	ExpirationHours   int
	AdminUsername     string
	AdminPasswordHash string // bcrypt hash, see the hash-password command
	BcryptCost        int
	Pepper            string // optional global secret appended before hashing
}

// NewAuthConfig creates the admin auth configuration from environment variables.
// It reads JWT_SECRET (required), JWT_EXPIRATION_HOURS (default: 24), ADMIN_USERNAME
// (default: admin), ADMIN_PASSWORD_HASH, BCRYPT_COST (default: 12) and PASSWORD_PEPPER.
func NewAuthConfig() (*AuthConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationHours, err := strconv.Atoi(getEnvString("JWT_EXPIRATION_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
	}

	cost, err := strconv.Atoi(getEnvString("BCRYPT_COST", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %v", err)
	}

	cfg := &AuthConfig{
		JWTSecret:         secret,
		ExpirationHours:   expirationHours,
		AdminUsername:     getEnvString("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		BcryptCost:        cost,
		Pepper:            os.Getenv("PASSWORD_PEPPER"),
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalize validates the configuration.
func (c *AuthConfig) normalize() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	return nil
}

// AdminEnabled reports whether an admin password has been configured.
func (c *AuthConfig) AdminEnabled() bool {
	return c.AdminPasswordHash != ""
}

// HashPassword hashes a password using bcrypt (with optional pepper).
func (c *AuthConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(c.pepper(pw)), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash (with optional pepper).
func (c *AuthConfig) VerifyPassword(pw, storedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(c.pepper(pw)))
	return err == nil
}

// VerifyAdmin checks admin credentials against the configured username and hash.
func (c *AuthConfig) VerifyAdmin(username, password string) bool {
	if !c.AdminEnabled() || username != c.AdminUsername {
		return false
	}
	return c.VerifyPassword(password, c.AdminPasswordHash)
}

func (c *AuthConfig) pepper(pw string) string {
	if c.Pepper != "" {
		return pw + c.Pepper
	}
	return pw
}
