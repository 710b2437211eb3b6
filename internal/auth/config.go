package auth

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the signing secret, optional token lifetime and hashing parameters.
type Config struct {
	Secret   string
	TokenTTL time.Duration
	Hasher   HasherConfig
}

// ConfigFromEnv reads JWT_SECRET, JWT_TTL, PASSWORD_ALGO, BCRYPT_COST,
// ARGON2_TIME, ARGON2_MEMORY_KIB and ARGON2_THREADS.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Secret: os.Getenv("JWT_SECRET"),
		Hasher: HasherConfig{Algorithm: os.Getenv("PASSWORD_ALGO")},
	}
	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("JWT_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("BCRYPT_COST: %w", err)
		}
		cfg.Hasher.BcryptCost = n
	}
	if v := os.Getenv("ARGON2_TIME"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return cfg, fmt.Errorf("ARGON2_TIME: %w", err)
		}
		cfg.Hasher.Argon2Time = uint32(n)
	}
	if v := os.Getenv("ARGON2_MEMORY_KIB"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return cfg, fmt.Errorf("ARGON2_MEMORY_KIB: %w", err)
		}
		cfg.Hasher.Argon2Memory = uint32(n)
	}
	if v := os.Getenv("ARGON2_THREADS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return cfg, fmt.Errorf("ARGON2_THREADS: %w", err)
		}
		cfg.Hasher.Argon2Threads = uint8(n)
	}
	cfg.Hasher.ApplyDefaults()
	return cfg, cfg.Validate()
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if c.Secret == "" {
		return ErrSecretRequired
	}
	if len(c.Secret) < minSecretLen {
		return ErrSecretTooShort
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("JWT_TTL must not be negative")
	}
	return c.Hasher.Validate()
}
