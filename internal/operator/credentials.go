// Package operator authenticates the enrollment operator. There is a
// single operator account configured through the environment; its
// password is stored only as a bcrypt hash.
package operator

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/licenseguard/licenseguard-backend/pkg/config"
	"github.com/licenseguard/licenseguard-backend/pkg/errors"
)

// Credentials verifies operator login attempts against the configured hash
type Credentials struct {
	username     string
	passwordHash string
}

// NewCredentials creates a credentials verifier from config
func NewCredentials(cfg *config.OperatorConfig) *Credentials {
	return &Credentials{
		username:     cfg.Username,
		passwordHash: cfg.PasswordHash,
	}
}

// HashPassword produces a bcrypt hash suitable for OperatorConfig.PasswordHash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify checks a username and password pair. An empty configured hash
// means no operator account exists yet, so every attempt fails.
func (c *Credentials) Verify(username, password string) error {
	if c.passwordHash == "" {
		return errors.InvalidCredentials()
	}
	if username != c.username {
		return errors.InvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.passwordHash), []byte(password)); err != nil {
		return errors.InvalidCredentials()
	}
	return nil
}
