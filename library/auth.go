package library

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks an operator login against the configured credential.
type Authenticator struct {
	username     string
	passwordHash []byte
}

// NewAuthenticator builds a gate from a username and either a bcrypt hash or
// a plain password. The hash wins when both are given.
func NewAuthenticator(username, password, passwordHash string) (*Authenticator, error) {
	if username == "" {
		return nil, errors.New("admin username is not configured")
	}
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
		return &Authenticator{username: username, passwordHash: []byte(passwordHash)}, nil
	}
	if password == "" {
		return nil, errors.New("admin password is not configured")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &Authenticator{username: username, passwordHash: []byte(hash)}, nil
}

// HashPassword returns the bcrypt hash stored in configuration files.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticate returns ErrInvalidCredentials unless both values match.
func (a *Authenticator) Authenticate(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Username is the expected operator name.
func (a *Authenticator) Username() string { return a.username }
