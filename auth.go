package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"cardprice/pkg/config"
)

const tokenTTL = 24 * time.Hour

var (
	jwtSecret    []byte // JWT_SECRET, dev fallback when unset
	passwordHash []byte // bcrypt hash of the shared upload password
)

var errInvalidCredentials = errors.New("invalid credentials")

// initAuth prepares the shared-secret gate. APP_PASSWORD_HASH wins over
// APP_PASSWORD; with neither set every login is rejected.
func initAuth(cfg *config.Config) error {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	switch {
	case cfg.AppPasswordHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.AppPasswordHash)); err != nil {
			return fmt.Errorf("APP_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
		passwordHash = []byte(cfg.AppPasswordHash)
	case cfg.AppPassword != "":
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.AppPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		passwordHash = h
	default:
		passwordHash = nil
	}
	return nil
}

func checkPassword(password string) error {
	if len(passwordHash) == 0 || password == "" {
		return errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(passwordHash, []byte(password)); err != nil {
		return errInvalidCredentials
	}
	return nil
}

func issueToken(subject string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret)
}
