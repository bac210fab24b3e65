package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used for new admin token hashes.
const DefaultCost = 12

var (
	ErrInvalidToken  = errors.New("invalid admin token")
	ErrTokenTooShort = errors.New("admin token must be at least 16 characters")
	ErrTokenTooLong  = errors.New("admin token exceeds maximum length of 72 bytes")
)

// MinTokenLength is the shortest admin token HashToken accepts.
const MinTokenLength = 16

// HashToken creates a bcrypt hash of an admin token for ADMIN_TOKEN_HASH.
func HashToken(token string, cost int) (string, error) {
	if len(token) < MinTokenLength {
		return "", ErrTokenTooShort
	}
	// bcrypt has a 72-byte limit
	if len(token) > 72 {
		return "", ErrTokenTooLong
	}
	if cost == 0 {
		cost = DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckToken compares a presented token with its hash.
func CheckToken(token, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

// GenerateToken creates a random admin token.
func GenerateToken() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
