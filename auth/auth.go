// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPatternMismatch  = errors.New("pattern does not match")
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrInvalidGateToken = errors.New("invalid gate token")
)

// MinPatternLength is the fewest cells an unlock pattern may use.
const MinPatternLength = 4

// GateClaims are carried by the gate cookie.
type GateClaims struct {
	jwt.RegisteredClaims
}

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// PatternString validates a pattern-lock sequence and renders it as "1-2-3-6".
// Cells are numbered 1-9 left to right, top to bottom, and may not repeat.
func PatternString(pattern []int) (string, error) {
	if len(pattern) < MinPatternLength || len(pattern) > 9 {
		return "", fmt.Errorf("%w: need %d-9 cells", ErrInvalidPattern, MinPatternLength)
	}

	seen := make(map[int]bool, len(pattern))
	parts := make([]string, len(pattern))
	for i, cell := range pattern {
		if cell < 1 || cell > 9 {
			return "", fmt.Errorf("%w: cell %d out of range", ErrInvalidPattern, cell)
		}
		if seen[cell] {
			return "", fmt.Errorf("%w: cell %d repeated", ErrInvalidPattern, cell)
		}
		seen[cell] = true
		parts[i] = strconv.Itoa(cell)
	}
	return strings.Join(parts, "-"), nil
}

// HashPattern returns the bcrypt hash stored in configuration.
func HashPattern(pattern []int, cost int) (string, error) {
	s, err := PatternString(pattern)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pattern: %w", err)
	}
	return string(hash), nil
}

// CheckPattern compares a submitted pattern against the configured hash.
func CheckPattern(hash string, pattern []int) error {
	s, err := PatternString(pattern)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(s)); err != nil {
		return ErrPatternMismatch
	}
	return nil
}

// IssueGateToken signs a token proving the pattern lock was opened.
func IssueGateToken(secret string, ttl time.Duration) (string, error) {
	id, err := GenerateID(12)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := GateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   "household",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseGateToken validates a gate token.
func ParseGateToken(secret, tokenStr string) (*GateClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &GateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGateToken, err)
	}

	claims, ok := parsed.Claims.(*GateClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidGateToken
	}
	return claims, nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
