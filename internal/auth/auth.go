// Package auth handles bearer tokens and password hashes.
//
// Clients only ever decode tokens without verifying them, to show who is
// logged in and to notice an expired session early. Issuing and verifying
// tokens, and hashing passwords, is what the fake backend needs.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL matches the lifetime the backend gives its tokens (3 days).
const TokenTTL = 72 * time.Hour

// ErrInvalidToken is returned when a token cannot be parsed or verified.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the claims carried by backend-issued tokens.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is what a client can learn from a token without the signing key.
type Identity struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

// DecodeUnverified extracts the display identity from a JWT without checking
// its signature. The user id may arrive as user_id, userId or sub, as a number
// or a string.
func DecodeUnverified(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var id Identity
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	for _, key := range []string{"user_id", "userId", "sub"} {
		switch v := claims[key].(type) {
		case float64:
			id.UserID = int64(v)
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				id.UserID = n
			}
		}
		if id.UserID != 0 {
			break
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// IssueToken signs an HS256 token for the given user.
func IssueToken(secret []byte, userID int64, email string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyToken checks the signature and expiry of a token and returns its claims.
func VerifyToken(secret []byte, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword reports whether password matches hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
