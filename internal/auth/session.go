// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminSubject is the "sub" claim of operator tokens.
const AdminSubject = "admin"

const issuer = "uno-server"

// privateKey and publicKey are used for signing and verifying JWT tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long a token stays valid; zero means tokens never expire.
	tokenTTL time.Duration
)

// ErrNotInitialized is returned when tokens are used before Init.
var ErrNotInitialized = errors.New("auth keys not initialized")

// ParseTokenExpireTime interprets TOKEN_EXPIRE_TIME: "", "0" and "never" disable expiry,
// anything else is a Go duration such as "72h".
func ParseTokenExpireTime(raw string) (time.Duration, error) {
	if raw == "" || raw == "0" || raw == "never" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token expire time %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("token expire time must not be negative: %s", raw)
	}
	return d, nil
}

// Init generates a fresh ed25519 key pair at runtime and sets the token lifetime from
// TOKEN_EXPIRE_TIME. Tokens do not survive a restart.
func Init() error {
	ttl, err := ParseTokenExpireTime(os.Getenv("TOKEN_EXPIRE_TIME"))
	if err != nil {
		return err
	}
	return InitWithTTL(ttl)
}

// InitWithTTL generates a key pair and uses ttl as the token lifetime.
func InitWithTTL(ttl time.Duration) error {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	publicKey, privateKey, tokenTTL = pub, priv, ttl
	return nil
}

// CreateJWT creates a signed EdDSA token with "sub" = subject.
func CreateJWT(subject string) (string, error) {
	if privateKey == nil {
		return "", ErrNotInitialized
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		Issuer:   issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if tokenTTL != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a JWT string and returns its "sub" claim.
func AuthenticateJWT(tokenString string) (string, error) {
	if publicKey == nil {
		return "", ErrNotInitialized
	}
	var claims jwt.RegisteredClaims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return claims.Subject, nil
}
