// Package security issues and validates the bearer tokens that guard the JSON API.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired or signed with another key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWeakSecret is returned when the shared secret is shorter than MinSecretLength.
	ErrWeakSecret = errors.New("token secret too short")
)

// MinSecretLength is the minimum length of the shared secret.
const MinSecretLength = 16

// keyInfo binds derived keys to their purpose.
const keyInfo = "account-console api token v1"

// OperatorClaims are the claims of an operator token. Subject names the operator.
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// TokenProvider issues and validates HS256 operator tokens. The HMAC key is derived from the configured
// secret with HKDF-SHA256, so the raw secret never signs anything.
type TokenProvider struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenProvider returns a TokenProvider for secret. issuer is set on issued tokens and required on
// validation; ttl is the lifetime of issued tokens.
func NewTokenProvider(secret, issuer string, ttl time.Duration) (*TokenProvider, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), []byte(issuer), []byte(keyInfo)), key); err != nil {
		return nil, err
	}
	return &TokenProvider{key: key, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue issues a token for subject. Returns the token and its expiration time.
func (p *TokenProvider) Issue(subject string) (token string, expiresAt time.Time, err error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.now().UTC()
	expiresAt = now.Add(p.ttl)
	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	return token, expiresAt, err
}

// Validate parses and validates the token (signature, exp, iss). Returns the subject.
func (p *TokenProvider) Validate(tokenString string) (subject string, err error) {
	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return p.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
