package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/synergysphere/backend/domain"
)

// Claims is the verified content of a session token.
type Claims struct {
	SubjectID string
	Email     string
}

// Service issues and verifies signed session tokens. It holds no state
// beyond configuration; uniqueness of opaque tokens is the consuming
// store's concern.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// New constructs a token service. ttl defaults to seven days.
func New(secret, issuer string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue produces a signed bearer token embedding the subject id and email.
func (s *Service) Issue(userID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iss":   s.issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token. Signature mismatch,
// malformed structure and expiry all collapse into ErrInvalidToken.
func (s *Service) Verify(tokenString string) (Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, domain.ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, domain.ErrInvalidToken
	}
	sub, _ := mapClaims["sub"].(string)
	email, _ := mapClaims["email"].(string)
	if sub == "" {
		return Claims{}, domain.ErrInvalidToken
	}

	return Claims{SubjectID: sub, Email: email}, nil
}

// TTL exposes the configured validity window.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Opaque returns a cryptographically random one-time token (256 bits,
// hex-encoded) for confirmation, reset and invitation flows.
func Opaque() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read only fails when the OS entropy source is broken;
		// there is no meaningful recovery.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
