package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer   = "hfrat"
	defaultTokenTTL = 24 * time.Hour
)

// Claims is the JWT payload carried by every issued token.
type Claims struct {
	Role       string `json:"role"`
	FacilityID string `json:"facility_id,omitempty"`
	jwt.RegisteredClaims
}

// Service issues, verifies and revokes signed bearer tokens.
// It is stateless apart from the revocation store.
type Service struct {
	secret []byte
	store  RevocationStore
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		if strings.TrimSpace(issuer) == "" {
			return errors.New("auth: issuer must not be empty")
		}
		s.issuer = strings.TrimSpace(issuer)
		return nil
	}
}

// WithTokenTTL configures token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl <= 0 {
			return errors.New("auth: ttl must be greater than zero")
		}
		s.ttl = ttl
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs a token service signing with the given HS256 secret.
// The secret is held in memory only and must never be logged.
func NewService(secret []byte, store RevocationStore, opts ...ServiceOption) (*Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	if store == nil {
		return nil, errors.New("auth: revocation store is required")
	}
	svc := &Service{
		secret: secret,
		store:  store,
		issuer: defaultIssuer,
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// TTL reports the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs a token for the principal with a fresh token identifier.
// Expiry is issue time plus the configured TTL.
func (s *Service) Issue(p Principal) (string, time.Time, error) {
	if err := p.Validate(); err != nil {
		return "", time.Time{}, err
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		Role:       string(p.Role),
		FacilityID: p.FacilityID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify is the single verification gate for protected requests. Failure
// order: malformed (parse/signature/claim shape), expired, revoked.
func (s *Service) Verify(ctx context.Context, token string) (Principal, error) {
	claims, err := s.parse(token)
	if err != nil {
		return Principal{}, err
	}
	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Principal{}, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return Principal{}, ErrRevoked
	}
	principal := Principal{
		UserID:     claims.Subject,
		Role:       Role(claims.Role),
		FacilityID: claims.FacilityID,
	}
	if err := principal.Validate(); err != nil {
		return Principal{}, ErrMalformedToken
	}
	return principal, nil
}

// Revoke puts the token's identifier on the blocklist until its natural
// expiry. Revoking twice is not an error; revoking an already expired token
// is a no-op since Verify rejects it regardless.
func (s *Service) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if errors.Is(err, ErrExpired) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.store.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *Service) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformedToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{},
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrMalformedToken
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// Claims are still populated for expired-but-authentic tokens.
			if claims, ok := expiredClaims(parsed); ok {
				return claims, ErrExpired
			}
			return nil, ErrExpired
		}
		return nil, ErrMalformedToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.ID) == "" {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

func expiredClaims(parsed *jwt.Token) (*Claims, bool) {
	if parsed == nil {
		return nil, false
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, false
	}
	return claims, true
}
