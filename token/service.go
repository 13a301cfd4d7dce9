package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

var (
	// ErrExpired reports a token whose signature is valid but whose expiry
	// has passed.
	ErrExpired = errors.New("token expired")
	// ErrInvalid reports a token with a bad signature, wrong structure, or
	// wrong type.
	ErrInvalid = errors.New("token invalid")
)

// Config controls signing and lifetimes. PrivateKey/PublicKey hold either a
// raw HS256 secret or ed25519 key material (raw or PEM), matching
// SigningMethod ("hs256" or "ed25519").
type Config struct {
	SigningMethod        string
	PrivateKey           []byte
	PublicKey            []byte
	Issuer               string
	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	RememberedRefreshTTL time.Duration
	Leeway               time.Duration
}

// Claims is the claim set shared by both token types. PrincipalID rides in
// the registered subject; SessionID is present on session-bound pairs and
// absent on legacy single-slot pairs.
type Claims struct {
	SessionID  string `json:"sid,omitempty"`
	RememberMe bool   `json:"rm,omitempty"`
	TokenType  string `json:"typ"`
	jwt.RegisteredClaims
}

// PrincipalID returns the subject claim.
func (c *Claims) PrincipalID() string { return c.Subject }

// Pair is one issued credential pair with the computed expiry timestamps.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// IssueOptions selects the refresh lifetime and binds the pair to a session.
// An empty SessionID produces a legacy (single-slot) pair.
type IssueOptions struct {
	RememberMe bool
	SessionID  string
}

// Service signs and verifies credential pairs. Immutable after NewService;
// safe for concurrent use.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService validates the config and key material.
func NewService(cfg Config) (*Service, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.RememberedRefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	switch cfg.SigningMethod {
	case "hs256":
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires a private key")
		}
	case "ed25519":
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	return &Service{cfg: cfg, now: time.Now}, nil
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// Issue signs a fresh credential pair. The refresh lifetime is 30 days when
// opts.RememberMe is set, 1 day otherwise (per config). Each token carries
// a unique jti, so rotation never reproduces a prior token byte-for-byte.
func (s *Service) Issue(principalID string, opts IssueOptions) (Pair, error) {
	if principalID == "" {
		return Pair{}, errors.New("principal id required")
	}
	now := s.now()
	refreshTTL := s.cfg.RefreshTTL
	if opts.RememberMe {
		refreshTTL = s.cfg.RememberedRefreshTTL
	}
	accessExp := now.Add(s.cfg.AccessTTL)
	refreshExp := now.Add(refreshTTL)

	access, err := s.sign(Claims{
		SessionID: opts.SessionID,
		TokenType: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			Issuer:    s.cfg.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(Claims{
		SessionID:  opts.SessionID,
		RememberMe: opts.RememberMe,
		TokenType:  typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			Issuer:    s.cfg.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	})
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyRefresh parses and verifies a refresh token. ErrExpired when the
// signature is good but the expiry passed; ErrInvalid for everything else,
// including access tokens presented as refresh tokens.
func (s *Service) VerifyRefresh(tokenStr string) (*Claims, error) {
	return s.verify(tokenStr, typeRefresh)
}

// VerifyAccess parses and verifies an access token.
func (s *Service) VerifyAccess(tokenStr string) (*Claims, error) {
	return s.verify(tokenStr, typeAccess)
}

// ExpiryOf returns the expiry timestamp embedded in the token without
// verifying the signature. Pure inspection, no side effects.
func (s *Service) ExpiryOf(tokenStr string) (time.Time, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return time.Time{}, ErrInvalid
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrInvalid
	}
	return claims.ExpiresAt.Time, nil
}

func (s *Service) verify(tokenStr, wantType string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(s.cfg.Leeway))
	}
	if s.cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.cfg.Issuer))
	}
	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.verifyKey()
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.TokenType != wantType || claims.Subject == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}

func (s *Service) sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(s.method(), claims)
	key, err := s.signKey()
	if err != nil {
		return "", err
	}
	return tok.SignedString(key)
}

func (s *Service) method() jwt.SigningMethod {
	if s.cfg.SigningMethod == "hs256" {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (s *Service) signKey() (interface{}, error) {
	if s.cfg.SigningMethod == "hs256" {
		return s.cfg.PrivateKey, nil
	}
	return parseEdPrivateKey(s.cfg.PrivateKey)
}

func (s *Service) verifyKey() (interface{}, error) {
	if s.cfg.SigningMethod == "hs256" {
		return s.cfg.PrivateKey, nil
	}
	return parseEdPublicKey(s.cfg.PublicKey)
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
