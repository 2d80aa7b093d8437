package services

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/amts/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// developerTokenTTL is Apple's maximum developer token lifetime (180 days).
const developerTokenTTL = 180 * 24 * time.Hour

// tokenRefreshMargin forces regeneration an hour before expiry.
const tokenRefreshMargin = time.Hour

// DeveloperTokenSource generates and caches Apple Music developer tokens.
//
// Tokens are ES256-signed JWTs built from the developer team id, key id, and
// the .p8 private key. The key is loaded from the APPLE_PRIVATE_KEY
// environment variable when set, otherwise from the configured file path.
type DeveloperTokenSource struct {
	teamID  string
	keyID   string
	keyPath string

	mu         sync.Mutex
	privateKey *ecdsa.PrivateKey
	cached     string
	expiry     time.Time
}

// NewDeveloperTokenSource creates a token source from developer credentials.
func NewDeveloperTokenSource(teamID, keyID, keyPath string) (*DeveloperTokenSource, error) {
	if teamID == "" || keyID == "" {
		return nil, fmt.Errorf("%w: team id and key id are required", shared.ErrMissingCredentials)
	}

	return &DeveloperTokenSource{
		teamID:  teamID,
		keyID:   keyID,
		keyPath: keyPath,
	}, nil
}

// Token returns a valid developer token, generating a new one if the cached
// token is missing or within the refresh margin of expiry.
func (s *DeveloperTokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" && time.Now().Before(s.expiry) {
		return s.cached, nil
	}

	key, err := s.loadPrivateKey()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": s.teamID,
		"iat": now.Unix(),
		"exp": now.Add(developerTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign developer token: %w", err)
	}

	s.cached = signed
	s.expiry = now.Add(developerTokenTTL - tokenRefreshMargin)
	return signed, nil
}

// Refresh discards the cached token and generates a fresh one.
func (s *DeveloperTokenSource) Refresh() (string, error) {
	s.mu.Lock()
	s.cached = ""
	s.expiry = time.Time{}
	s.mu.Unlock()
	return s.Token()
}

// Valid reports whether a cached token exists and is outside the refresh margin.
func (s *DeveloperTokenSource) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached != "" && time.Now().Before(s.expiry)
}

// loadPrivateKey parses the ES256 key, preferring the APPLE_PRIVATE_KEY
// environment variable over the configured file path. Escaped newlines from
// .env files are unescaped before parsing. Caller holds the mutex.
func (s *DeveloperTokenSource) loadPrivateKey() (*ecdsa.PrivateKey, error) {
	if s.privateKey != nil {
		return s.privateKey, nil
	}

	var pemData []byte
	if env := os.Getenv("APPLE_PRIVATE_KEY"); env != "" {
		pemData = []byte(strings.ReplaceAll(env, `\n`, "\n"))
	} else if s.keyPath != "" {
		data, err := os.ReadFile(s.keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file: %w", err)
		}
		pemData = data
	} else {
		return nil, fmt.Errorf("%w: set APPLE_PRIVATE_KEY or configure private_key_path", shared.ErrMissingCredentials)
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(pemData)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse ES256 private key: %v", shared.ErrInvalidCredentials, err)
	}

	s.privateKey = key
	return key, nil
}
