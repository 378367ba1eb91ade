package services

import (
	"context"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

type AuthService struct {
	repo ports.LinkRepository
}

func NewAuthService(repo ports.LinkRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Authenticate compares the digest of apiKey with the stored one. The settings
// row is read on every call. Store failures are returned as they are, so the
// caller can tell them apart from domain.ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, apiKey string) error {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return err
	}

	provided := HashAPIKey(apiKey)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(settings.EncryptedGlobalAPIKey)) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}

// HashAPIKey returns the lowercase hex SHA3-256 digest of key.
func HashAPIKey(key string) string {
	sum := sha3.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

var _ ports.AuthService = (*AuthService)(nil)
