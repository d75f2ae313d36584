package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenRepository keeps revoked token ids until they would have expired anyway.
type TokenRepository struct {
	cache *cache.Cache
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{
		cache: cache.New(24*time.Hour, 10*time.Minute),
	}
}

func (r *TokenRepository) Revoke(tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	r.cache.Set(tokenID, struct{}{}, ttl)
}

func (r *TokenRepository) IsRevoked(tokenID string) bool {
	_, found := r.cache.Get(tokenID)
	return found
}
