package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// IdentityRepository caches bearer token → user id lookups against the
// identity provider so every request does not cost a round trip.
type IdentityRepository struct {
	cache *cache.Cache
}

func NewIdentityRepository(ttl time.Duration) *IdentityRepository {
	return &IdentityRepository{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *IdentityRepository) Save(token, userID string) {
	r.cache.Set(token, userID, cache.DefaultExpiration)
}

func (r *IdentityRepository) Get(token string) (string, bool) {
	if x, found := r.cache.Get(token); found {
		return x.(string), true
	}
	return "", false
}

func (r *IdentityRepository) Delete(token string) {
	r.cache.Delete(token)
}
