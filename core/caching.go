package core

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
)

// currentCacheVersion defines the version of the rating cache entries
const currentCacheVersion = 1

// ratingTTL bounds how long a cached rating is trusted.
const ratingTTL = 90 * 24 * time.Hour

// checkRatingCache returns a cached rating when it is present, current and fresh.
func checkRatingCache(store contract.CacheStore, key string) (int, bool) {
	if store == nil {
		return 0, false
	}
	data, version, ts, err := store.Get(key)
	if err != nil {
		return 0, false // Cache miss
	}

	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > ratingTTL {
		return 0, false // Stale or version mismatch
	}
	rating, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, false
	}
	return clampAI(rating), true
}

// storeRating writes a rating to the cache, ignoring cache failures.
func storeRating(store contract.CacheStore, key string, rating int) {
	if store == nil {
		return
	}
	if err := store.Set(key, []byte(strconv.Itoa(rating)), currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Failed to cache rating", err)
	}
}

// ratingCacheKey keys a rating by model and commit so switching models re-rates.
func ratingCacheKey(model, hash string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(model+":"+hash)))
}
