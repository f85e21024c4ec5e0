package usecase

import (
	"time"

	"github.com/user/catalog-service/internal/entity"
)

// Per-kind TTLs. Data younger than its TTL is never refetched; this is the
// mechanism that caps load on the upstream site.
var freshnessTTL = map[entity.TargetKind]time.Duration{
	entity.KindNavigation: 7 * 24 * time.Hour,
	entity.KindCategory:   3 * 24 * time.Hour,
	entity.KindProduct:    24 * time.Hour,
}

// TTLFor returns the freshness window for an entity kind.
func TTLFor(kind entity.TargetKind) time.Duration {
	return freshnessTTL[kind]
}

// IsFresh reports whether data of the given kind, last refreshed at
// lastScraped, is still within its TTL. A nil timestamp means the entity has
// never been scraped and is always stale.
func IsFresh(kind entity.TargetKind, lastScraped *time.Time, now time.Time) bool {
	if lastScraped == nil {
		return false
	}
	ttl, ok := freshnessTTL[kind]
	if !ok {
		return false
	}
	return now.Sub(*lastScraped) < ttl
}
