package enrichment

import (
	"context"

	"github.com/rpattn/stockhist/internal/domain"
)

// CatalogLookup resolves catalog attributes for a batch of part identifiers.
// Identifiers the catalog does not recognize are absent from the result map;
// lookups never fail, they degrade to an empty map.
type CatalogLookup interface {
	PartDetails(ctx context.Context, partIDs []int64) map[int64]domain.Part
}

// IdentityLookup resolves member profiles for a batch of member identifiers
// with the same best-effort semantics as CatalogLookup.
type IdentityLookup interface {
	MembersByID(ctx context.Context, memberIDs []int64) map[int64]domain.MemberProfile
}
