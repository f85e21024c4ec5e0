package repository

import (
	"context"

	"github.com/user/catalog-service/internal/entity"
)

// PageFetcher is the contract for the page-fetch-and-extract engine. Given a
// URL and the kind of page expected there, it returns the kind-appropriate
// raw records. Implementations must honor the caller-supplied context and
// report timeouts as ErrFetchTimeout.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, kind entity.TargetKind) (*entity.RawRecords, error)
}
