package chromedp_fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
)

// ChromedpFetcher fetches pages with a headless browser and extracts the
// kind-appropriate raw records. Every Fetch runs in a fresh, independently
// owned browser context; no session state is shared across concurrent
// executions.
type ChromedpFetcher struct {
	userAgent     string
	courtesyDelay time.Duration
}

// NewChromedpFetcher creates a new fetcher implementation using chromedp.
func NewChromedpFetcher(userAgent string, courtesyDelay time.Duration) repository.PageFetcher {
	return &ChromedpFetcher{
		userAgent:     userAgent,
		courtesyDelay: courtesyDelay,
	}
}

// Fetch navigates to the URL, waits for the page body, captures the rendered
// HTML and extracts raw records for the given kind. The caller-supplied
// context carries the hard per-fetch deadline.
func (f *ChromedpFetcher) Fetch(ctx context.Context, url string, kind entity.TargetKind) (*entity.RawRecords, error) {
	// Courtesy pause before touching the upstream site.
	select {
	case <-time.After(f.courtesyDelay):
	case <-ctx.Done():
		return nil, f.mapErr(ctx.Err())
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var htmlContent string
	start := time.Now()
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		slog.Error("Failed to fetch page", "url", url, "error", err)
		return nil, f.mapErr(err)
	}

	slog.Info("Fetched page", "url", url, "kind", kind, "duration_ms", time.Since(start).Milliseconds())
	return ExtractRecords(kind, htmlContent)
}

// mapErr translates browser errors into the repository taxonomy so the use
// case can distinguish timeouts from navigation failures.
func (f *ChromedpFetcher) mapErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", repository.ErrFetchTimeout, err)
	}
	return fmt.Errorf("%w: %v", repository.ErrNavigationFailed, err)
}
