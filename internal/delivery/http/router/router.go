package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/catalog-service/internal/delivery/http/handler"
	"github.com/user/catalog-service/internal/delivery/http/middleware"
)

func New(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.HandleHealthCheck)

	// Scrape triggers and job status.
	mux.HandleFunc("POST /api/scrape/navigation", h.HandleScrapeNavigation)
	mux.HandleFunc("POST /api/scrape/category", h.HandleScrapeCategory)
	mux.HandleFunc("POST /api/scrape/product", h.HandleScrapeProduct)
	mux.HandleFunc("GET /api/jobs/{id}", h.HandleGetJob)

	// Catalog read side.
	mux.HandleFunc("GET /api/navigation", h.HandleListNavigation)
	mux.HandleFunc("GET /api/categories/{slug}", h.HandleGetCategory)
	mux.HandleFunc("GET /api/categories/{slug}/products", h.HandleListCategoryProducts)
	mux.HandleFunc("GET /api/products/{id}", h.HandleGetProduct)
	mux.HandleFunc("POST /api/history", h.HandleSaveHistory)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Apply middlewares
	var chainedHandler http.Handler = mux
	chainedHandler = middleware.Metrics(chainedHandler)
	chainedHandler = middleware.Logging(chainedHandler)

	return chainedHandler
}
