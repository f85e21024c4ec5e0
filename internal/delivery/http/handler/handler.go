package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/user/catalog-service/internal/delivery/http/request"
	"github.com/user/catalog-service/internal/delivery/http/response"
	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
	"github.com/user/catalog-service/internal/usecase"
)

// Handler is the thin controller layer over the dispatcher and the read side.
type Handler struct {
	dispatcher usecase.Dispatcher
	browser    usecase.CatalogBrowser
	baseURL    string
}

// NewHandler creates a new Handler. baseURL is the site root scraped by the
// navigation trigger.
func NewHandler(dispatcher usecase.Dispatcher, browser usecase.CatalogBrowser, baseURL string) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		browser:    browser,
		baseURL:    baseURL,
	}
}

// HandleScrapeNavigation triggers a scrape of the site's navigation taxonomy.
func (h *Handler) HandleScrapeNavigation(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.baseURL, entity.KindNavigation)
}

// HandleScrapeCategory triggers a scrape of a category listing page.
func (h *Handler) HandleScrapeCategory(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := h.decodeScrapeURL(w, r)
	if !ok {
		return
	}
	h.submit(w, r, targetURL, entity.KindCategory)
}

// HandleScrapeProduct triggers a scrape of a product detail page.
func (h *Handler) HandleScrapeProduct(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := h.decodeScrapeURL(w, r)
	if !ok {
		return
	}
	h.submit(w, r, targetURL, entity.KindProduct)
}

func (h *Handler) decodeScrapeURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req request.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return "", false
	}
	if _, err := url.ParseRequestURI(req.URL); err != nil {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return "", false
	}
	return req.URL, true
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, targetURL string, kind entity.TargetKind) {
	job, err := h.dispatcher.Submit(r.Context(), targetURL, kind)
	if err != nil {
		slog.Error("Failed to submit scrape job", "url", targetURL, "kind", kind, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusAccepted, response.FromJob(job))
}

// HandleGetJob returns the current state of a scrape job.
func (h *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.dispatcher.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Job not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get job status", "job_id", r.PathValue("id"), "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.FromJob(job))
}

// HandleListNavigation returns all taxonomy sections with category previews.
func (h *Handler) HandleListNavigation(w http.ResponseWriter, r *http.Request) {
	sections, err := h.browser.ListNavigation(r.Context())
	if err != nil {
		slog.Error("Failed to list navigation", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	resp := make([]response.NavigationResponse, 0, len(sections))
	for _, section := range sections {
		resp = append(resp, response.FromNavigation(section))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetCategory returns a category with its tree neighbours.
func (h *Handler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	detail, err := h.browser.GetCategory(r.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get category", "slug", slug, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.FromCategoryDetail(detail))
}

// HandleListCategoryProducts returns one page of a category's products.
func (h *Handler) HandleListCategoryProducts(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.browser.ListCategoryProducts(r.Context(), slug, page, limit)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to list category products", "slug", slug, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.FromProductPage(products))
}

// HandleGetProduct returns a product with its detail, reviews and category.
func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSONError(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	view, err := h.browser.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Product not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get product", "id", id, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.FromProductView(view))
}

// HandleSaveHistory records a frontend session's browse path.
func (h *Handler) HandleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var req request.ViewHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		h.writeJSONError(w, "session_id is required", http.StatusBadRequest)
		return
	}

	saved, err := h.browser.RecordView(r.Context(), req.SessionID, req.Path)
	if err != nil {
		slog.Error("Failed to save view history", "session_id", req.SessionID, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"id": saved.ID, "created_at": saved.CreatedAt})
}

// HandleHealthCheck reports liveness.
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
