package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"pricepulse-backend/internal/components/assert"
	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/store"
	"pricepulse-backend/internal/tracker"

	"github.com/go-chi/chi/v5"
)

const (
	report_handler_store = "handler.store"
)

type Handler struct {
	store    store.Store
	acquirer tracker.Acquirer
	registry tracker.Registry
	tel      telemetry.API
}

func NewHandler(s store.Store, acquirer tracker.Acquirer, registry tracker.Registry, tel telemetry.API) *Handler {
	assert.NotNil(s, "store")
	assert.NotNil(acquirer, "acquirer")
	assert.NotNil(tel, "tel")

	return &Handler{
		store:    s,
		acquirer: acquirer,
		registry: registry,
		tel:      telemetry.NewScopedAPI("httpapi", tel),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProducts handles GET /products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.tel.ReportBroken(report_handler_store, err, "ListProducts")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// unknownStoreWarnings describes every store key no extractor is registered for.
func (h *Handler) unknownStoreWarnings(storeUrls map[string]string) []string {
	var warnings []string
	for key := range storeUrls {
		if _, ok := h.registry.Lookup(key); ok {
			continue
		}
		warning := fmt.Sprintf("store '%s' is not supported and will not be fetched", key)
		if suggestion, ok := h.registry.Suggest(key); ok {
			warning += fmt.Sprintf(", did you mean '%s'?", suggestion)
		}
		warnings = append(warnings, warning)
	}
	slices.Sort(warnings)
	return warnings
}

// CreateProduct handles POST /products, it registers the product and fetches its prices right away.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		slog.WarnContext(r.Context(), "decode create product body", "err", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	err = req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	params := store.CreateProductParams{
		Name:      req.Name,
		StoreUrls: req.StoreUrls,
	}
	if req.ImageUrl != nil {
		params.ImageUrl = *req.ImageUrl
	}
	product, err := h.store.CreateProduct(r.Context(), params)
	if err != nil {
		h.tel.ReportBroken(report_handler_store, err, "CreateProduct")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	observations, err := h.acquirer.FetchPricesForProduct(r.Context(), product, req.StoreUrls)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusCreated, ProductDetailResponse{
		ProductResponse: toProductResponse(product),
		LatestPrices:    toStorePriceResponses(tracker.LatestPerStore(observations)),
		Warnings:        h.unknownStoreWarnings(req.StoreUrls),
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) (store.Product, bool) {
	id := chi.URLParam(r, "id")
	product, err := h.store.GetProduct(r.Context(), id)
	if errors.Is(err, store.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, err)
		return store.Product{}, false
	}
	if err != nil {
		h.tel.ReportBroken(report_handler_store, err, "GetProduct", id)
		writeError(w, http.StatusInternalServerError, err)
		return store.Product{}, false
	}
	return product, true
}

// GetProduct handles GET /products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.getProduct(w, r)
	if !ok {
		return
	}
	history, err := h.store.ListObservations(r.Context(), product.Id)
	if err != nil {
		h.tel.ReportBroken(report_handler_store, err, "ListObservations", product.Id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, ProductDetailResponse{
		ProductResponse: toProductResponse(product),
		LatestPrices:    toStorePriceResponses(tracker.LatestPerStore(history)),
	})
}

// GetPriceHistory handles GET /products/{id}/prices
func (h *Handler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	product, ok := h.getProduct(w, r)
	if !ok {
		return
	}
	history, err := h.store.ListObservations(r.Context(), product.Id)
	if err != nil {
		h.tel.ReportBroken(report_handler_store, err, "ListObservations", product.Id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, PriceHistoryResponse{
		ProductId:  product.Id,
		History:    toStorePriceResponses(history),
		Disclaimer: Disclaimer,
	})
}
