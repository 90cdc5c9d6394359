// Package rest provides HTTP handlers for the inventory endpoints.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	inverrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/pkg/auth"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Response bodies of the stock endpoints. They are returned with status 200.
const (
	msgPurchased        = "Purchase successful!"
	msgInsufficient     = "Not enough quantity"
	msgNoSuchProducts   = "No such products found"
	msgRestored         = "Quantity restored after order deletion!"
	msgRestoreNotFound  = "Product not found"
	msgProductAdded     = "Product added successfully"
	msgProductDeleted   = "Product deleted successfully!"
	msgQuantityUpdated  = "Quantity updated successfully"
	productNotFoundText = "Product not found: "
)

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of Handler with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the inventory service.
// The manage middlewares guard the catalog management routes only, stock changes made
// on behalf of orders stay reachable without them.
func (h *Handler) RegisterRoutes(r chi.Router, manage ...func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/displayAll", h.FindAll)
		r.Get("/findById/{id}", h.FindByID)
		r.Get("/findByCategory/{category}", h.FindByCategory)
		r.Get("/findByName/{name}", h.FindByName)
		r.Get("/filterByPrice", h.FilterByPrice)

		m := r.With(manage...)
		m.Post("/addProduct", h.AddProduct)
		m.Delete("/removeProduct/{id}", h.DeleteProduct)
		m.Put("/updateProduct/{id}", h.UpdateProduct)
		m.Put("/updateQuantity", h.UpdateQuantity)

		r.Put("/findByName/{name}/reduceQuantity", h.ReduceQuantity)
		r.Put("/{name}/restore", h.RestoreQuantity)
	})

	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadinessCheck)
}

// FindAll retrieves a list of all products.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err, strconv.FormatInt(id, 10))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// FindByName retrieves the first product whose name contains the path value.
func (h *Handler) FindByName(w http.ResponseWriter, r *http.Request) {
	name := web.PathParam(r, "name")
	found, err := h.service.FindByName(r.Context(), name)
	if err != nil {
		h.respondLookupError(w, r, err, name)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// FindByCategory retrieves all products of a category.
func (h *Handler) FindByCategory(w http.ResponseWriter, r *http.Request) {
	category := web.PathParam(r, "category")
	list, err := h.service.FindByCategory(r.Context(), category)
	if err != nil {
		if errors.Is(err, inverrors.ErrCategoryNotFound) {
			h.logger.WarnContext(r.Context(), "Category not found", "category", category)
			web.RespondText(w, h.logger, http.StatusNotFound, "Category not found: "+category)
			return
		}
		h.logger.ErrorContext(r.Context(), "Error retrieving products by category", "category", category, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// FilterByPrice retrieves products of a category priced strictly between minPrice and maxPrice.
func (h *Handler) FilterByPrice(w http.ResponseWriter, r *http.Request) {
	minPrice, ok := web.ParseFloat(r, w, h.logger, "minPrice")
	if !ok {
		return
	}
	maxPrice, ok := web.ParseFloat(r, w, h.logger, "maxPrice")
	if !ok {
		return
	}
	category, ok := web.RequiredQuery(r, w, h.logger, "category")
	if !ok {
		return
	}
	list, err := h.service.FindByPriceRange(r.Context(), minPrice, maxPrice, category)
	if err != nil {
		detail := fmt.Sprintf("No products found in category '%s' within price range %s to %s",
			category, formatPrice(minPrice), formatPrice(maxPrice))
		h.respondLookupError(w, r, err, detail)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// AddProduct handles the creation of a new product.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	id, err := h.service.AddProduct(r.Context(), product)
	if err != nil {
		if errors.Is(err, inverrors.ErrInvalidArgument) {
			web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", id, "Name", product.Name, "by", auth.Subject(r.Context()))
	web.RespondText(w, h.logger, http.StatusOK, msgProductAdded)
}

// UpdateProduct replaces every field of a product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	updated, err := h.service.UpdateProduct(r.Context(), id, product)
	if err != nil {
		h.respondLookupError(w, r, err, strconv.FormatInt(id, 10))
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name, "by", auth.Subject(r.Context()))
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteProduct deletes a product by its ID.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err, strconv.FormatInt(id, 10))
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", id, "by", auth.Subject(r.Context()))
	web.RespondText(w, h.logger, http.StatusOK, msgProductDeleted)
}

// UpdateQuantity overwrites the quantity of the first product matching the name query parameter.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	name, ok := web.RequiredQuery(r, w, h.logger, "name")
	if !ok {
		return
	}
	quantity, ok := web.ParseValidateGte(r, w, h.logger, "quantity", 0)
	if !ok {
		return
	}
	if _, err := h.service.SetQuantity(r.Context(), name, quantity); err != nil {
		h.respondLookupError(w, r, err, name)
		return
	}
	web.RespondText(w, h.logger, http.StatusOK, msgQuantityUpdated)
}

// ReduceQuantity handles a purchase of quantity units.
func (h *Handler) ReduceQuantity(w http.ResponseWriter, r *http.Request) {
	name := web.PathParam(r, "name")
	quantity, ok := web.ParseValidateGte(r, w, h.logger, "quantity", 0)
	if !ok {
		return
	}
	outcome, err := h.service.ReduceQuantity(r.Context(), name, quantity)
	if err != nil {
		h.respondLookupError(w, r, err, name)
		return
	}
	h.logger.InfoContext(r.Context(), "Reduce quantity handled", "name", name, "quantity", quantity, "outcome", outcome)
	switch outcome {
	case service.Purchased:
		web.RespondText(w, h.logger, http.StatusOK, msgPurchased)
	case service.InsufficientStock:
		web.RespondText(w, h.logger, http.StatusOK, msgInsufficient)
	default:
		web.RespondText(w, h.logger, http.StatusOK, msgNoSuchProducts)
	}
}

// RestoreQuantity gives quantity units back after an order was deleted.
func (h *Handler) RestoreQuantity(w http.ResponseWriter, r *http.Request) {
	name := web.PathParam(r, "name")
	quantity, ok := web.ParseValidateGte(r, w, h.logger, "quantity", 0)
	if !ok {
		return
	}
	outcome, err := h.service.RestoreQuantity(r.Context(), name, quantity)
	if err != nil {
		h.respondLookupError(w, r, err, name)
		return
	}
	h.logger.InfoContext(r.Context(), "Restore quantity handled", "name", name, "quantity", quantity, "outcome", outcome)
	if outcome == service.Restored {
		web.RespondText(w, h.logger, http.StatusOK, msgRestored)
		return
	}
	web.RespondText(w, h.logger, http.StatusOK, msgRestoreNotFound)
}

// HealthCheck is a simple liveness endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ReadinessCheck reports 503 while the store is unreachable.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "Store is not ready", "error", err)
		web.RespondError(w, h.logger, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// respondLookupError maps domain errors: not found is 404 text, invalid input is 400, the rest is 500.
func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, err error, detail string) {
	switch {
	case errors.Is(err, inverrors.ErrProductNotFound):
		h.logger.WarnContext(r.Context(), "Product not found", "detail", detail)
		web.RespondText(w, h.logger, http.StatusNotFound, productNotFoundText+detail)
	case errors.Is(err, inverrors.ErrInvalidArgument):
		h.logger.WarnContext(r.Context(), "Invalid argument", "detail", detail, "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Request failed", "detail", detail, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeProduct reads and validates a ProductCreateDto body.
func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request) (service.ProductCreateDto, bool) {
	var product service.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return product, false
	}
	if err := h.validate.Struct(product); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, h.logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return product, false
		}
		h.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return product, false
	}
	return product, true
}

// formatPrice prints whole prices with one decimal, so 10 reads "10.0".
func formatPrice(p float64) string {
	if p == math.Trunc(p) && math.Abs(p) < 1e7 {
		return strconv.FormatFloat(p, 'f', 1, 64)
	}
	return strconv.FormatFloat(p, 'g', -1, 64)
}
