package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/service"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/httputil"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/pagination"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/validator"
)

// Default page sizes for the two product listings.
const (
	defaultProductLimit     = 10
	defaultUserProductLimit = 5
)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// ProductRequest is the JSON body for creating or replacing a product. Price
// accepts a JSON number or a numeric string.
type ProductRequest struct {
	Name  string      `json:"name" validate:"required"`
	Price json.Number `json:"price" validate:"required,nonnegnumber"`
}

func (req ProductRequest) input() (service.ProductInput, error) {
	price, err := req.Price.Float64()
	if err != nil {
		return service.ProductInput{}, err
	}
	return service.ProductInput{Name: req.Name, Price: price}, nil
}

// List handles GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), pagination.FromRequest(r, defaultProductLimit))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// ListForUser handles GET /{userId}/products
func (h *ProductHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	result, err := h.service.ListForUser(r.Context(), userID, pagination.FromRequest(r, defaultUserProductLimit))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Get handles GET /{userId}/products/{productId}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	product, err := h.service.Get(r.Context(), chi.URLParam(r, "userId"), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

// Create handles POST /{userId}/products. Runs behind SessionGuard.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r, h.logger)
		return
	}

	input, ok := h.decode(w, r)
	if !ok {
		return
	}

	product, err := h.service.Create(r.Context(), user.ID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, product)
}

// Update handles PUT /{userId}/products/{productId}. Runs behind SessionGuard.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r, h.logger)
		return
	}

	id, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	input, ok := h.decode(w, r)
	if !ok {
		return
	}

	product, err := h.service.Update(r.Context(), user.ID, id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /{userId}/products/{productId}. Runs behind SessionGuard.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r, h.logger)
		return
	}

	id, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	product, err := h.service.Delete(r.Context(), user.ID, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.MessageResponse{Message: "product deleted", Data: product})
}

func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request) (service.ProductInput, bool) {
	var req ProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return service.ProductInput{}, false
	}
	input, err := req.input()
	if err != nil {
		httputil.WriteValidationError(w, r, err)
		return service.ProductInput{}, false
	}
	return input, true
}
