package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/promoforge/coupon-service/internal/domain"
	"github.com/promoforge/coupon-service/internal/repository"
	"github.com/promoforge/coupon-service/internal/service"
	"github.com/promoforge/coupon-service/pkg/httputil"
	"github.com/promoforge/coupon-service/pkg/validator"
)

// CouponHandler handles HTTP requests for coupon endpoints.
type CouponHandler struct {
	service *service.CouponService
	logger  *slog.Logger
}

// NewCouponHandler creates a new coupon HTTP handler.
func NewCouponHandler(svc *service.CouponService, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateCouponRequest is the JSON request body for creating a coupon. The
// details payload is accepted as-is; its keys are only interpreted when the
// coupon is evaluated against a cart.
type CreateCouponRequest struct {
	Type           string         `json:"type" validate:"required,oneof=cart_wise product_wise bxgy"`
	Details        map[string]any `json:"details"`
	ExpirationDate *string        `json:"expiration_date"`
}

// UpdateCouponRequest is the JSON request body for updating a coupon.
type UpdateCouponRequest struct {
	Type           *string        `json:"type" validate:"omitempty,oneof=cart_wise product_wise bxgy"`
	Details        map[string]any `json:"details"`
	ExpirationDate *string        `json:"expiration_date"`
}

// CartItemRequest is one cart line in an evaluation or application request.
type CartItemRequest struct {
	ProductID     int64   `json:"product_id" validate:"required"`
	Price         float64 `json:"price" validate:"gte=0"`
	Quantity      int     `json:"quantity" validate:"required,gt=0"`
	TotalDiscount float64 `json:"total_discount" validate:"gte=0"`
}

// CartRequest is the JSON cart payload. Items may be empty; the engine
// decides whether that is an error for the operation at hand.
type CartRequest struct {
	Items      []CartItemRequest `json:"items" validate:"omitempty,dive"`
	TotalPrice float64           `json:"total_price" validate:"gte=0"`
}

// ApplicableCouponsRequest is the JSON request body for evaluating the
// catalog against a cart.
type ApplicableCouponsRequest struct {
	Cart *CartRequest `json:"cart" validate:"required"`
}

// ApplyCouponRequest is the JSON request body for applying a coupon.
type ApplyCouponRequest struct {
	Cart *CartRequest `json:"cart" validate:"required"`
}

// --- Response DTOs ---

// CartItemResponse is one cart line in an application response.
type CartItemResponse struct {
	ProductID     int64   `json:"product_id"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	TotalDiscount float64 `json:"total_discount"`
}

// CartResponse is the updated cart returned by apply-coupon.
type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalPrice float64            `json:"total_price"`
}

// --- Handlers ---

// CreateCoupon handles POST /api/v1/coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateCouponInput{
		Type:    req.Type,
		Details: domain.Details(req.Details),
	}

	if req.ExpirationDate != nil {
		expiry, err := time.Parse(time.RFC3339, *req.ExpirationDate)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "expiration_date must be in RFC3339 format"},
			})
			return
		}
		input.ExpirationDate = &expiry
	}

	coupon, err := h.service.CreateCoupon(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: coupon})
}

// ListCoupons handles GET /api/v1/coupons
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	filter := repository.CouponFilter{
		Page:    1,
		PerPage: 20,
	}

	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if perPage, err := strconv.Atoi(v); err == nil && perPage > 0 && perPage <= 100 {
			filter.PerPage = perPage
		}
	}
	if v := r.URL.Query().Get("type"); v != "" {
		filter.Type = &v
	}

	coupons, total, err := h.service.ListCoupons(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(coupons, total, filter.Page, filter.PerPage))
}

// GetCoupon handles GET /api/v1/coupons/{id}
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "coupon id is required"},
		})
		return
	}

	coupon, err := h.service.GetCoupon(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: coupon})
}

// UpdateCoupon handles PUT /api/v1/coupons/{id}
func (h *CouponHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "coupon id is required"},
		})
		return
	}

	var req UpdateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateCouponInput{
		Type:    req.Type,
		Details: domain.Details(req.Details),
	}

	if req.ExpirationDate != nil {
		expiry, err := time.Parse(time.RFC3339, *req.ExpirationDate)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "expiration_date must be in RFC3339 format"},
			})
			return
		}
		input.ExpirationDate = &expiry
	}

	coupon, err := h.service.UpdateCoupon(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: coupon})
}

// DeleteCoupon handles DELETE /api/v1/coupons/{id}
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "coupon id is required"},
		})
		return
	}

	if err := h.service.DeleteCoupon(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApplicableCoupons handles POST /api/v1/coupons/applicable-coupons
func (h *CouponHandler) ApplicableCoupons(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ApplicableCouponsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	coupons, err := h.service.ApplicableCoupons(r.Context(), toDomainCart(req.Cart))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: coupons})
}

// ApplyCoupon handles POST /api/v1/coupons/apply-coupon/{id}
func (h *CouponHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "coupon id is required"},
		})
		return
	}

	var req ApplyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.ApplyCoupon(r.Context(), id, toDomainCart(req.Cart))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(cart)})
}

// toDomainCart converts the flat wire cart into the domain model.
func toDomainCart(req *CartRequest) *domain.Cart {
	if req == nil {
		return nil
	}
	items := make([]domain.CartItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.CartItem{
			Product: domain.Product{
				ProductID: item.ProductID,
				Price:     item.Price,
			},
			Quantity:      item.Quantity,
			TotalDiscount: item.TotalDiscount,
		}
	}
	return &domain.Cart{
		Items:      items,
		TotalPrice: req.TotalPrice,
	}
}

// toCartResponse flattens the domain cart back into the wire shape.
func toCartResponse(cart *domain.Cart) CartResponse {
	items := make([]CartItemResponse, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemResponse{
			ProductID:     item.Product.ProductID,
			Price:         item.Product.Price,
			Quantity:      item.Quantity,
			TotalDiscount: item.TotalDiscount,
		}
	}
	return CartResponse{
		Items:      items,
		TotalPrice: cart.TotalPrice,
	}
}
