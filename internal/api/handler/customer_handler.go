package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/direwolf2494/CMS-Basic/internal/api/handler/dto"
	"github.com/direwolf2494/CMS-Basic/internal/domain/customer"
	"github.com/direwolf2494/CMS-Basic/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

const (
	defaultSearchOffset = 0
	defaultSearchLimit  = 100
)

type CustomerHandler struct {
	service customer.CustomerService
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

func getCustomerIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "customerID")
	if idStr == "" {
		return 0, fmt.Errorf("%w: customerID not found in URL path", apperrors.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid customerID format in URL path: %s", apperrors.ErrInvalidArgument, idStr)
	}
	return id, nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"status":500,"message":"Internal server error","name":"InternalError"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, name := http.StatusInternalServerError, "An error occured. Please try again.", "InternalError"

	switch {
	case errors.Is(err, customer.ErrPhoneNumberOrEmailInUse):
		status = http.StatusBadRequest
		message = "The provided phone number or email address is already associated with a customer."
		name = "PhoneNumberOrEmailInUse"
	case errors.Is(err, customer.ErrNotFound), errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
		message = "No customer has been found with the provided customer id."
		name = "NoSuchCustomer"
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message, name = http.StatusBadRequest, err.Error(), "ValidationError"
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	respondJSON(w, status, dto.ErrorResponse{
		Status:  status,
		Message: message,
		Name:    name,
	})
}

// CreateCustomer handles POST /customer
// @Summary Create a new customer
// @Description Creates a customer after checking that neither the email nor the phone number is already in use.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CustomerRequest true "Customer creation request"
// @Success 200 {object} dto.CustomerResponse "Customer successfully created"
// @Failure 400 {object} dto.ErrorResponse "Validation failure or email/phone already in use"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customer [post]
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received create customer request")

	var req dto.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	h.logger.DebugContext(r.Context(), "Calling customer service CreateCustomer")
	created, err := h.service.CreateCustomer(r.Context(), req.Destructure())
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, customer.ErrPhoneNumberOrEmailInUse) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to create customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewCustomerResponse(created)
	h.logger.InfoContext(r.Context(), "Customer created successfully", slog.Int64("customerID", resp.ID))
	respondJSON(w, http.StatusOK, resp)
}

// SearchCustomers handles GET /customer
// @Summary Search or list customers
// @Description Full-text search across customer fields when a query is given, plain pagination otherwise. A numeric query also matches house numbers.
// @Tags Customers
// @Produce json
// @Param query query string false "Search terms"
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Page size" default(100)
// @Success 200 {object} dto.SearchCustomersResponse "Matching customers plus total count"
// @Failure 400 {object} dto.ErrorResponse "Invalid offset or limit"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customer [get]
func (h *CustomerHandler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received search customers request")

	query := r.URL.Query().Get("query")

	offset, err := queryParamInt(r, "offset", defaultSearchOffset)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid offset query parameter", slog.Any("error", err))
		respondError(w, err)
		return
	}
	limit, err := queryParamInt(r, "limit", defaultSearchLimit)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid limit query parameter", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Calling customer service SearchCustomers")
	customers, count, err := h.service.SearchCustomers(r.Context(), query, offset, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to search customers", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.SearchCustomersResponse{
		Customers: make([]dto.CustomerResponse, len(customers)),
		Count:     count,
	}
	for i, cust := range customers {
		resp.Customers[i] = dto.NewCustomerResponse(cust)
	}

	h.logger.InfoContext(r.Context(), "Customers searched successfully", slog.Int("returned", len(resp.Customers)), slog.Int64("count", count))
	respondJSON(w, http.StatusOK, resp)
}

// GetCustomer handles GET /customer/{customerID}
// @Summary Retrieve customer details
// @Description Retrieves details for a specific customer by their ID.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.CustomerResponse "Customer details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customer/{customerID} [get]
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Received get customer request")

	h.logger.DebugContext(r.Context(), "Calling customer service GetCustomer")
	cust, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to get customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	// The service reports absence as an empty result; translating it into
	// a NoSuchCustomer failure is this layer's job.
	if cust == nil {
		h.logger.WarnContext(r.Context(), "Customer not found", slog.Int64("customerID", customerID))
		respondError(w, customer.ErrNotFound)
		return
	}

	resp := dto.NewCustomerResponse(cust)
	h.logger.InfoContext(r.Context(), "Customer retrieved successfully")
	respondJSON(w, http.StatusOK, resp)
}

// UpdateCustomer handles PUT /customer/{customerID}
// @Summary Update a customer
// @Description Replaces all business fields of an existing customer. The new email and phone number must not belong to another customer.
// @Tags Customers
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param request body dto.CustomerRequest true "Full customer payload"
// @Success 200 {object} dto.StatusResponse "Customer successfully updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid payload or email/phone already in use"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customer/{customerID} [put]
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Received update customer request")

	var req dto.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	h.logger.DebugContext(r.Context(), "Calling customer service UpdateCustomer")
	if _, err := h.service.UpdateCustomer(r.Context(), customerID, req.Destructure()); err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, customer.ErrNotFound) && !errors.Is(err, customer.ErrPhoneNumberOrEmailInUse) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to update customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer updated successfully", slog.Int64("customerID", customerID))
	respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "ok"})
}

// DeleteCustomer handles DELETE /customer/{customerID}
// @Summary Delete a customer
// @Description Soft-deletes the customer. Deleting an id that does not exist still succeeds.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.StatusResponse "Customer deleted (or already absent)"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customer/{customerID} [delete]
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Received delete customer request")

	h.logger.DebugContext(r.Context(), "Calling customer service DeleteCustomer")
	if err := h.service.DeleteCustomer(r.Context(), customerID); err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to delete customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer deleted successfully", slog.Int64("customerID", customerID))
	respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "ok"})
}

func queryParamInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: invalid %s query parameter: %s", apperrors.ErrInvalidArgument, name, raw)
	}
	return value, nil
}
