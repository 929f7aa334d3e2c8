package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
)

const headerIdempotencyKey = "Idempotency-Key"

// PaymentHandler handles payment intents and completed payments.
type PaymentHandler struct {
	service ports.PaymentService
}

func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type intentRequest struct {
	Price float64 `json:"price" validate:"gt=0"`
}

type intentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type recordPaymentRequest struct {
	Email         string  `json:"email"         validate:"required,email"`
	Price         float64 `json:"price"         validate:"gt=0"`
	Badge         string  `json:"badge"         validate:"required"`
	TransactionID string  `json:"transactionId"`
}

type recordPaymentResponse struct {
	InsertedID   string `json:"insertedId"`
	BadgeApplied bool   `json:"badgeApplied"`
	Replayed     bool   `json:"replayed"`
}

// CreateIntent handles POST /create-payment-intent.
//
// @Summary      Create a card payment intent
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      intentRequest  true  "Price in major units"
// @Success      200   {object}  intentResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /create-payment-intent [post]
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	var req intentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	secret, err := h.service.CreateIntent(c.Request().Context(), req.Price)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, intentResponse{ClientSecret: secret})
}

// Record handles POST /payments. Callers may only record their own payments.
//
// @Summary      Record a completed payment and upgrade the badge
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Retry key"
// @Param        body             body      recordPaymentRequest  true   "Payment"
// @Success      201              {object}  recordPaymentResponse
// @Failure      400              {object}  map[string]string
// @Failure      401              {object}  map[string]string
// @Failure      403              {object}  map[string]string
// @Failure      409              {object}  map[string]string
// @Failure      500              {object}  map[string]string  "partial failure"
// @Router       /payments [post]
func (h *PaymentHandler) Record(c echo.Context) error {
	var req recordPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	email, err := requireSelf(c, req.Email)
	if err != nil {
		return err
	}

	res, err := h.service.RecordPayment(c.Request().Context(), ports.RecordPaymentInput{
		Email:          email,
		Amount:         req.Price,
		Badge:          strings.ToLower(req.Badge),
		TransactionID:  req.TransactionID,
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey)),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, recordPaymentResponse{
		InsertedID:   res.InsertedID,
		BadgeApplied: res.BadgeApplied,
		Replayed:     res.Replayed,
	})
}

// History handles GET /payments/:email.
//
// @Summary      List the caller's payments, newest first
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Caller's email"
// @Success      200    {array}   domain.Payment
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /payments/{email} [get]
func (h *PaymentHandler) History(c echo.Context) error {
	email, err := requireSelf(c, c.Param("email"))
	if err != nil {
		return err
	}

	payments, err := h.service.History(c.Request().Context(), email)
	if err != nil {
		return err
	}
	if payments == nil {
		payments = []*domain.Payment{}
	}
	return c.JSON(http.StatusOK, payments)
}
