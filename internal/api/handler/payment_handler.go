package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tailorshop/internal/api/middleware"
	"github.com/d60-Lab/tailorshop/internal/service"
	"github.com/d60-Lab/tailorshop/pkg/response"
)

// GetBill returns the derived bill for an order.
// @Summary Get order bill
// @Tags billing
// @Param id path string true "order id"
// @Success 200 {object} response.Response
// @Router /api/v1/orders/{id}/bill [get]
func (h *Handler) GetBill(c *gin.Context) {
	bill, err := h.billing.GetBillForOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"bill":           bill,
		"subtotal":       bill.Subtotal(),
		"tax_amount":     bill.TaxAmount(),
		"total_amount":   bill.TotalAmount(),
		"balance_amount": bill.BalanceAmount(),
	})
}

// GetInvoice returns an invoice with its bill.
// @Summary Get invoice
// @Tags billing
// @Param id path string true "invoice id"
// @Success 200 {object} response.Response
// @Router /api/v1/invoices/{id} [get]
func (h *Handler) GetInvoice(c *gin.Context) {
	invoice, err := h.billing.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, invoice)
}

// ListInvoicePayments returns the payments recorded against an invoice.
// @Summary List invoice payments
// @Tags payments
// @Param id path string true "invoice id"
// @Success 200 {object} response.Response
// @Router /api/v1/invoices/{id}/payments [get]
func (h *Handler) ListInvoicePayments(c *gin.Context) {
	payments, err := h.payments.ListPaymentsForInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"list": payments})
}

// CreateGatewayOrder registers the invoice balance with the payment gateway.
// @Summary Create gateway order
// @Tags payments
// @Param id path string true "invoice id"
// @Success 201 {object} response.Response
// @Router /api/v1/invoices/{id}/gateway-order [post]
func (h *Handler) CreateGatewayOrder(c *gin.Context) {
	gwOrder, err := h.payments.CreateGatewayOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gwOrder)
}

type captureRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// CapturePayment verifies a checkout signature and records the payment.
// @Summary Capture gateway payment
// @Tags payments
// @Accept json
// @Produce json
// @Param request body captureRequest true "capture"
// @Success 201 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/payments/capture [post]
func (h *Handler) CapturePayment(c *gin.Context) {
	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	payment, err := h.payments.VerifyAndCapture(c.Request.Context(),
		req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, payment)
}

type cashPaymentRequest struct {
	Amount           float64 `json:"amount" binding:"required,gt=0"`
	ReceiptReference string  `json:"receipt_reference"`
	Notes            string  `json:"notes"`
}

// RecordCashPayment captures an over-the-counter payment.
// @Summary Record cash payment
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "invoice id"
// @Param request body cashPaymentRequest true "payment"
// @Success 201 {object} response.Response
// @Router /api/v1/invoices/{id}/payments/cash [post]
func (h *Handler) RecordCashPayment(c *gin.Context) {
	var req cashPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	payment, err := h.payments.RecordCashPayment(c.Request.Context(), middleware.ActorFrom(c),
		c.Param("id"), req.Amount, req.ReceiptReference, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, payment)
}

type refundRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Reason string  `json:"reason" binding:"required"`
}

// InitiateRefund opens a refund against a completed payment.
// @Summary Initiate refund
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "payment id"
// @Param request body refundRequest true "refund"
// @Success 201 {object} response.Response
// @Router /api/v1/payments/{id}/refunds [post]
func (h *Handler) InitiateRefund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	refund, err := h.payments.InitiateRefund(c.Request.Context(), middleware.ActorFrom(c),
		c.Param("id"), req.Amount, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, refund)
}

// GatewayWebhook receives provider events. Authenticated by signature, not
// by bearer token; replayed event ids are acknowledged without side effects.
// @Summary Payment gateway webhook
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "HMAC signature"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/payments/webhook [post]
func (h *Handler) GatewayWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}
	err = h.payments.ProcessWebhook(c.Request.Context(), body, c.GetHeader("X-Webhook-Signature"))
	if err != nil && !errors.Is(err, service.ErrDuplicateEvent) {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}
