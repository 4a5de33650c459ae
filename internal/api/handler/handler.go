package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tailorshop/internal/service"
	"github.com/d60-Lab/tailorshop/pkg/response"
)

// Handler carries the service graph for all API endpoints.
type Handler struct {
	users         *service.UserService
	customers     *service.CustomerService
	orders        *service.OrderService
	trials        *service.TrialService
	inventory     *service.InventoryService
	billing       *service.BillingService
	payments      *service.PaymentService
	reports       *service.ReportService
	notifications *service.NotificationService
}

func New(users *service.UserService, customers *service.CustomerService,
	orders *service.OrderService, trials *service.TrialService,
	inventory *service.InventoryService, billing *service.BillingService,
	payments *service.PaymentService, reports *service.ReportService,
	notifications *service.NotificationService) *Handler {
	return &Handler{
		users:         users,
		customers:     customers,
		orders:        orders,
		trials:        trials,
		inventory:     inventory,
		billing:       billing,
		payments:      payments,
		reports:       reports,
		notifications: notifications,
	}
}

// writeError maps domain errors to the response envelope.
func writeError(c *gin.Context, err error) {
	var invalidTransition *service.InvalidTransitionError
	var unauthorizedTransition *service.UnauthorizedTransitionError
	var precondition *service.PreconditionFailedError
	var insufficientStock *service.InsufficientStockError

	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrSignatureMismatch):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrDuplicateEvent),
		errors.Is(err, service.ErrAlreadyAllocated):
		response.Conflict(c, err.Error())
	case errors.As(err, &unauthorizedTransition):
		response.Forbidden(c, err.Error())
	case errors.As(err, &invalidTransition),
		errors.As(err, &precondition),
		errors.As(err, &insufficientStock):
		response.UnprocessableEntity(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
