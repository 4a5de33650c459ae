package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tailorshop/internal/api/middleware"
	"github.com/d60-Lab/tailorshop/internal/service"
	"github.com/d60-Lab/tailorshop/pkg/response"
)

type createOrderRequest struct {
	CustomerID           string   `json:"customer_id" binding:"required"`
	GarmentTypeID        string   `json:"garment_type_id" binding:"required"`
	MeasurementSetID     *string  `json:"measurement_set_id"`
	WorkTypeIDs          []string `json:"work_type_ids"`
	ExpectedDeliveryDate string   `json:"expected_delivery_date" binding:"required"` // 2006-01-02
	IsUrgent             bool     `json:"is_urgent"`
	SpecialInstructions  string   `json:"special_instructions"`
	AdvanceAmount        float64  `json:"advance_amount" binding:"gte=0"`
}

// CreateOrder books an order with its bill and invoice.
// @Summary Book an order
// @Tags orders
// @Accept json
// @Produce json
// @Param request body createOrderRequest true "order"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	delivery, err := time.Parse("2006-01-02", req.ExpectedDeliveryDate)
	if err != nil {
		response.BadRequest(c, "expected_delivery_date must be YYYY-MM-DD")
		return
	}
	order, err := h.orders.Create(c.Request.Context(), middleware.ActorFrom(c), service.CreateOrderInput{
		CustomerID:           req.CustomerID,
		GarmentTypeID:        req.GarmentTypeID,
		MeasurementSetID:     req.MeasurementSetID,
		WorkTypeIDs:          req.WorkTypeIDs,
		ExpectedDeliveryDate: delivery,
		IsUrgent:             req.IsUrgent,
		SpecialInstructions:  req.SpecialInstructions,
		AdvanceAmount:        req.AdvanceAmount,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, order)
}

// GetOrder returns one order.
// @Summary Get order
// @Tags orders
// @Param id path string true "order id"
// @Success 200 {object} response.Response
// @Router /api/v1/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders filters by status or customer, or returns overdue orders.
// @Summary List orders
// @Tags orders
// @Param status query string false "status name"
// @Param customer_id query string false "customer id"
// @Param overdue query bool false "only overdue"
// @Success 200 {object} response.Response
// @Router /api/v1/orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()
	switch {
	case c.Query("overdue") == "true":
		orders, err := h.orders.ListOverdue(ctx, time.Now())
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, gin.H{"list": orders})
	case c.Query("customer_id") != "":
		orders, err := h.orders.ListByCustomer(ctx, c.Query("customer_id"))
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, gin.H{"list": orders})
	case c.Query("status") != "":
		orders, err := h.orders.ListByStatus(ctx, c.Query("status"))
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, gin.H{"list": orders})
	default:
		response.BadRequest(c, "one of status, customer_id or overdue is required")
	}
}

type transitionRequest struct {
	ToStatus string `json:"to_status" binding:"required"`
	Reason   string `json:"reason"`
}

// TransitionOrder moves an order along the status graph.
// @Summary Transition order status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param request body transitionRequest true "target status"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/orders/{id}/transition [post]
func (h *Handler) TransitionOrder(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	order, err := h.orders.Transition(c.Request.Context(), middleware.ActorFrom(c),
		c.Param("id"), req.ToStatus, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, order)
}

type assignStaffRequest struct {
	StaffID  string `json:"staff_id" binding:"required"`
	RoleType string `json:"role_type" binding:"required,oneof=tailor delivery designer"`
	Notes    string `json:"notes"`
}

// AssignStaff binds a staff member to an order by role.
// @Summary Assign staff
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param request body assignStaffRequest true "assignment"
// @Success 201 {object} response.Response
// @Router /api/v1/orders/{id}/assignments [post]
func (h *Handler) AssignStaff(c *gin.Context) {
	var req assignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	assignment, err := h.orders.AssignStaff(c.Request.Context(), middleware.ActorFrom(c),
		c.Param("id"), req.StaffID, req.RoleType, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, assignment)
}

type allocateMaterialRequest struct {
	FabricID       string  `json:"fabric_id" binding:"required"`
	QuantityMeters float64 `json:"quantity_meters" binding:"required,gt=0"`
}

// AllocateMaterial commits fabric to an order and deducts stock.
// @Summary Allocate fabric
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param request body allocateMaterialRequest true "allocation"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/orders/{id}/allocations [post]
func (h *Handler) AllocateMaterial(c *gin.Context) {
	var req allocateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	allocation, err := h.orders.AllocateMaterial(c.Request.Context(), middleware.ActorFrom(c),
		c.Param("id"), req.FabricID, req.QuantityMeters)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, allocation)
}

// OrderHistory returns the append-only status trail.
// @Summary Order status history
// @Tags orders
// @Param id path string true "order id"
// @Success 200 {object} response.Response
// @Router /api/v1/orders/{id}/history [get]
func (h *Handler) OrderHistory(c *gin.Context) {
	rows, err := h.orders.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"list": rows})
}

type scheduleTrialRequest struct {
	TrialDate string `json:"trial_date" binding:"required"` // 2006-01-02
	Location  string `json:"location"`
}

// ScheduleTrial books the fitting appointment for an order.
// @Summary Schedule trial
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param request body scheduleTrialRequest true "trial"
// @Success 201 {object} response.Response
// @Router /api/v1/orders/{id}/trial [post]
func (h *Handler) ScheduleTrial(c *gin.Context) {
	var req scheduleTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	trialDate, err := time.Parse("2006-01-02", req.TrialDate)
	if err != nil {
		response.BadRequest(c, "trial_date must be YYYY-MM-DD")
		return
	}
	trial, err := h.trials.Schedule(c.Request.Context(), middleware.ActorFrom(c),
		c.Param("id"), trialDate, req.Location)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, trial)
}

// GetTrial returns the order's trial with its alterations.
// @Summary Get trial
// @Tags orders
// @Param id path string true "order id"
// @Success 200 {object} response.Response
// @Router /api/v1/orders/{id}/trial [get]
func (h *Handler) GetTrial(c *gin.Context) {
	trial, alterations, err := h.trials.ForOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"trial": trial, "alterations": alterations})
}

type completeTrialRequest struct {
	Status   string `json:"status" binding:"required,oneof=COMPLETED NO_SHOW"`
	Feedback string `json:"feedback"`
}

// CompleteTrial records the fitting outcome.
// @Summary Complete trial
// @Tags orders
// @Accept json
// @Produce json
// @Param trial_id path string true "trial id"
// @Param request body completeTrialRequest true "outcome"
// @Success 200 {object} response.Response
// @Router /api/v1/trials/{trial_id}/complete [post]
func (h *Handler) CompleteTrial(c *gin.Context) {
	var req completeTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.trials.Complete(c.Request.Context(), middleware.ActorFrom(c),
		c.Param("trial_id"), req.Status, req.Feedback); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"status": req.Status})
}

type addAlterationRequest struct {
	AlterationType       string  `json:"alteration_type" binding:"required"`
	Description          string  `json:"description"`
	EstimatedCost        float64 `json:"estimated_cost" binding:"gte=0"`
	IsIncludedInOriginal bool    `json:"is_included_in_original"`
}

// AddAlteration records an alteration requested at a trial.
// @Summary Add alteration
// @Tags orders
// @Accept json
// @Produce json
// @Param trial_id path string true "trial id"
// @Param request body addAlterationRequest true "alteration"
// @Success 201 {object} response.Response
// @Router /api/v1/trials/{trial_id}/alterations [post]
func (h *Handler) AddAlteration(c *gin.Context) {
	var req addAlterationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	alteration, err := h.trials.AddAlteration(c.Request.Context(), middleware.ActorFrom(c), service.AddAlterationInput{
		TrialID:              c.Param("trial_id"),
		AlterationType:       req.AlterationType,
		Description:          req.Description,
		EstimatedCost:        req.EstimatedCost,
		IsIncludedInOriginal: req.IsIncludedInOriginal,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, alteration)
}

// CompleteAlteration marks one alteration done.
// @Summary Complete alteration
// @Tags orders
// @Param id path string true "alteration id"
// @Success 200 {object} response.Response
// @Router /api/v1/alterations/{id}/complete [post]
func (h *Handler) CompleteAlteration(c *gin.Context) {
	if err := h.trials.CompleteAlteration(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "COMPLETED"})
}
