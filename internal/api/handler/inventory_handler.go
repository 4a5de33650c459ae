package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tailorshop/internal/api/middleware"
	"github.com/d60-Lab/tailorshop/internal/service"
	"github.com/d60-Lab/tailorshop/pkg/response"
)

type createFabricRequest struct {
	Name             string  `json:"name" binding:"required"`
	Color            string  `json:"color"`
	Pattern          string  `json:"pattern"`
	CostPerMeter     float64 `json:"cost_per_meter" binding:"required,gt=0"`
	InitialQuantity  float64 `json:"initial_quantity" binding:"gte=0"`
	ReorderThreshold float64 `json:"reorder_threshold" binding:"gte=0"`
}

// CreateFabric registers a fabric variant with its opening stock.
// @Summary Create fabric
// @Tags inventory
// @Accept json
// @Produce json
// @Param request body createFabricRequest true "fabric"
// @Success 201 {object} response.Response
// @Router /api/v1/fabrics [post]
func (h *Handler) CreateFabric(c *gin.Context) {
	var req createFabricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	fabric, err := h.inventory.CreateFabric(c.Request.Context(), service.CreateFabricInput{
		Name:             req.Name,
		Color:            req.Color,
		Pattern:          req.Pattern,
		CostPerMeter:     req.CostPerMeter,
		InitialQuantity:  req.InitialQuantity,
		ReorderThreshold: req.ReorderThreshold,
		RecordedByID:     middleware.ActorFrom(c).ID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, fabric)
}

// GetFabric returns one fabric.
// @Summary Get fabric
// @Tags inventory
// @Param id path string true "fabric id"
// @Success 200 {object} response.Response
// @Router /api/v1/fabrics/{id} [get]
func (h *Handler) GetFabric(c *gin.Context) {
	fabric, err := h.inventory.GetFabric(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, fabric)
}

// ListFabrics returns live fabrics.
// @Summary List fabrics
// @Tags inventory
// @Success 200 {object} response.Response
// @Router /api/v1/fabrics [get]
func (h *Handler) ListFabrics(c *gin.Context) {
	fabrics, err := h.inventory.ListFabrics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"list": fabrics})
}

type stockMovementRequest struct {
	QuantityMeters float64 `json:"quantity_meters" binding:"required,gt=0"`
	Notes          string  `json:"notes"`
}

// StockIn records incoming stock.
// @Summary Stock in
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path string true "fabric id"
// @Param request body stockMovementRequest true "movement"
// @Success 201 {object} response.Response
// @Router /api/v1/fabrics/{id}/stock-in [post]
func (h *Handler) StockIn(c *gin.Context) {
	var req stockMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	rec, err := h.inventory.StockIn(c.Request.Context(), c.Param("id"),
		req.QuantityMeters, middleware.ActorFrom(c).ID, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, rec)
}

// StockOut records outgoing stock unrelated to an order.
// @Summary Stock out
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path string true "fabric id"
// @Param request body stockMovementRequest true "movement"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/fabrics/{id}/stock-out [post]
func (h *Handler) StockOut(c *gin.Context) {
	var req stockMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	rec, err := h.inventory.StockOut(c.Request.Context(), c.Param("id"),
		req.QuantityMeters, nil, middleware.ActorFrom(c).ID, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, rec)
}

// RecordDamage writes off damaged stock.
// @Summary Record damage
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path string true "fabric id"
// @Param request body stockMovementRequest true "movement"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/fabrics/{id}/damage [post]
func (h *Handler) RecordDamage(c *gin.Context) {
	var req stockMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	rec, err := h.inventory.RecordDamage(c.Request.Context(), c.Param("id"),
		req.QuantityMeters, middleware.ActorFrom(c).ID, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, rec)
}

type adjustStockRequest struct {
	NewQuantity float64 `json:"new_quantity" binding:"gte=0"`
	Notes       string  `json:"notes" binding:"required"`
}

// AdjustStock sets the counted quantity after a physical audit.
// @Summary Adjust stock
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path string true "fabric id"
// @Param request body adjustStockRequest true "adjustment"
// @Success 201 {object} response.Response
// @Router /api/v1/fabrics/{id}/adjust [post]
func (h *Handler) AdjustStock(c *gin.Context) {
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	rec, err := h.inventory.Adjust(c.Request.Context(), c.Param("id"),
		req.NewQuantity, middleware.ActorFrom(c).ID, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, rec)
}

// FabricLedger returns a fabric's movement history.
// @Summary Fabric ledger
// @Tags inventory
// @Param id path string true "fabric id"
// @Success 200 {object} response.Response
// @Router /api/v1/fabrics/{id}/ledger [get]
func (h *Handler) FabricLedger(c *gin.Context) {
	rows, err := h.inventory.Ledger(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"list": rows})
}

// ListAlerts returns low stock alerts, open ones by default.
// @Summary List low stock alerts
// @Tags inventory
// @Param all query bool false "include resolved"
// @Success 200 {object} response.Response
// @Router /api/v1/alerts [get]
func (h *Handler) ListAlerts(c *gin.Context) {
	alerts, err := h.inventory.ListAlerts(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"list": alerts})
}

// ResolveAlert closes an open low stock alert.
// @Summary Resolve alert
// @Tags inventory
// @Param id path string true "alert id"
// @Success 200 {object} response.Response
// @Router /api/v1/alerts/{id}/resolve [post]
func (h *Handler) ResolveAlert(c *gin.Context) {
	if err := h.inventory.ResolveAlert(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c).ID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}
