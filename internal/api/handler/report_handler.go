package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tailorshop/pkg/response"
)

// Dashboard returns the cached shop-wide aggregates.
// @Summary Dashboard stats
// @Tags reports
// @Success 200 {object} response.Response{data=service.DashboardStats}
// @Router /api/v1/reports/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, stats)
}

// ExportOrders streams all live orders as CSV.
// @Summary Export orders CSV
// @Tags reports
// @Produce text/csv
// @Success 200 {string} string "csv"
// @Router /api/v1/reports/orders.csv [get]
func (h *Handler) ExportOrders(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
	if err := h.reports.ExportOrdersCSV(c.Request.Context(), c.Writer); err != nil {
		writeError(c, err)
	}
}

// ExportStockLedger streams the full stock ledger as CSV.
// @Summary Export stock ledger CSV
// @Tags reports
// @Produce text/csv
// @Success 200 {string} string "csv"
// @Router /api/v1/reports/stock-ledger.csv [get]
func (h *Handler) ExportStockLedger(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="stock-ledger.csv"`)
	if err := h.reports.ExportStockLedgerCSV(c.Request.Context(), c.Writer); err != nil {
		writeError(c, err)
	}
}
