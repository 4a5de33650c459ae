package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tailorshop/internal/api/middleware"
	"github.com/d60-Lab/tailorshop/internal/service"
	"github.com/d60-Lab/tailorshop/pkg/response"
)

type createCustomerRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=150"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	FullName     string `json:"full_name" binding:"required"`
	PhoneNumber  string `json:"phone_number" binding:"required,phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	State        string `json:"state"`
	Country      string `json:"country"`
	AllowContact *bool  `json:"allow_contact"`
}

// CreateCustomer registers a customer with their profile.
// @Summary Create customer
// @Tags customers
// @Accept json
// @Produce json
// @Param request body createCustomerRequest true "customer"
// @Success 201 {object} response.Response
// @Router /api/v1/customers [post]
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	allowContact := true
	if req.AllowContact != nil {
		allowContact = *req.AllowContact
	}
	profile, err := h.customers.Create(c.Request.Context(), middleware.ActorFrom(c), service.CreateCustomerInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		PostalCode:   req.PostalCode,
		State:        req.State,
		Country:      req.Country,
		AllowContact: allowContact,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, profile)
}

// GetCustomer returns one profile.
// @Summary Get customer
// @Tags customers
// @Param id path string true "customer id"
// @Success 200 {object} response.Response
// @Router /api/v1/customers/{id} [get]
func (h *Handler) GetCustomer(c *gin.Context) {
	profile, err := h.customers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, profile)
}

// ListCustomers pages through live profiles.
// @Summary List customers
// @Tags customers
// @Param limit query int false "page size" default(50)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} response.Response
// @Router /api/v1/customers [get]
func (h *Handler) ListCustomers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	profiles, err := h.customers.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"limit": limit, "offset": offset, "list": profiles})
}

type recordMeasurementsRequest struct {
	GarmentTypeID string             `json:"garment_type_id" binding:"required"`
	IsDefault     bool               `json:"is_default"`
	Notes         string             `json:"notes"`
	Unit          string             `json:"unit"`
	Values        map[string]float64 `json:"values" binding:"required"`
}

// RecordMeasurements stores a measurement set for a customer.
// @Summary Record measurements
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "customer id"
// @Param request body recordMeasurementsRequest true "measurements"
// @Success 201 {object} response.Response
// @Router /api/v1/customers/{id}/measurements [post]
func (h *Handler) RecordMeasurements(c *gin.Context) {
	var req recordMeasurementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	set, err := h.customers.RecordMeasurements(c.Request.Context(), middleware.ActorFrom(c), service.RecordMeasurementsInput{
		CustomerID:    c.Param("id"),
		GarmentTypeID: req.GarmentTypeID,
		IsDefault:     req.IsDefault,
		Notes:         req.Notes,
		Unit:          req.Unit,
		Values:        req.Values,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, set)
}
