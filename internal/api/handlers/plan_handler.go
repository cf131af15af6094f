package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/novamart/demand-planner/internal/config"
	"github.com/novamart/demand-planner/internal/domain"
	"github.com/novamart/demand-planner/internal/planner"
	"github.com/novamart/demand-planner/internal/service"
)

type PlanHandler struct {
	service  *service.PlanService
	defaults config.PlannerConfig
}

func NewPlanHandler(service *service.PlanService, defaults config.PlannerConfig) *PlanHandler {
	return &PlanHandler{service: service, defaults: defaults}
}

// planRequest is the JSON body for plan computation. Omitted fields pick up
// the configured defaults; everything is validated by the planner before any
// computation runs. ordering_cost and safety_stock_pct are pointers because
// an explicit zero is a legal value there and must not be mistaken for an
// omitted field.
type planRequest struct {
	ProductID          string   `json:"product_id"`
	HorizonDays        int      `json:"horizon_days"`
	LeadTimeDays       float64  `json:"lead_time_days"`
	ServiceLevel       float64  `json:"service_level"`
	SafetyStockMethod  string   `json:"safety_stock_method"`
	SafetyStockPct     *float64 `json:"safety_stock_pct"`
	OrderingCost       *float64 `json:"ordering_cost"`
	HoldingCostPerUnit float64  `json:"holding_cost_per_unit"`
	OnHandQuantity     float64  `json:"on_hand_quantity"`
	SeasonalPeriod     int      `json:"seasonal_period"`
	AROrder            [3]int   `json:"ar_order"`
}

func (h *PlanHandler) toPlannerRequest(body planRequest) planner.Request {
	req := planner.Request{
		ProductID:          body.ProductID,
		HorizonDays:        body.HorizonDays,
		LeadTimeDays:       body.LeadTimeDays,
		ServiceLevel:       body.ServiceLevel,
		SafetyStockMethod:  domain.SafetyStockMethod(body.SafetyStockMethod),
		SafetyStockPct:     h.defaults.SafetyStockPct,
		OrderingCost:       h.defaults.OrderingCost,
		HoldingCostPerUnit: body.HoldingCostPerUnit,
		OnHandQuantity:     body.OnHandQuantity,
		SeasonalPeriod:     body.SeasonalPeriod,
		AROrder:            body.AROrder,
	}
	if body.SafetyStockPct != nil {
		req.SafetyStockPct = *body.SafetyStockPct
	}
	if body.OrderingCost != nil {
		req.OrderingCost = *body.OrderingCost
	}
	if req.HorizonDays == 0 {
		req.HorizonDays = h.defaults.HorizonDays
	}
	if req.LeadTimeDays == 0 {
		req.LeadTimeDays = h.defaults.LeadTimeDays
	}
	if req.ServiceLevel == 0 {
		req.ServiceLevel = h.defaults.ServiceLevel
	}
	if req.SafetyStockMethod == "" {
		req.SafetyStockMethod = domain.SafetyStockMethod(h.defaults.SafetyStockMethod)
	}
	if req.HoldingCostPerUnit == 0 {
		req.HoldingCostPerUnit = h.defaults.HoldingCostPerUnit
	}
	return req
}

// ComputePlan handles POST /plans/compute.
func (h *PlanHandler) ComputePlan(c *gin.Context) {
	var body planRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.ProductID == "" {
		errorResponse(c, http.StatusBadRequest, "product_id is required")
		return
	}

	plan, err := h.service.ComputePlan(c.Request.Context(), h.toPlannerRequest(body))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// ComputeAllPlans handles POST /plans/compute_all.
func (h *PlanHandler) ComputeAllPlans(c *gin.Context) {
	var body planRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.ComputeAllPlans(c.Request.Context(), h.toPlannerRequest(body))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLatestPlan handles GET /plans/:product, serving the most recently
// persisted plan from the archive without recomputation.
func (h *PlanHandler) GetLatestPlan(c *gin.Context) {
	stored, err := h.service.LatestPlan(c.Request.Context(), c.Param("product"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if stored == nil {
		errorResponse(c, http.StatusNotFound, "no stored plan for product "+c.Param("product"))
		return
	}
	c.JSON(http.StatusOK, stored)
}

// GetPlannedProducts handles GET /plans.
func (h *PlanHandler) GetPlannedProducts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		errorResponse(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	products, err := h.service.PlannedProducts(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProducts handles GET /products.
func (h *PlanHandler) GetProducts(c *gin.Context) {
	products, err := h.service.Products(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetSummary handles GET /summary.
func (h *PlanHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetProductSummary handles GET /products/:product/summary.
func (h *PlanHandler) GetProductSummary(c *gin.Context) {
	summary, err := h.service.ProductSummary(c.Request.Context(), c.Param("product"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// respondDomainError maps the engine's error taxonomy onto HTTP statuses:
// bad configuration is the caller's fault, missing history is a 404-shaped
// condition, anything else is a server error.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsInvalidParameter(err):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case domain.IsInsufficientData(err):
		errorResponse(c, http.StatusNotFound, err.Error())
	default:
		errorResponse(c, http.StatusInternalServerError, err.Error())
	}
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
