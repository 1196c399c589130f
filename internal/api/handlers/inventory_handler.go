package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/pkg/response"
)

type InventoryHandler struct {
	svc *application.InventoryService
}

func NewInventoryHandler(svc *application.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

type QuantityOptionsResponse struct {
	Options []int `json:"options"`
}

// ListGPUs godoc
// @Summary GPU availability
// @Description Case-insensitive match of q against server name, rack and model name. An empty q returns every row.
// @Tags inventory
// @Security BearerAuth
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {array} inventory.Availability
// @Failure 500 {object} response.ErrorResponse
// @Router /gpus [get]
func (h *InventoryHandler) ListGPUs(c *gin.Context) {
	rows, err := h.svc.Availability(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListModels godoc
// @Summary GPU models
// @Tags inventory
// @Security BearerAuth
// @Produce json
// @Success 200 {array} inventory.GPUModel
// @Router /gpu-models [get]
func (h *InventoryHandler) ListModels(c *gin.Context) {
	models, err := h.svc.Models(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models)
}

// ListRacks godoc
// @Summary Servers
// @Tags inventory
// @Security BearerAuth
// @Produce json
// @Success 200 {array} inventory.Rack
// @Router /racks [get]
func (h *InventoryHandler) ListRacks(c *gin.Context) {
	racks, err := h.svc.Racks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, racks)
}

// ListRackModels godoc
// @Summary Models with free units on a server
// @Tags inventory
// @Security BearerAuth
// @Produce json
// @Param id path uint true "Server ID"
// @Success 200 {array} inventory.GPUModel
// @Failure 404 {object} response.ErrorResponse
// @Router /racks/{id}/models [get]
func (h *InventoryHandler) ListRackModels(c *gin.Context) {
	rackID, ok := idParam(c, "id")
	if !ok {
		return
	}

	models, err := h.svc.ModelsOnRack(c.Request.Context(), rackID)
	if err != nil {
		h.rackError(c, err)
		return
	}
	c.JSON(http.StatusOK, models)
}

// QuantityOptions godoc
// @Summary Quantities a request may ask for
// @Tags inventory
// @Security BearerAuth
// @Produce json
// @Param id path uint true "Server ID"
// @Param model_id path uint true "GPU model ID"
// @Success 200 {object} QuantityOptionsResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /racks/{id}/models/{model_id}/quantity-options [get]
func (h *InventoryHandler) QuantityOptions(c *gin.Context) {
	rackID, ok := idParam(c, "id")
	if !ok {
		return
	}
	modelID, ok := idParam(c, "model_id")
	if !ok {
		return
	}

	opts, err := h.svc.QuantityOptions(c.Request.Context(), rackID, modelID)
	if err != nil {
		h.rackError(c, err)
		return
	}
	c.JSON(http.StatusOK, QuantityOptionsResponse{Options: opts})
}

func (h *InventoryHandler) rackError(c *gin.Context, err error) {
	if errors.Is(err, application.ErrRackNotFound) {
		c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
}
