package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/walkin/intake/internal/estimation"
	"github.com/walkin/intake/internal/models"
	"github.com/walkin/intake/internal/services"
)

type CatalogHandler struct {
	catalog   *services.CatalogService
	estimator *estimation.Estimator
}

func NewCatalogHandler(catalog *services.CatalogService, estimator *estimation.Estimator) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, estimator: estimator}
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(h.catalog.Categories(r.Context())))
}

func (h *CatalogHandler) ListContainers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(h.estimator.Catalog().ContainerTypes()))
}

type estimateResponse struct {
	ContainerType    string  `json:"container_type"`
	ItemName         string  `json:"item_name"`
	Quantity         int     `json:"quantity"`
	TotalItems       int     `json:"total_items,omitempty"`
	AssortedQuantity int     `json:"assorted_quantity,omitempty"`
	Condition        string  `json:"condition,omitempty"`
	ConditionValue   float64 `json:"condition_value"`
}

// Estimate exposes the pure helpers so the front end can preview numbers
// before anything is added to a draft.
func (h *CatalogHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	containerType := strings.TrimSpace(q.Get("container_type"))
	itemName := strings.TrimSpace(q.Get("item"))

	errors := map[string]string{}
	if containerType == "" {
		errors["container_type"] = "Container type is required"
	}
	if itemName == "" {
		errors["item"] = "Item name is required"
	}
	if len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	resp := estimateResponse{
		ContainerType: containerType,
		ItemName:      itemName,
		Quantity:      h.estimator.EstimateQuantity(containerType, itemName),
	}

	if raw := q.Get("total_items"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid total_items"))
			return
		}
		resp.TotalItems = n
		resp.AssortedQuantity = h.estimator.EstimateAssortedQuantity(containerType, itemName, n)
	}

	if cond := strings.TrimSpace(q.Get("condition")); cond != "" {
		base, err := strconv.ParseFloat(q.Get("base_value"), 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid base_value"))
			return
		}
		resp.Condition = cond
		resp.ConditionValue = estimation.ComputeConditionValue(base, models.Condition(cond))
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(resp))
}
