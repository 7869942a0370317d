package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/VisitMappingService/internal/mapping"
	"github.com/router-for-me/VisitMappingService/internal/models"
)

// VisitMappingHandler serves the visit mapping endpoints.
type VisitMappingHandler struct {
	svc *mapping.Service // Mapping rules and storage.
}

// NewVisitMappingHandler constructs a visit mapping handler.
func NewVisitMappingHandler(svc *mapping.Service) *VisitMappingHandler {
	return &VisitMappingHandler{svc: svc}
}

// createVisitMappingRequest captures the payload for creating a mapping.
type createVisitMappingRequest struct {
	LegacyID    *int64 `json:"legacyId"`    // Legacy visit id, required.
	NewID       string `json:"newId"`       // New system visit id.
	Label       string `json:"label"`       // Migration run label, optional.
	MappingType string `json:"mappingType"` // MIGRATED or ONLINE.
}

// visitMappingResponse is the JSON form of a visit mapping.
type visitMappingResponse struct {
	LegacyID    int64     `json:"legacyId"`
	NewID       string    `json:"newId"`
	Label       string    `json:"label"`
	MappingType string    `json:"mappingType"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toVisitMappingResponse(row models.VisitMapping) visitMappingResponse {
	return visitMappingResponse{
		LegacyID:    row.LegacyID,
		NewID:       row.NewID,
		Label:       row.Label,
		MappingType: string(row.MappingType),
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

// Create validates input and records a new mapping.
func (h *VisitMappingHandler) Create(c *gin.Context) {
	var body createVisitMappingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		badRequest(c, "invalid json")
		return
	}
	if body.LegacyID == nil {
		badRequest(c, "legacy visit id is required")
		return
	}

	row, errCreate := h.svc.CreateVisitMapping(c.Request.Context(), mapping.CreateVisitMappingInput{
		LegacyID:    *body.LegacyID,
		NewID:       body.NewID,
		Label:       body.Label,
		MappingType: models.MappingType(strings.TrimSpace(body.MappingType)),
	})
	if errCreate != nil {
		writeServiceError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, toVisitMappingResponse(row))
}

// GetByLegacyID returns the mapping for a legacy visit id.
func (h *VisitMappingHandler) GetByLegacyID(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("legacyId"))
	legacyID, errParse := strconv.ParseInt(raw, 10, 64)
	if errParse != nil {
		badRequest(c, "legacy visit id = "+raw+" is not a number")
		return
	}
	row, errGet := h.svc.GetByLegacyID(c.Request.Context(), legacyID)
	if errGet != nil {
		writeServiceError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toVisitMappingResponse(row))
}

// GetByNewID returns the mapping for a new-system visit id.
func (h *VisitMappingHandler) GetByNewID(c *gin.Context) {
	row, errGet := h.svc.GetByNewID(c.Request.Context(), c.Param("newId"))
	if errGet != nil {
		writeServiceError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toVisitMappingResponse(row))
}

// GetLatestMigrated returns the most recently created migrated mapping.
func (h *VisitMappingHandler) GetLatestMigrated(c *gin.Context) {
	row, errGet := h.svc.GetLatestMigratedMapping(c.Request.Context())
	if errGet != nil {
		writeServiceError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toVisitMappingResponse(row))
}

// ListByMigrationID pages through the migrated mappings carrying a label.
func (h *VisitMappingHandler) ListByMigrationID(c *gin.Context) {
	req, errPage := mapping.ParsePageRequest(c.Query("page"), c.Query("size"), c.QueryArray("sort"))
	if errPage != nil {
		writeServiceError(c, errPage)
		return
	}
	page, errList := h.svc.GetByMigrationLabel(c.Request.Context(), c.Param("migrationId"), req)
	if errList != nil {
		writeServiceError(c, errList)
		return
	}
	c.JSON(http.StatusOK, mapping.MapPage(page, toVisitMappingResponse))
}

// Delete removes migrated mappings, or all visit mappings unless onlyMigrated is set.
func (h *VisitMappingHandler) Delete(c *gin.Context) {
	onlyMigrated := false
	if raw := strings.TrimSpace(c.Query("onlyMigrated")); raw != "" {
		parsed, errParse := strconv.ParseBool(raw)
		if errParse != nil {
			badRequest(c, "onlyMigrated = "+raw+" is not a boolean")
			return
		}
		onlyMigrated = parsed
	}
	if errDelete := h.svc.DeleteVisitMappings(c.Request.Context(), onlyMigrated); errDelete != nil {
		writeServiceError(c, errDelete)
		return
	}
	c.Status(http.StatusNoContent)
}
