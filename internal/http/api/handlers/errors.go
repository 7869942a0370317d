package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/VisitMappingService/internal/logging"
	"github.com/router-for-me/VisitMappingService/internal/mapping"
	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status           int    `json:"status"`           // HTTP status code.
	UserMessage      string `json:"userMessage"`      // Stable message safe to show callers.
	DeveloperMessage string `json:"developerMessage"` // Diagnostic detail.
}

// AbortWithError writes an ErrorResponse and stops the handler chain.
func AbortWithError(c *gin.Context, status int, userMessage, developerMessage string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:           status,
		UserMessage:      userMessage,
		DeveloperMessage: developerMessage,
	})
}

// badRequest rejects malformed request input that never reached the service.
func badRequest(c *gin.Context, message string) {
	message = "Validation failure: " + message
	AbortWithError(c, http.StatusBadRequest, message, message)
}

// writeServiceError maps a service error onto its HTTP status.
func writeServiceError(c *gin.Context, err error) {
	message := err.Error()
	var mappingErr *mapping.Error
	if errors.As(err, &mappingErr) {
		message = mappingErr.Message
	}

	kind := mapping.KindOf(err)
	if kind != mapping.KindStorage {
		log.WithFields(log.Fields{
			"kind":       kind.String(),
			"request_id": logging.RequestID(c),
		}).Debug(message)
	}
	switch kind {
	case mapping.KindValidation, mapping.KindConflict:
		AbortWithError(c, http.StatusBadRequest, message, err.Error())
	case mapping.KindNotFound:
		AbortWithError(c, http.StatusNotFound, message, message)
	default:
		log.WithError(err).WithFields(log.Fields{
			"kind":       kind.String(),
			"request_id": logging.RequestID(c),
			"path":       c.FullPath(),
		}).Error("mapping request failed")
		AbortWithError(c, http.StatusInternalServerError, "Unexpected error", err.Error())
	}
}
