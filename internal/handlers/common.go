package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/walkin/intake/internal/intake"
	"github.com/walkin/intake/internal/models"
	"github.com/walkin/intake/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeDraftError maps engine and session errors to a response.
func writeDraftError(w http.ResponseWriter, op string, err error) {
	var verr *intake.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(verr.Fields))
	case errors.Is(err, services.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Intake session not found"))
	case errors.Is(err, intake.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Item not found"))
	case errors.Is(err, intake.ErrFixedCondition),
		errors.Is(err, intake.ErrDerivedQuantity),
		errors.Is(err, intake.ErrNotEstimated):
		writeJSON(w, http.StatusUnprocessableEntity, models.NewErrorResponse(err.Error()))
	case errors.Is(err, intake.ErrInvalidValue),
		errors.Is(err, intake.ErrUnknownField),
		errors.Is(err, intake.ErrInvalidMethod),
		errors.Is(err, intake.ErrInvalidItemType),
		errors.Is(err, intake.ErrDuplicateItemType):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse(err.Error()))
	case errors.Is(err, intake.ErrInvalidTransition),
		errors.Is(err, intake.ErrDraftClosed),
		errors.Is(err, intake.ErrSubmitInProgress):
		writeJSON(w, http.StatusConflict, models.NewErrorResponse(err.Error()))
	case errors.Is(err, intake.ErrNoDonationService):
		writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Donation service not configured"))
	case errors.Is(err, intake.ErrSubmissionFailed):
		log.Printf("[%s] %v", op, err)
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to submit donation, please retry"))
	default:
		log.Printf("[%s] unexpected error: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Internal error"))
	}
}
