package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cvbuilder/backend/internal/models"
	"github.com/cvbuilder/backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError maps service errors onto statuses. Anything unexpected
// is logged under op and reported as a retryable failure.
func writeServiceError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(verr.Fields))
	case errors.Is(err, services.ErrNoChanges):
		writeJSON(w, http.StatusUnprocessableEntity, models.NewErrorResponse(services.ErrNoChanges.Error()))
	case errors.Is(err, services.ErrCVNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("CV not found"))
	case errors.Is(err, services.ErrForbidden):
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not authorized to access this CV"))
	case errors.Is(err, services.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
	case errors.Is(err, services.ErrSaveInProgress):
		writeJSON(w, http.StatusConflict, models.NewErrorResponse("A save is already in progress"))
	case errors.Is(err, services.ErrImageUpload):
		logger.Errorw(op+": image upload failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to upload image, please try again"))
	case errors.Is(err, services.ErrImageDelete):
		logger.Errorw(op+": image delete failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete image, please try again"))
	default:
		logger.Errorw(op+": service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Something went wrong, please try again"))
	}
}
