package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/johnauth/internal/observability/logger"
)

// errorResponse controla exactamente qué sale al cliente: solo el mensaje.
type errorResponse struct {
	Message string `json:"message"`
}

// WriteError serializa err como {"message": ...} con su status.
// Los 5xx se loguean con la causa; la causa nunca llega al body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed",
			logger.String("code", appErr.Code),
			logger.Err(appErr.Err),
		)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{Message: appErr.Message})
}
