package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowitapp/knowit-backend/internal/platform/apierr"
)

// RespondServiceError maps a service-layer error onto the wire. Typed
// errors keep their status and code; anything else is a plain 500 so
// internals never leak.
func RespondServiceError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		RespondError(c, apiErr.Status, apiErr.Code, apiErr)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal server error"))
}
