package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/knowitapp/knowit-backend/internal/http/response"
	errs "github.com/knowitapp/knowit-backend/internal/pkg/errors"
	"github.com/knowitapp/knowit-backend/internal/platform/apierr"
	"github.com/knowitapp/knowit-backend/internal/requestdata"
)

// paramID parses a numeric path parameter. A non-numeric or
// non-positive value is rejected before any store access.
func paramID(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", apierr.BadRequest("invalid_id", errs.ErrInvalidArgument))
		return 0, false
	}
	return uint(id), true
}

func callerID(c *gin.Context) (uint, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == 0 {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", apierr.Unauthorized("unauthorized", errs.ErrUnauthorized))
		return 0, false
	}
	return rd.UserID, true
}
