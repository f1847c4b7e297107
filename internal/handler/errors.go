package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"copycorner/internal/apperror"
	"copycorner/internal/middleware"
	"copycorner/pkg/pagination"
	"copycorner/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps a service error onto a status code. Unclassified errors
// are logged and reported without their message.
func respondError(c *gin.Context, err error) {
	if e, ok := apperror.As(err); ok && e.Kind != apperror.KindUnexpected {
		status := apperror.HTTPStatus(e.Kind)
		c.JSON(status, response.ErrorWithDetails(status, e.Message, e.Details))
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Str("request_id", c.GetString(middleware.RequestIDKey)).Err(err).Msg("request timed out")
		c.JSON(http.StatusGatewayTimeout, response.Error(http.StatusGatewayTimeout, "Request timed out"))
		return
	}

	log.Error().
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Err(err).
		Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

func respondList(c *gin.Context, key string, items interface{}, total int64, page *pagination.Params) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope(key, items, total, page)))
}

func forceParam(c *gin.Context) bool {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	return force
}

// pageParam returns the requested page; archived lists are always paginated.
func pageParam(c *gin.Context) *pagination.Params {
	p := pagination.Parse(c)
	return &p
}
