package controller

import (
	"net/http"

	"github.com/nimburion/bookshelf/pkg/observability/logger"
	"github.com/nimburion/bookshelf/pkg/server/router"
)

// SuccessResponse is the envelope of every 2xx body: {"data": ..., "request_id": ...}.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

func Success(c router.Context, data interface{}) error {
	return respond(c, http.StatusOK, data)
}

func Created(c router.Context, data interface{}) error {
	return respond(c, http.StatusCreated, data)
}

// Error renders err through MapError.
func Error(c router.Context, err error) error {
	statusCode, errorResponse := MapError(c.Request().Context(), err)
	return c.JSON(statusCode, errorResponse)
}

func respond(c router.Context, status int, data interface{}) error {
	return c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: logger.RequestIDFromContext(c.Request().Context()),
	})
}
