package book

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/nimburion/bookshelf/pkg/controller"
	"github.com/nimburion/bookshelf/pkg/observability/logger"
	"github.com/nimburion/bookshelf/pkg/server/router"
)

// Handler serves the catalog over HTTP.
type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes mounts the catalog routes under /books.
func (h *Handler) RegisterRoutes(r router.Router) {
	books := r.Group("/books")
	books.GET("", h.list)
	books.POST("", h.create)
	books.POST("/search", h.search)
	books.GET("/:id", h.get)
	books.PUT("/:id", h.update)
	books.PATCH("/:id", h.update)
	books.DELETE("/:id", h.delete)
}

// SearchRequest is the body of POST /books/search.
type SearchRequest struct {
	Filter *Filter `json:"filter"`
	Limit  *int    `json:"limit"`
}

// IDResponse is returned by the mutating routes.
type IDResponse struct {
	ID string `json:"id"`
}

// Validate keeps year within the 32-bit range clients of the catalog assume.
func (in Input) Validate() error {
	if in.Year != nil && (*in.Year < math.MinInt32 || *in.Year > math.MaxInt32) {
		return controller.NewValidationError("year must be a 32-bit integer", map[string]interface{}{
			"year": *in.Year,
		})
	}
	return nil
}

func (h *Handler) get(c router.Context) error {
	b, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return controller.Success(c, b)
}

func (h *Handler) list(c router.Context) error {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		return controller.Error(c, err)
	}
	books, err := h.service.List(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return controller.Success(c, books)
}

func (h *Handler) search(c router.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return controller.Error(c, controller.BindError(err))
	}
	books, err := h.service.Search(c.Request().Context(), req.Filter, req.Limit)
	if err != nil {
		return h.fail(c, err)
	}
	return controller.Success(c, books)
}

func (h *Handler) create(c router.Context) error {
	in, err := bindInput(c)
	if err != nil {
		return controller.Error(c, err)
	}
	id, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return controller.Created(c, IDResponse{ID: id})
}

func (h *Handler) update(c router.Context) error {
	in, err := bindInput(c)
	if err != nil {
		return controller.Error(c, err)
	}
	id, err := h.service.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return controller.Success(c, IDResponse{ID: id})
}

func (h *Handler) delete(c router.Context) error {
	id, err := h.service.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return controller.Success(c, IDResponse{ID: id})
}

// fail renders a service error. Storage faults are logged here and reach the
// client as an opaque 500.
func (h *Handler) fail(c router.Context, err error) error {
	if IsNotFound(err) {
		return controller.Error(c, controller.NewNotFoundError("book not found"))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.WithContext(c.Request().Context()).Warn("book request timed out", "error", err)
		return controller.Error(c, controller.NewTimeoutError("request timed out"))
	}
	h.logger.WithContext(c.Request().Context()).Error("book request failed", "error", err)
	return controller.Error(c, controller.NewInternalError("book storage unavailable", err))
}

func bindInput(c router.Context) (Input, error) {
	var in Input
	if err := c.Bind(&in); err != nil {
		return Input{}, controller.BindError(err)
	}
	if err := controller.ValidateDTO(in); err != nil {
		return Input{}, err
	}
	return in, nil
}

// parseLimit reads the limit query parameter. An absent parameter means no limit.
func parseLimit(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, controller.NewValidationError("limit must be an integer", map[string]interface{}{
			"limit": raw,
		})
	}
	return &n, nil
}
