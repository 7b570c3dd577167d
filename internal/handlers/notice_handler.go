package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/middleware"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/services"
)

// Guards are the middlewares routes pick from.
type Guards struct {
	Required echo.MiddlewareFunc
	Optional echo.MiddlewareFunc
	Bulk     echo.MiddlewareFunc
}

// NoticeHandler handles notice HTTP requests
type NoticeHandler struct {
	notices *services.NoticeService
}

func NewNoticeHandler(notices *services.NoticeService) *NoticeHandler {
	return &NoticeHandler{notices: notices}
}

// RegisterNoticeRoutes registers notice lifecycle and listing routes
func (h *NoticeHandler) RegisterNoticeRoutes(g *echo.Group, guards Guards) {
	g.POST("/notices", h.CreateNotice, guards.Required)
	g.GET("/notices", h.ListNotices, guards.Optional)
	g.GET("/notices/urgent", h.UrgentNotices, guards.Optional)
	g.GET("/notices/featured", h.FeaturedNotices, guards.Optional)
	g.GET("/notices/bookmarked", h.BookmarkedNotices, guards.Required)
	g.GET("/notices/search", h.SearchNotices, guards.Optional)
	g.POST("/notices/bulk", h.BulkAction, guards.Required, guards.Bulk)
	g.GET("/notices/:id", h.GetNotice, guards.Optional)
	g.PUT("/notices/:id", h.UpdateNotice, guards.Required)
	g.DELETE("/notices/:id", h.DeleteNotice, guards.Required)
	g.POST("/notices/:id/publish", h.PublishNotice, guards.Required)
	g.POST("/notices/:id/archive", h.ArchiveNotice, guards.Required)
	g.GET("/notices/:id/statistics", h.NoticeStatistics, guards.Required)
}

func (h *NoticeHandler) CreateNotice(c echo.Context) error {
	var req models.CreateNoticeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	n, err := h.notices.Create(c.Request().Context(), req, middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "notice created", h.notices.View(n))
}

func (h *NoticeHandler) ListNotices(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.notices.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

func (h *NoticeHandler) UrgentNotices(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.notices.Urgent(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

func (h *NoticeHandler) FeaturedNotices(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.notices.Featured(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

func (h *NoticeHandler) BookmarkedNotices(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.notices.Bookmarked(c.Request().Context(), middleware.ActorFrom(c), p)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

func (h *NoticeHandler) SearchNotices(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.notices.Search(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

func (h *NoticeHandler) GetNotice(c echo.Context) error {
	n, err := h.notices.Get(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, h.notices.View(n))
}

func (h *NoticeHandler) UpdateNotice(c echo.Context) error {
	var req models.UpdateNoticeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	n, err := h.notices.Update(c.Request().Context(), c.Param("id"), req, middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "notice updated", h.notices.View(n))
}

func (h *NoticeHandler) DeleteNotice(c echo.Context) error {
	if err := h.notices.Delete(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c)); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "notice deleted", nil)
}

func (h *NoticeHandler) PublishNotice(c echo.Context) error {
	n, err := h.notices.Publish(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "notice published", h.notices.View(n))
}

func (h *NoticeHandler) ArchiveNotice(c echo.Context) error {
	n, err := h.notices.Archive(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "notice archived", h.notices.View(n))
}

func (h *NoticeHandler) NoticeStatistics(c echo.Context) error {
	stats, err := h.notices.Statistics(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}

func (h *NoticeHandler) BulkAction(c echo.Context) error {
	var req models.BulkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.notices.Bulk(c.Request().Context(), req, middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, res)
}

// listParams reads the listing query string. Enum values are checked by the service.
func listParams(c echo.Context) (services.ListParams, error) {
	var fields []apperrors.FieldError
	invalid := func(field, msg string) {
		fields = append(fields, apperrors.FieldError{Field: field, Error: msg})
	}
	intParam := func(name string) int {
		raw := c.QueryParam(name)
		if raw == "" {
			return 0
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalid(name, name+" must be a number")
		}
		return v
	}
	boolParam := func(name string) *bool {
		raw := c.QueryParam(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			invalid(name, name+" must be true or false")
			return nil
		}
		return &v
	}
	timeParam := func(name string) *time.Time {
		raw := c.QueryParam(name)
		if raw == "" {
			return nil
		}
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			invalid(name, name+" must be an RFC3339 timestamp")
			return nil
		}
		return &v
	}

	p := services.ListParams{
		Type:         c.QueryParam("type"),
		Category:     c.QueryParam("category"),
		Priority:     c.QueryParam("priority"),
		Status:       c.QueryParam("status"),
		AudienceRole: c.QueryParam("audience_role"),
		Search:       c.QueryParam("q"),
		Sort:         c.QueryParam("sort"),
		Order:        c.QueryParam("order"),
		Page:         intParam("page"),
		Limit:        intParam("limit"),
		Featured:     boolParam("featured"),
		Pinned:       boolParam("pinned"),
		From:         timeParam("from"),
		To:           timeParam("to"),
	}
	if raw := c.QueryParam("author_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			invalid("author_id", "author_id must be a user id")
		}
		p.AuthorID = uint(id)
	}
	if len(fields) > 0 {
		return p, apperrors.Validation("invalid query parameters", fields...)
	}
	return p, nil
}
