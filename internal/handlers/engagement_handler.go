package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/campus-notices/backend/internal/middleware"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/services"
)

// EngagementHandler handles likes, bookmarks, comments, shares and acknowledgments
type EngagementHandler struct {
	notices *services.NoticeService
}

func NewEngagementHandler(notices *services.NoticeService) *EngagementHandler {
	return &EngagementHandler{notices: notices}
}

func (h *EngagementHandler) RegisterEngagementRoutes(g *echo.Group, guards Guards) {
	g.POST("/notices/:id/like", h.ToggleLike, guards.Required)
	g.POST("/notices/:id/bookmark", h.ToggleBookmark, guards.Required)
	g.POST("/notices/:id/share", h.Share, guards.Optional)
	g.POST("/notices/:id/acknowledge", h.Acknowledge, guards.Required)
	g.POST("/notices/:id/comments", h.AddComment, guards.Required)
	g.PUT("/notices/:id/comments/:cid", h.UpdateComment, guards.Required)
	g.DELETE("/notices/:id/comments/:cid", h.DeleteComment, guards.Required)
}

type likeResponse struct {
	IsLiked bool `json:"is_liked"`
	Count   int  `json:"count"`
}

type bookmarkResponse struct {
	IsBookmarked bool `json:"is_bookmarked"`
	Count        int  `json:"count"`
}

func (h *EngagementHandler) ToggleLike(c echo.Context) error {
	res, err := h.notices.ToggleLike(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, likeResponse{IsLiked: res.Active, Count: res.Count})
}

func (h *EngagementHandler) ToggleBookmark(c echo.Context) error {
	res, err := h.notices.ToggleBookmark(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, bookmarkResponse{IsBookmarked: res.Active, Count: res.Count})
}

func (h *EngagementHandler) Share(c echo.Context) error {
	shares, err := h.notices.Share(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"shares": shares})
}

func (h *EngagementHandler) Acknowledge(c echo.Context) error {
	count, err := h.notices.Acknowledge(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"acknowledged": true, "count": count})
}

func (h *EngagementHandler) AddComment(c echo.Context) error {
	var req models.CommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	comment, err := h.notices.AddComment(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c), req.Content)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "comment added", comment)
}

func (h *EngagementHandler) UpdateComment(c echo.Context) error {
	var req models.CommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	comment, err := h.notices.UpdateComment(c.Request().Context(), c.Param("id"), c.Param("cid"), middleware.ActorFrom(c), req.Content)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "comment updated", comment)
}

func (h *EngagementHandler) DeleteComment(c echo.Context) error {
	err := h.notices.DeleteComment(c.Request().Context(), c.Param("id"), c.Param("cid"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "comment deleted", nil)
}
