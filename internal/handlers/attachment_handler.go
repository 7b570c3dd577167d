package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/middleware"
	"github.com/anonto42/campus-notices/backend/internal/services"
)

// AttachmentHandler handles notice files
type AttachmentHandler struct {
	notices *services.NoticeService
}

func NewAttachmentHandler(notices *services.NoticeService) *AttachmentHandler {
	return &AttachmentHandler{notices: notices}
}

func (h *AttachmentHandler) RegisterAttachmentRoutes(g *echo.Group, guards Guards) {
	g.POST("/notices/:id/attachments", h.UploadAttachment, guards.Required)
	g.GET("/notices/:id/attachments/:aid", h.DownloadAttachment, guards.Optional)
	g.DELETE("/notices/:id/attachments/:aid", h.DeleteAttachment, guards.Required)
}

func (h *AttachmentHandler) UploadAttachment(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperrors.Validation("file is required",
			apperrors.FieldError{Field: "file", Error: "file is a required field"})
	}
	file, err := fh.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	ref, err := h.notices.AddAttachment(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c), services.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        file,
		Image:       c.FormValue("kind") == "image",
	})
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "file uploaded", ref)
}

func (h *AttachmentHandler) DownloadAttachment(c echo.Context) error {
	ref, err := h.notices.DownloadAttachment(c.Request().Context(), c.Param("id"), c.Param("aid"))
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, ref.URL)
}

func (h *AttachmentHandler) DeleteAttachment(c echo.Context) error {
	if err := h.notices.RemoveAttachment(c.Request().Context(), c.Param("id"), c.Param("aid"), middleware.ActorFrom(c)); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "file removed", nil)
}
