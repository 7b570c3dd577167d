package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/repositories"
)

// Upload is a file received for a notice.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
	Image       bool
}

func objectKey(noticeID, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = "file"
	}
	return fmt.Sprintf("notices/%s/%s-%s", noticeID, uuid.NewString(), name)
}

// AddAttachment stores the file and appends a reference to the notice.
func (s *NoticeService) AddAttachment(ctx context.Context, id string, actor *models.Actor, up Upload) (*models.FileRef, error) {
	if s.objects == nil {
		return nil, apperrors.Unavailable("file storage is not configured", nil)
	}
	if up.Size > s.maxUpload {
		return nil, apperrors.Validation(fmt.Sprintf("file exceeds the %d byte limit", s.maxUpload),
			apperrors.FieldError{Field: "file", Error: "file is too large"})
	}

	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(n) {
		return nil, apperrors.Authorization("only the author or an administrator can add files to this notice")
	}

	key := objectKey(n.ID.Hex(), up.Name)
	url, err := s.objects.Upload(ctx, key, up.ContentType, io.LimitReader(up.Body, s.maxUpload))
	if err != nil {
		return nil, apperrors.Unavailable("failed to store file", err)
	}

	ref := models.FileRef{
		ID:         uuid.NewString(),
		Name:       up.Name,
		URL:        url,
		Type:       up.ContentType,
		Size:       up.Size,
		Key:        key,
		UploadedAt: s.now(),
	}
	_, err = s.mutate(ctx, id, func(n *models.Notice) error {
		if !actor.CanManage(n) {
			return apperrors.Authorization("only the author or an administrator can add files to this notice")
		}
		if up.Image {
			n.Images = append(n.Images, ref)
			s.revise(n, actor.ID, "added image "+ref.Name)
		} else {
			n.Attachments = append(n.Attachments, ref)
			s.revise(n, actor.ID, "added attachment "+ref.Name)
		}
		return nil
	})
	if err != nil {
		s.deleteObjects(ctx, key)
		return nil, err
	}
	return &ref, nil
}

// RemoveAttachment drops a file reference and deletes the stored object.
func (s *NoticeService) RemoveAttachment(ctx context.Context, id, fileID string, actor *models.Actor) error {
	var removed models.FileRef
	_, err := s.mutate(ctx, id, func(n *models.Notice) error {
		if !actor.CanManage(n) {
			return apperrors.Authorization("only the author or an administrator can remove files from this notice")
		}
		ref, ok := n.RemoveFile(fileID)
		if !ok {
			return apperrors.NotFound("attachment not found")
		}
		removed = ref
		s.revise(n, actor.ID, "removed "+ref.Name)
		return nil
	})
	if err != nil {
		return err
	}
	s.deleteObjects(ctx, removed.Key)
	return nil
}

// DownloadAttachment counts a download and returns the file reference.
func (s *NoticeService) DownloadAttachment(ctx context.Context, id, fileID string) (*models.FileRef, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	f, ok := n.FindFile(fileID)
	if !ok {
		return nil, apperrors.NotFound("attachment not found")
	}
	ref := *f
	if _, err := s.increment(ctx, id, repositories.CounterDownloads); err != nil {
		return nil, err
	}
	return &ref, nil
}
