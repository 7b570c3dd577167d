package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/repositories"
)

// Bulk applies one action to many notices and reports the outcome per id.
// Items the actor may not manage are reported as forbidden and left untouched.
func (s *NoticeService) Bulk(ctx context.Context, req models.BulkRequest, actor *models.Actor) (*models.BulkResult, error) {
	apply, ok := s.bulkActions()[req.Action]
	if !ok && req.Action != models.BulkDelete {
		return nil, apperrors.Validation("unsupported bulk action",
			apperrors.FieldError{Field: "action", Error: "action must be one of publish, archive, delete, pin, unpin, feature, unfeature"})
	}

	result := &models.BulkResult{Action: req.Action, Results: []models.BulkItemResult{}}
	seen := make(map[string]struct{}, len(req.NoticeIDs))
	for _, id := range req.NoticeIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		var item models.BulkItemResult
		if req.Action == models.BulkDelete {
			item = s.bulkItem(id, s.Delete(ctx, id, actor), false)
		} else {
			item = s.bulkMutate(ctx, id, actor, apply)
		}
		if item.Status == models.BulkModified {
			result.Modified++
		}
		result.Results = append(result.Results, item)
	}

	if req.Action == models.BulkPublish {
		s.notifyPublished(ctx, result, actor)
	}
	return result, nil
}

type bulkApply func(n *models.Notice, actor *models.Actor) (changed bool, err error)

func (s *NoticeService) bulkActions() map[string]bulkApply {
	setFlag := func(flag func(n *models.Notice) *bool, value bool, note string) bulkApply {
		return func(n *models.Notice, actor *models.Actor) (bool, error) {
			f := flag(n)
			if *f == value {
				return false, nil
			}
			*f = value
			s.revise(n, actor.ID, note)
			return true, nil
		}
	}
	pinned := func(n *models.Notice) *bool { return &n.Settings.IsPinned }
	featured := func(n *models.Notice) *bool { return &n.Settings.IsFeatured }

	return map[string]bulkApply{
		models.BulkPublish: func(n *models.Notice, actor *models.Actor) (bool, error) {
			if n.Status == models.StatusPublished {
				return false, nil
			}
			return true, s.applyPublish(n, actor)
		},
		models.BulkArchive: func(n *models.Notice, actor *models.Actor) (bool, error) {
			if n.Status == models.StatusArchived {
				return false, nil
			}
			n.Status = models.StatusArchived
			s.revise(n, actor.ID, "archived")
			return true, nil
		},
		models.BulkPin:       setFlag(pinned, true, "pinned"),
		models.BulkUnpin:     setFlag(pinned, false, "unpinned"),
		models.BulkFeature:   setFlag(featured, true, "featured"),
		models.BulkUnfeature: setFlag(featured, false, "unfeatured"),
	}
}

func (s *NoticeService) bulkMutate(ctx context.Context, id string, actor *models.Actor, apply bulkApply) models.BulkItemResult {
	skipped := false
	_, err := s.mutate(ctx, id, func(n *models.Notice) error {
		if !actor.CanManage(n) {
			return apperrors.Authorization("not the author of this notice")
		}
		changed, err := apply(n, actor)
		if err != nil {
			return err
		}
		if !changed {
			skipped = true
			return errUnchanged
		}
		return nil
	})
	return s.bulkItem(id, err, skipped)
}

func (s *NoticeService) bulkItem(id string, err error, skipped bool) models.BulkItemResult {
	item := models.BulkItemResult{ID: id}
	switch {
	case err == nil && skipped:
		item.Status = models.BulkSkipped
	case err == nil:
		item.Status = models.BulkModified
	case apperrors.Is(err, apperrors.KindNotFound):
		item.Status = models.BulkNotFound
	case apperrors.Is(err, apperrors.KindAuthorization):
		item.Status = models.BulkForbidden
	default:
		item.Status = models.BulkFailed
		if appErr, ok := apperrors.As(err); ok && appErr.Kind != apperrors.KindInternal {
			item.Message = appErr.Message
		} else {
			item.Message = "internal error"
			s.log.Error("bulk action failed", errors.Wrap(err, id))
		}
	}
	return item
}

// notifyPublished fans out notifications for the newly published notices that ask for it.
func (s *NoticeService) notifyPublished(ctx context.Context, result *models.BulkResult, actor *models.Actor) {
	for _, item := range result.Results {
		if item.Status != models.BulkModified {
			continue
		}
		n, err := s.notices.GetByID(ctx, item.ID)
		if err != nil {
			if !errors.Is(err, repositories.ErrNoticeNotFound) {
				s.log.Warn("failed to reload published notice", errors.Wrap(err, item.ID))
			}
			continue
		}
		if n.Settings.SendNotification {
			s.notifyAudience(ctx, n, actor)
		}
	}
}
