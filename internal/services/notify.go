package services

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/anonto42/campus-notices/backend/internal/models"
)

// notifyAudience notifies the targeted readers of a published notice, except its author.
// Failures are logged and never fail the calling operation.
func (s *NoticeService) notifyAudience(ctx context.Context, n *models.Notice, actor *models.Actor) {
	if s.notifier == nil {
		return
	}
	ids, err := s.users.FindIDsByAudience(ctx, n.TargetAudience)
	if err != nil {
		s.log.Warn("failed to resolve notice audience", errors.Wrap(err, n.ID.Hex()), actor)
		return
	}

	msg := fmt.Sprintf("New notice: %s", n.Title)
	notifications := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		if id == n.Author.ID {
			continue
		}
		notifications = append(notifications, models.Notification{
			Type:        models.NotificationNoticePublished,
			ActorID:     actor.ID,
			RecipientID: id,
			TargetID:    n.ID.Hex(),
			TargetType:  "notice",
			Message:     msg,
			CreatedAt:   s.now(),
		})
	}
	s.notify(ctx, notifications)
}

func (s *NoticeService) notify(ctx context.Context, notifications []models.Notification) {
	if s.notifier == nil || len(notifications) == 0 {
		return
	}
	now := s.now()
	for i := range notifications {
		if notifications[i].CreatedAt.IsZero() {
			notifications[i].CreatedAt = now
		}
	}
	if err := s.notifier.CreateNotifications(ctx, notifications); err != nil {
		s.log.Warn("failed to create notifications", err)
	}
}
