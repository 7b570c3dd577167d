package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/repositories"
)

// ToggleResult is the membership state after a like or bookmark toggle.
type ToggleResult struct {
	Active bool
	Count  int
}

// ToggleLike likes the notice, or removes the like when one exists.
func (s *NoticeService) ToggleLike(ctx context.Context, id string, actor *models.Actor) (ToggleResult, error) {
	var res ToggleResult
	_, err := s.mutate(ctx, id, func(n *models.Notice) error {
		if i := n.LikeIndex(actor.ID); i >= 0 {
			n.Likes = append(n.Likes[:i], n.Likes[i+1:]...)
			res.Active = false
		} else {
			n.Likes = append(n.Likes, models.Like{UserID: actor.ID, LikedAt: s.now()})
			res.Active = true
		}
		res.Count = n.LikeCount()
		return nil
	})
	return res, err
}

// ToggleBookmark bookmarks the notice, or removes the bookmark when one exists.
func (s *NoticeService) ToggleBookmark(ctx context.Context, id string, actor *models.Actor) (ToggleResult, error) {
	var res ToggleResult
	_, err := s.mutate(ctx, id, func(n *models.Notice) error {
		if i := n.BookmarkIndex(actor.ID); i >= 0 {
			n.Bookmarks = append(n.Bookmarks[:i], n.Bookmarks[i+1:]...)
			res.Active = false
		} else {
			n.Bookmarks = append(n.Bookmarks, models.Bookmark{UserID: actor.ID, BookmarkedAt: s.now()})
			res.Active = true
		}
		res.Count = n.BookmarkCount()
		return nil
	})
	return res, err
}

func parseCommentID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.NotFound("comment not found")
	}
	return oid, nil
}

func commentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.Validation("comment content is required",
			apperrors.FieldError{Field: "content", Error: "content must not be blank"})
	}
	return content, nil
}

// AddComment appends a comment carrying a snapshot of the commenter's name.
func (s *NoticeService) AddComment(ctx context.Context, id string, actor *models.Actor, content string) (*models.Comment, error) {
	content, err := commentContent(content)
	if err != nil {
		return nil, err
	}
	user, err := s.lookupUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:       primitive.NewObjectID(),
		UserID:   actor.ID,
		UserName: user.FullName(),
		Content:  content,
	}
	n, err := s.mutate(ctx, id, func(n *models.Notice) error {
		if !n.Settings.AllowComments {
			return apperrors.Forbidden("comments are disabled for this notice")
		}
		comment.CreatedAt = s.now()
		n.Comments = append(n.Comments, comment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !n.IsAuthor(actor.ID) {
		s.notify(ctx, []models.Notification{{
			Type:        models.NotificationNoticeComment,
			ActorID:     actor.ID,
			RecipientID: n.Author.ID,
			TargetID:    n.ID.Hex(),
			TargetType:  "notice",
			Message:     fmt.Sprintf("%s commented on %q", comment.UserName, n.Title),
		}})
	}
	return &comment, nil
}

// UpdateComment edits a comment owned by the actor, or any comment for admins.
func (s *NoticeService) UpdateComment(ctx context.Context, id, commentID string, actor *models.Actor, content string) (*models.Comment, error) {
	content, err := commentContent(content)
	if err != nil {
		return nil, err
	}
	cid, err := parseCommentID(commentID)
	if err != nil {
		return nil, err
	}

	var updated models.Comment
	_, err = s.mutate(ctx, id, func(n *models.Notice) error {
		i := n.CommentIndex(cid)
		if i < 0 {
			return apperrors.NotFound("comment not found")
		}
		c := &n.Comments[i]
		if c.UserID != actor.ID && !actor.IsAdmin() {
			return apperrors.Authorization("only the commenter or an administrator can edit this comment")
		}
		now := s.now()
		c.Content = content
		c.IsEdited = true
		c.EditedAt = &now
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteComment removes a comment owned by the actor, or any comment for admins.
func (s *NoticeService) DeleteComment(ctx context.Context, id, commentID string, actor *models.Actor) error {
	cid, err := parseCommentID(commentID)
	if err != nil {
		return err
	}
	_, err = s.mutate(ctx, id, func(n *models.Notice) error {
		i := n.CommentIndex(cid)
		if i < 0 {
			return apperrors.NotFound("comment not found")
		}
		if n.Comments[i].UserID != actor.ID && !actor.IsAdmin() {
			return apperrors.Authorization("only the commenter or an administrator can delete this comment")
		}
		n.Comments = append(n.Comments[:i], n.Comments[i+1:]...)
		return nil
	})
	return err
}

// Acknowledge records that the actor has read a notice requiring acknowledgment.
// Repeated calls keep the first acknowledgment.
func (s *NoticeService) Acknowledge(ctx context.Context, id string, actor *models.Actor) (int, error) {
	n, err := s.mutate(ctx, id, func(n *models.Notice) error {
		if !n.Settings.RequireAcknowledgment {
			return apperrors.Forbidden("this notice does not require acknowledgment")
		}
		if n.HasAcknowledged(actor.ID) {
			return errUnchanged
		}
		n.Acknowledgments = append(n.Acknowledgments, models.Acknowledgment{UserID: actor.ID, AcknowledgedAt: s.now()})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(n.Acknowledgments), nil
}

// Share increments the share counter.
func (s *NoticeService) Share(ctx context.Context, id string) (int64, error) {
	n, err := s.increment(ctx, id, repositories.CounterShares)
	if err != nil {
		return 0, err
	}
	return n.Statistics.Shares, nil
}
