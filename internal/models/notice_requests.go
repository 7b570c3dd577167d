package models

import (
	"strings"
	"time"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
)

// ValidateDates checks the publish, expiry and effective date ordering.
func (n *Notice) ValidateDates() error {
	if n.PublishDate == nil {
		return nil
	}
	var fields []apperrors.FieldError
	if n.ExpiryDate != nil && !n.ExpiryDate.After(*n.PublishDate) {
		fields = append(fields, apperrors.FieldError{Field: "expiry_date", Error: "expiry_date must be after publish_date"})
	}
	if n.EffectiveDate != nil && n.EffectiveDate.Before(*n.PublishDate) {
		fields = append(fields, apperrors.FieldError{Field: "effective_date", Error: "effective_date must not precede publish_date"})
	}
	if len(fields) > 0 {
		return apperrors.Validation("invalid notice dates", fields...)
	}
	return nil
}

// SettingsInput carries optional settings; nil fields keep their current value.
type SettingsInput struct {
	AllowComments         *bool `json:"allow_comments"`
	IsPinned              *bool `json:"is_pinned"`
	IsFeatured            *bool `json:"is_featured"`
	RequireAcknowledgment *bool `json:"require_acknowledgment"`
	SendNotification      *bool `json:"send_notification"`
}

func (in *SettingsInput) applyTo(s *Settings) bool {
	if in == nil {
		return false
	}
	changed := false
	set := func(dst *bool, src *bool) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	set(&s.AllowComments, in.AllowComments)
	set(&s.IsPinned, in.IsPinned)
	set(&s.IsFeatured, in.IsFeatured)
	set(&s.RequireAcknowledgment, in.RequireAcknowledgment)
	set(&s.SendNotification, in.SendNotification)
	return changed
}

type CreateNoticeRequest struct {
	Title          string           `json:"title" validate:"required,notblank,max=200"`
	Content        string           `json:"content" validate:"required,notblank"`
	Summary        string           `json:"summary" validate:"max=500"`
	Type           NoticeType       `json:"type" validate:"required,notice_type"`
	Category       NoticeCategory   `json:"category" validate:"required,notice_category"`
	Priority       NoticePriority   `json:"priority" validate:"omitempty,notice_priority"`
	Status         NoticeStatus     `json:"status" validate:"omitempty,oneof=draft published"`
	Visibility     NoticeVisibility `json:"visibility" validate:"omitempty,notice_visibility"`
	PublishDate    *time.Time       `json:"publish_date"`
	ExpiryDate     *time.Time       `json:"expiry_date"`
	EffectiveDate  *time.Time       `json:"effective_date"`
	TargetAudience *TargetAudience  `json:"target_audience"`
	Settings       *SettingsInput   `json:"settings"`
	Tags           []string         `json:"tags" validate:"max=20,dive,notblank"`
}

// NewNotice builds an unsaved notice with defaults applied.
func (r *CreateNoticeRequest) NewNotice() *Notice {
	n := &Notice{
		Title:         strings.TrimSpace(r.Title),
		Content:       r.Content,
		Summary:       r.Summary,
		Type:          r.Type,
		Category:      r.Category,
		Priority:      r.Priority,
		Status:        r.Status,
		Visibility:    r.Visibility,
		PublishDate:   cloneTime(r.PublishDate),
		ExpiryDate:    cloneTime(r.ExpiryDate),
		EffectiveDate: cloneTime(r.EffectiveDate),
		Settings:      Settings{AllowComments: true},
		Tags:          r.Tags,
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Status == "" {
		n.Status = StatusDraft
	}
	if n.Visibility == "" {
		n.Visibility = VisibilityPublic
	}
	if r.TargetAudience != nil {
		n.TargetAudience = *r.TargetAudience
	}
	r.Settings.applyTo(&n.Settings)
	return n
}

type UpdateNoticeRequest struct {
	Title          *string           `json:"title" validate:"omitempty,notblank,max=200"`
	Content        *string           `json:"content" validate:"omitempty,notblank"`
	Summary        *string           `json:"summary" validate:"omitempty,max=500"`
	Type           *NoticeType       `json:"type" validate:"omitempty,notice_type"`
	Category       *NoticeCategory   `json:"category" validate:"omitempty,notice_category"`
	Priority       *NoticePriority   `json:"priority" validate:"omitempty,notice_priority"`
	Visibility     *NoticeVisibility `json:"visibility" validate:"omitempty,notice_visibility"`
	PublishDate    *time.Time        `json:"publish_date"`
	ExpiryDate     *time.Time        `json:"expiry_date"`
	EffectiveDate  *time.Time        `json:"effective_date"`
	TargetAudience *TargetAudience   `json:"target_audience"`
	Settings       *SettingsInput    `json:"settings"`
	Tags           []string          `json:"tags" validate:"omitempty,max=20,dive,notblank"`
	ChangeNote     string            `json:"change_note" validate:"max=200"`
}

// ApplyTo merges the request into n and returns the names of the changed fields.
func (r *UpdateNoticeRequest) ApplyTo(n *Notice) []string {
	var changed []string
	if r.Title != nil && strings.TrimSpace(*r.Title) != n.Title {
		n.Title = strings.TrimSpace(*r.Title)
		changed = append(changed, "title")
	}
	if r.Content != nil && *r.Content != n.Content {
		n.Content = *r.Content
		changed = append(changed, "content")
	}
	if r.Summary != nil && *r.Summary != n.Summary {
		n.Summary = *r.Summary
		changed = append(changed, "summary")
	}
	if r.Type != nil && *r.Type != n.Type {
		n.Type = *r.Type
		changed = append(changed, "type")
	}
	if r.Category != nil && *r.Category != n.Category {
		n.Category = *r.Category
		changed = append(changed, "category")
	}
	if r.Priority != nil && *r.Priority != n.Priority {
		n.Priority = *r.Priority
		changed = append(changed, "priority")
	}
	if r.Visibility != nil && *r.Visibility != n.Visibility {
		n.Visibility = *r.Visibility
		changed = append(changed, "visibility")
	}
	if r.PublishDate != nil {
		n.PublishDate = cloneTime(r.PublishDate)
		changed = append(changed, "publish_date")
	}
	if r.ExpiryDate != nil {
		n.ExpiryDate = cloneTime(r.ExpiryDate)
		changed = append(changed, "expiry_date")
	}
	if r.EffectiveDate != nil {
		n.EffectiveDate = cloneTime(r.EffectiveDate)
		changed = append(changed, "effective_date")
	}
	if r.TargetAudience != nil {
		n.TargetAudience = *r.TargetAudience
		changed = append(changed, "target_audience")
	}
	if r.Settings.applyTo(&n.Settings) {
		changed = append(changed, "settings")
	}
	if r.Tags != nil {
		n.Tags = r.Tags
		changed = append(changed, "tags")
	}
	return changed
}

// RevisionNote describes the update for the revision history.
func (r *UpdateNoticeRequest) RevisionNote(changed []string) string {
	if note := strings.TrimSpace(r.ChangeNote); note != "" {
		return note
	}
	if len(changed) == 0 {
		return "no changes"
	}
	return "updated " + strings.Join(changed, ", ")
}

type CommentRequest struct {
	Content string `json:"content" validate:"required,notblank,max=1000"`
}

// Bulk actions accepted by the bulk endpoint.
const (
	BulkPublish   = "publish"
	BulkArchive   = "archive"
	BulkDelete    = "delete"
	BulkPin       = "pin"
	BulkUnpin     = "unpin"
	BulkFeature   = "feature"
	BulkUnfeature = "unfeature"
)

type BulkRequest struct {
	NoticeIDs []string `json:"notice_ids" validate:"required,min=1,max=100,dive,required"`
	Action    string   `json:"action" validate:"required,oneof=publish archive delete pin unpin feature unfeature"`
}

// Status values of a single bulk item.
const (
	BulkModified  = "modified"
	BulkSkipped   = "skipped"
	BulkNotFound  = "not_found"
	BulkForbidden = "forbidden"
	BulkFailed    = "failed"
)

type BulkItemResult struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type BulkResult struct {
	Action   string           `json:"action"`
	Modified int              `json:"modified"`
	Results  []BulkItemResult `json:"results"`
}
