package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/repositories"
)

// ListParams are the raw listing inputs; enum values are checked before any query runs.
type ListParams struct {
	Type         string
	Category     string
	Priority     string
	Status       string
	AuthorID     uint
	AudienceRole string
	Featured     *bool
	Pinned       *bool
	From         *time.Time
	To           *time.Time
	Search       string
	Sort         string
	Order        string
	Page         int
	Limit        int
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type NoticePage struct {
	Notices    []models.NoticeView `json:"notices"`
	Pagination Pagination          `json:"pagination"`
}

func (p ListParams) query() (repositories.NoticeQuery, error) {
	var fields []apperrors.FieldError
	invalid := func(field, msg string) {
		fields = append(fields, apperrors.FieldError{Field: field, Error: msg})
	}

	q := repositories.NoticeQuery{
		Type:         models.NoticeType(p.Type),
		Category:     models.NoticeCategory(p.Category),
		Priority:     models.NoticePriority(p.Priority),
		Status:       models.NoticeStatus(p.Status),
		AuthorID:     p.AuthorID,
		AudienceRole: p.AudienceRole,
		Featured:     p.Featured,
		Pinned:       p.Pinned,
		From:         p.From,
		To:           p.To,
		Search:       strings.TrimSpace(p.Search),
		Sort:         p.Sort,
		Page:         p.Page,
		Limit:        p.Limit,
	}
	if q.Type != "" && !q.Type.Valid() {
		invalid("type", "type must be a valid notice type")
	}
	if q.Category != "" && !q.Category.Valid() {
		invalid("category", "category must be a valid notice category")
	}
	if q.Priority != "" && !q.Priority.Valid() {
		invalid("priority", "priority must be one of low, medium, high, urgent")
	}
	if q.Status != "" && !q.Status.Valid() {
		invalid("status", "status must be a valid notice status")
	}
	if q.Sort != "" && !repositories.IsSortField(q.Sort) {
		invalid("sort", "sort must be one of publish_date, created_at, updated_at, priority, title, views")
	}
	switch strings.ToLower(p.Order) {
	case "", "desc":
	case "asc":
		q.Asc = true
	default:
		invalid("order", "order must be asc or desc")
	}
	if p.Page < 0 {
		invalid("page", "page must be a positive number")
	}
	if p.Limit < 0 {
		invalid("limit", "limit must be a positive number")
	}
	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		invalid("from", "from must not be after to")
	}
	if len(fields) > 0 {
		return q, apperrors.Validation("invalid query parameters", fields...)
	}

	if q.Page == 0 {
		q.Page = repositories.DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = repositories.DefaultLimit
	}
	if q.Limit > repositories.MaxLimit {
		q.Limit = repositories.MaxLimit
	}
	return q, nil
}

func (s *NoticeService) find(ctx context.Context, q repositories.NoticeQuery) (*NoticePage, error) {
	notices, total, err := s.notices.Find(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "finding notices")
	}

	now := s.now()
	views := make([]models.NoticeView, len(notices))
	for i := range notices {
		views[i] = notices[i].View(now)
	}
	return &NoticePage{
		Notices: views,
		Pagination: Pagination{
			Page:  q.Page,
			Limit: q.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(q.Limit))),
		},
	}, nil
}

// List returns notices matching p.
func (s *NoticeService) List(ctx context.Context, p ListParams) (*NoticePage, error) {
	q, err := p.query()
	if err != nil {
		return nil, err
	}
	return s.find(ctx, q)
}

// Urgent lists active notices with urgent priority.
func (s *NoticeService) Urgent(ctx context.Context, p ListParams) (*NoticePage, error) {
	p.Priority = string(models.PriorityUrgent)
	q, err := p.query()
	if err != nil {
		return nil, err
	}
	now := s.now()
	q.ActiveAt = &now
	return s.find(ctx, q)
}

// Featured lists active notices flagged as featured.
func (s *NoticeService) Featured(ctx context.Context, p ListParams) (*NoticePage, error) {
	featured := true
	p.Featured = &featured
	q, err := p.query()
	if err != nil {
		return nil, err
	}
	now := s.now()
	q.ActiveAt = &now
	return s.find(ctx, q)
}

// Bookmarked lists published notices bookmarked by the actor.
func (s *NoticeService) Bookmarked(ctx context.Context, actor *models.Actor, p ListParams) (*NoticePage, error) {
	p.Status = string(models.StatusPublished)
	q, err := p.query()
	if err != nil {
		return nil, err
	}
	q.BookmarkedBy = actor.ID
	return s.find(ctx, q)
}

// Search runs a free-text search; the term is required.
func (s *NoticeService) Search(ctx context.Context, p ListParams) (*NoticePage, error) {
	if strings.TrimSpace(p.Search) == "" {
		return nil, apperrors.Validation("search term is required",
			apperrors.FieldError{Field: "q", Error: "q is a required field"})
	}
	return s.List(ctx, p)
}
