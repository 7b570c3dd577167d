package services

import (
	"context"
	"io"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/repositories"
	"github.com/anonto42/campus-notices/backend/pkg/logger"
)

const (
	maxMutationAttempts  = 10
	retryBaseDelay       = 2 * time.Millisecond
	retryMaxDelay        = 80 * time.Millisecond
	defaultHistoryLimit  = 20
	defaultMaxUploadSize = 10 << 20
)

// UserDirectory resolves users for author and commenter snapshots and audience fan-out.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	FindIDsByAudience(ctx context.Context, audience models.TargetAudience) ([]uint, error)
}

type Notifier interface {
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
}

// ObjectStore holds attachment bytes.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

type Options struct {
	HistoryLimit   int
	MaxUploadBytes int64
}

// NoticeService implements the notice lifecycle, engagement and queries.
type NoticeService struct {
	notices      repositories.NoticeRepository
	users        UserDirectory
	notifier     Notifier
	objects      ObjectStore
	log          logger.Logger
	historyLimit int
	maxUpload    int64
	now          func() time.Time
	backoff      func(attempt int) time.Duration
}

// NewNoticeService builds the service. notifier and objects may be nil.
func NewNoticeService(
	notices repositories.NoticeRepository,
	users UserDirectory,
	notifier Notifier,
	objects ObjectStore,
	log logger.Logger,
	opts Options,
) *NoticeService {
	s := &NoticeService{
		notices:      notices,
		users:        users,
		notifier:     notifier,
		objects:      objects,
		log:          log,
		historyLimit: opts.HistoryLimit,
		maxUpload:    opts.MaxUploadBytes,
		now:          func() time.Time { return time.Now().UTC() },
		backoff:      jitteredBackoff,
	}
	if s.historyLimit < 1 {
		s.historyLimit = defaultHistoryLimit
	}
	if s.maxUpload < 1 {
		s.maxUpload = defaultMaxUploadSize
	}
	return s
}

// View adds the derived fields using the service clock.
func (s *NoticeService) View(n *models.Notice) models.NoticeView {
	return n.View(s.now())
}

// errUnchanged ends a mutation without writing.
var errUnchanged = errors.New("notice unchanged")

func isNoticeMissing(err error) bool {
	return errors.Is(err, repositories.ErrNoticeNotFound) || errors.Is(err, repositories.ErrInvalidID)
}

func (s *NoticeService) load(ctx context.Context, id string) (*models.Notice, error) {
	n, err := s.notices.GetByID(ctx, id)
	if err != nil {
		if isNoticeMissing(err) {
			return nil, apperrors.NotFound("notice not found")
		}
		return nil, errors.Wrap(err, "loading notice")
	}
	return n, nil
}

// increment bumps a counter in place, outside the mutate loop.
func (s *NoticeService) increment(ctx context.Context, id string, counter repositories.Counter) (*models.Notice, error) {
	n, err := s.notices.Increment(ctx, id, counter)
	if err != nil {
		if isNoticeMissing(err) {
			return nil, apperrors.NotFound("notice not found")
		}
		return nil, errors.Wrapf(err, "incrementing %s", counter)
	}
	return n, nil
}

// jitteredBackoff waits a random duration up to an exponentially growing cap.
func jitteredBackoff(attempt int) time.Duration {
	d := retryBaseDelay << attempt
	if d <= 0 || d > retryMaxDelay {
		d = retryMaxDelay
	}
	return rand.N(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// mutate loads the notice, applies fn and writes it back, retrying when another
// writer got there first. fn must only touch the notice it is given.
func (s *NoticeService) mutate(ctx context.Context, id string, fn func(n *models.Notice) error) (*models.Notice, error) {
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		n, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(n); err != nil {
			if errors.Is(err, errUnchanged) {
				return n, nil
			}
			return nil, err
		}
		n.UpdatedAt = s.now()
		err = s.notices.Replace(ctx, n)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, repositories.ErrStaleNotice):
			if attempt+1 < maxMutationAttempts {
				if err := sleep(ctx, s.backoff(attempt)); err != nil {
					return nil, errors.Wrap(err, "waiting to retry notice update")
				}
			}
			continue
		case errors.Is(err, repositories.ErrNoticeNotFound):
			return nil, apperrors.NotFound("notice not found")
		default:
			return nil, errors.Wrap(err, "saving notice")
		}
	}
	return nil, apperrors.Conflict("notice was modified concurrently, please retry")
}

func (s *NoticeService) revise(n *models.Notice, by uint, changes string) {
	n.AddRevision(by, s.now(), changes, s.historyLimit)
}

func (s *NoticeService) lookupUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.Authentication("user account not found")
		}
		return nil, errors.Wrap(err, "looking up user")
	}
	return u, nil
}

// Create stores a new notice authored by actor.
func (s *NoticeService) Create(ctx context.Context, req models.CreateNoticeRequest, actor *models.Actor) (*models.Notice, error) {
	author, err := s.lookupUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	n := req.NewNotice()
	n.Author = author.Snapshot()
	if n.Status == models.StatusPublished && n.PublishDate == nil {
		n.PublishDate = &now
	}
	n.ApplyDefaultExpiry()
	if err := n.ValidateDates(); err != nil {
		return nil, err
	}
	n.CreatedAt = now
	n.UpdatedAt = now
	n.AddRevision(actor.ID, now, "created", s.historyLimit)

	if err := s.notices.Create(ctx, n); err != nil {
		return nil, errors.Wrap(err, "creating notice")
	}
	if n.Status == models.StatusPublished && n.Settings.SendNotification {
		s.notifyAudience(ctx, n, actor)
	}
	return n, nil
}

// Get returns a notice, counting a view when the viewer is known. A failure to
// count the view is logged and the notice is still returned.
func (s *NoticeService) Get(ctx context.Context, id string, viewer *models.Actor) (*models.Notice, error) {
	if viewer == nil {
		return s.load(ctx, id)
	}
	n, err := s.notices.RecordView(ctx, id, viewer.ID)
	if err == nil {
		return n, nil
	}
	if isNoticeMissing(err) {
		return nil, apperrors.NotFound("notice not found")
	}
	s.log.Warn("failed to record notice view", errors.Wrap(err, id), viewer)
	return s.load(ctx, id)
}

// Publish moves a notice to published, stamping the publish date when unset.
func (s *NoticeService) Publish(ctx context.Context, id string, actor *models.Actor) (*models.Notice, error) {
	n, err := s.mutate(ctx, id, func(n *models.Notice) error {
		if !actor.CanManage(n) {
			return apperrors.Authorization("only the author or an administrator can publish this notice")
		}
		if n.Status == models.StatusPublished {
			return apperrors.Validation("notice is already published")
		}
		return s.applyPublish(n, actor)
	})
	if err != nil {
		return nil, err
	}
	if n.Settings.SendNotification {
		s.notifyAudience(ctx, n, actor)
	}
	return n, nil
}

func (s *NoticeService) applyPublish(n *models.Notice, actor *models.Actor) error {
	if n.PublishDate == nil {
		now := s.now()
		n.PublishDate = &now
	}
	n.Status = models.StatusPublished
	n.ApplyDefaultExpiry()
	if err := n.ValidateDates(); err != nil {
		return err
	}
	s.revise(n, actor.ID, "published")
	return nil
}

// Archive moves a notice to archived.
func (s *NoticeService) Archive(ctx context.Context, id string, actor *models.Actor) (*models.Notice, error) {
	return s.mutate(ctx, id, func(n *models.Notice) error {
		if !actor.CanManage(n) {
			return apperrors.Authorization("only the author or an administrator can archive this notice")
		}
		if n.Status == models.StatusArchived {
			return apperrors.Validation("notice is already archived")
		}
		n.Status = models.StatusArchived
		s.revise(n, actor.ID, "archived")
		return nil
	})
}

// Update merges req into the notice and records one revision.
func (s *NoticeService) Update(ctx context.Context, id string, req models.UpdateNoticeRequest, actor *models.Actor) (*models.Notice, error) {
	return s.mutate(ctx, id, func(n *models.Notice) error {
		if !actor.CanManage(n) {
			return apperrors.Authorization("only the author or an administrator can update this notice")
		}
		changed := req.ApplyTo(n)
		n.ApplyDefaultExpiry()
		if err := n.ValidateDates(); err != nil {
			return err
		}
		s.revise(n, actor.ID, req.RevisionNote(changed))
		return nil
	})
}

// Delete removes the notice and, best effort, its stored files.
func (s *NoticeService) Delete(ctx context.Context, id string, actor *models.Actor) error {
	n, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManage(n) {
		return apperrors.Authorization("only the author or an administrator can delete this notice")
	}
	if err := s.notices.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNoticeNotFound) {
			return apperrors.NotFound("notice not found")
		}
		return errors.Wrap(err, "deleting notice")
	}
	s.deleteObjects(ctx, n.FileKeys()...)
	return nil
}

// Statistics returns the aggregate counters to the author or an administrator.
func (s *NoticeService) Statistics(ctx context.Context, id string, actor *models.Actor) (*models.NoticeStatistics, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(n) {
		return nil, apperrors.Authorization("only the author or an administrator can view statistics")
	}
	stats := n.Stats()
	return &stats, nil
}

func (s *NoticeService) deleteObjects(ctx context.Context, keys ...string) {
	if s.objects == nil {
		return
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.objects.Delete(ctx, key); err != nil {
			s.log.Warn("failed to delete stored file", errors.Wrap(err, key))
		}
	}
}
