package repositories

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/campus-notices/backend/internal/models"
)

// MemoryNoticeRepository keeps notices in process memory. Stored values are copies.
type MemoryNoticeRepository struct {
	mu      sync.RWMutex
	notices map[primitive.ObjectID]*models.Notice
}

var _ NoticeRepository = (*MemoryNoticeRepository)(nil)

func NewMemoryNoticeRepository() *MemoryNoticeRepository {
	return &MemoryNoticeRepository{notices: make(map[primitive.ObjectID]*models.Notice)}
}

func (r *MemoryNoticeRepository) EnsureIndexes(context.Context) error { return nil }

func (r *MemoryNoticeRepository) Create(_ context.Context, notice *models.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notice.ID = primitive.NewObjectID()
	notice.Seq = 1
	notice.PriorityRank = notice.Priority.Rank()
	r.notices[notice.ID] = notice.Clone()
	return nil
}

func (r *MemoryNoticeRepository) GetByID(_ context.Context, id string) (*models.Notice, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notices[objID]
	if !ok {
		return nil, ErrNoticeNotFound
	}
	return n.Clone(), nil
}

func (r *MemoryNoticeRepository) Replace(_ context.Context, notice *models.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.notices[notice.ID]
	if !ok {
		return ErrNoticeNotFound
	}
	if stored.Seq != notice.Seq {
		return ErrStaleNotice
	}
	notice.Seq++
	notice.PriorityRank = notice.Priority.Rank()
	r.notices[notice.ID] = notice.Clone()
	return nil
}

func (r *MemoryNoticeRepository) RecordView(_ context.Context, id string, viewerID uint) (*models.Notice, error) {
	return r.update(id, func(n *models.Notice) {
		n.Statistics.Views++
		for _, v := range n.Statistics.Viewers {
			if v == viewerID {
				return
			}
		}
		n.Statistics.Viewers = append(n.Statistics.Viewers, viewerID)
		n.Statistics.UniqueViews++
	})
}

func (r *MemoryNoticeRepository) Increment(_ context.Context, id string, counter Counter) (*models.Notice, error) {
	return r.update(id, func(n *models.Notice) {
		switch counter {
		case CounterShares:
			n.Statistics.Shares++
		case CounterDownloads:
			n.Statistics.Downloads++
		}
	})
}

// update applies fn to the stored notice under the write lock and advances Seq.
func (r *MemoryNoticeRepository) update(id string, fn func(n *models.Notice)) (*models.Notice, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.notices[objID]
	if !ok {
		return nil, ErrNoticeNotFound
	}
	fn(stored)
	stored.Seq++
	return stored.Clone(), nil
}

func (r *MemoryNoticeRepository) Delete(_ context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notices[objID]; !ok {
		return ErrNoticeNotFound
	}
	delete(r.notices, objID)
	return nil
}

func (r *MemoryNoticeRepository) Find(_ context.Context, q NoticeQuery) ([]models.Notice, int64, error) {
	r.mu.RLock()
	matched := make([]*models.Notice, 0, len(r.notices))
	for _, n := range r.notices {
		if q.matches(n) {
			matched = append(matched, n.Clone())
		}
	}
	r.mu.RUnlock()

	q.sortNotices(matched)

	total := int64(len(matched))
	notices := []models.Notice{}
	start := q.skip()
	if start >= len(matched) {
		return notices, total, nil
	}
	end := start + q.limit()
	if end > len(matched) {
		end = len(matched)
	}
	for _, n := range matched[start:end] {
		notices = append(notices, *n)
	}
	return notices, total, nil
}
