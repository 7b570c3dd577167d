package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/campus-notices/backend/internal/models"
)

var base = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *MemoryNoticeRepository, notices ...*models.Notice) {
	for _, n := range notices {
		require.NoError(t, repo.Create(context.Background(), n))
	}
}

func published(title string, offset time.Duration) *models.Notice {
	pd := base.Add(offset)
	return &models.Notice{
		Title:       title,
		Content:     "details",
		Type:        models.TypeAnnouncement,
		Category:    models.CategoryAll,
		Priority:    models.PriorityMedium,
		Status:      models.StatusPublished,
		PublishDate: &pd,
	}
}

func TestMemoryFindPagination(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	for i := 0; i < 12; i++ {
		seed(t, repo, published(fmt.Sprintf("notice %d", i), time.Duration(i)*time.Hour))
	}

	notices, total, err := repo.Find(context.Background(), NoticeQuery{Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, notices, 2)
	assert.Equal(t, "notice 1", notices[0].Title)
	assert.Equal(t, "notice 0", notices[1].Title)

	notices, total, err = repo.Find(context.Background(), NoticeQuery{Page: 9, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.NotNil(t, notices)
	assert.Empty(t, notices)
}

func TestMemoryFindPinnedFirst(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	pinned := published("pinned", -48*time.Hour)
	pinned.Settings.IsPinned = true
	seed(t, repo, published("newest", 0), pinned)

	notices, _, err := repo.Find(context.Background(), NoticeQuery{})
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, "pinned", notices[0].Title)
}

func TestMemoryFindSearch(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	seed(t, repo,
		published("Academic calendar update", 0),
		published("Sports day", time.Hour),
	)

	notices, total, err := repo.Find(context.Background(), NoticeQuery{Search: "Academic"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, notices, 1)
	assert.Equal(t, "Academic calendar update", notices[0].Title)
}

func TestMemoryFindSearchRelevance(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	inContent := published("Library hours", time.Hour)
	inContent.Content = "exam week hours"
	seed(t, repo, inContent, published("Exam timetable", 0))

	notices, _, err := repo.Find(context.Background(), NoticeQuery{Search: "exam"})
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, "Exam timetable", notices[0].Title)
}

func TestMemoryFindActiveAndDates(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	expired := published("expired", -72*time.Hour)
	exp := base.Add(-time.Hour)
	expired.ExpiryDate = &exp
	draft := published("draft", -time.Hour)
	draft.Status = models.StatusDraft
	seed(t, repo, published("live", -time.Hour), expired, draft, published("scheduled", time.Hour))

	now := base
	notices, total, err := repo.Find(context.Background(), NoticeQuery{ActiveAt: &now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "live", notices[0].Title)

	from, to := base.Add(-time.Hour), base.Add(time.Hour)
	_, total, err = repo.Find(context.Background(), NoticeQuery{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestMemoryFindSortByPriority(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	low := published("low", 0)
	low.Priority = models.PriorityLow
	urgent := published("urgent", 0)
	urgent.Priority = models.PriorityUrgent
	seed(t, repo, low, urgent)

	notices, _, err := repo.Find(context.Background(), NoticeQuery{Sort: "priority"})
	require.NoError(t, err)
	assert.Equal(t, "urgent", notices[0].Title)

	notices, _, err = repo.Find(context.Background(), NoticeQuery{Sort: "priority", Asc: true})
	require.NoError(t, err)
	assert.Equal(t, "low", notices[0].Title)
}

func TestMemoryReplaceDetectsStaleWrites(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	n := published("original", 0)
	seed(t, repo, n)
	id := n.ID.Hex()

	first, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	second, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)

	first.Title = "first"
	require.NoError(t, repo.Replace(context.Background(), first))
	assert.Equal(t, int64(2), first.Seq)

	second.Title = "second"
	assert.ErrorIs(t, repo.Replace(context.Background(), second), ErrStaleNotice)

	stored, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Title)
}

func TestMemoryReturnsCopies(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	n := published("original", 0)
	seed(t, repo, n)

	got, err := repo.GetByID(context.Background(), n.ID.Hex())
	require.NoError(t, err)
	got.Likes = append(got.Likes, models.Like{UserID: 1})

	again, err := repo.GetByID(context.Background(), n.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, again.Likes)
}

func TestMemoryNotFound(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = repo.GetByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNoticeNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, primitive.NewObjectID().Hex()), ErrNoticeNotFound)
	assert.ErrorIs(t, repo.Replace(ctx, &models.Notice{ID: primitive.NewObjectID()}), ErrNoticeNotFound)

	n := published("gone", 0)
	seed(t, repo, n)
	require.NoError(t, repo.Delete(ctx, n.ID.Hex()))
	_, err = repo.GetByID(ctx, n.ID.Hex())
	assert.ErrorIs(t, err, ErrNoticeNotFound)
}

func TestMemoryFindSearchMatchesWholeWords(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	seed(t, repo, published("Academic calendar", 0), published("Exam-week library hours", time.Hour))

	tests := []struct {
		search string
		want   int64
	}{
		{"cad", 0},
		{"calend", 0},
		{"CALENDAR", 1},
		{"week", 1},
		{"library calendar", 2},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			_, total, err := repo.Find(context.Background(), NoticeQuery{Search: tt.search})
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
		})
	}
}

func TestMemoryRecordView(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	n := published("viewed", 0)
	seed(t, repo, n)
	ctx := context.Background()

	for _, viewer := range []uint{7, 7, 8} {
		_, err := repo.RecordView(ctx, n.ID.Hex(), viewer)
		require.NoError(t, err)
	}
	got, err := repo.RecordView(ctx, n.ID.Hex(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Statistics.Views)
	assert.Equal(t, int64(2), got.Statistics.UniqueViews)
	assert.Equal(t, []uint{7, 8}, got.Statistics.Viewers)
	assert.Equal(t, int64(5), got.Seq)

	_, err = repo.RecordView(ctx, primitive.NewObjectID().Hex(), 7)
	assert.ErrorIs(t, err, ErrNoticeNotFound)
	_, err = repo.RecordView(ctx, "not-an-id", 7)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestMemoryIncrementRejectsEarlierReads(t *testing.T) {
	repo := NewMemoryNoticeRepository()
	n := published("shared", 0)
	seed(t, repo, n)
	ctx := context.Background()

	loaded, err := repo.GetByID(ctx, n.ID.Hex())
	require.NoError(t, err)

	got, err := repo.Increment(ctx, n.ID.Hex(), CounterShares)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Statistics.Shares)
	got, err = repo.Increment(ctx, n.ID.Hex(), CounterDownloads)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Statistics.Downloads)

	loaded.Title = "late write"
	assert.ErrorIs(t, repo.Replace(ctx, loaded), ErrStaleNotice)

	_, err = repo.Increment(ctx, primitive.NewObjectID().Hex(), CounterShares)
	assert.ErrorIs(t, err, ErrNoticeNotFound)
}
