package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestNoticeIsActive(t *testing.T) {
	tests := []struct {
		name   string
		notice Notice
		want   bool
	}{
		{"published in window", Notice{Status: StatusPublished, PublishDate: at(-time.Hour), ExpiryDate: at(time.Hour)}, true},
		{"published no expiry", Notice{Status: StatusPublished, PublishDate: at(-time.Hour)}, true},
		{"publish date is now", Notice{Status: StatusPublished, PublishDate: at(0)}, true},
		{"expiry is now", Notice{Status: StatusPublished, PublishDate: at(-time.Hour), ExpiryDate: at(0)}, false},
		{"expired", Notice{Status: StatusPublished, PublishDate: at(-2 * time.Hour), ExpiryDate: at(-time.Hour)}, false},
		{"scheduled", Notice{Status: StatusPublished, PublishDate: at(time.Hour)}, false},
		{"draft", Notice{Status: StatusDraft, PublishDate: at(-time.Hour)}, false},
		{"archived", Notice{Status: StatusArchived, PublishDate: at(-time.Hour)}, false},
		{"published without date", Notice{Status: StatusPublished}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.notice.IsActive(now))
		})
	}
}

func TestNoticeIsExpired(t *testing.T) {
	assert.True(t, (&Notice{ExpiryDate: at(0)}).IsExpired(now))
	assert.True(t, (&Notice{Status: StatusDraft, ExpiryDate: at(-time.Minute)}).IsExpired(now))
	assert.False(t, (&Notice{ExpiryDate: at(time.Minute)}).IsExpired(now))
	assert.False(t, (&Notice{}).IsExpired(now))
}

func TestNoticeValidateDates(t *testing.T) {
	tests := []struct {
		name   string
		notice Notice
		fields []string
	}{
		{"valid", Notice{PublishDate: at(0), ExpiryDate: at(time.Hour), EffectiveDate: at(0)}, nil},
		{"no publish date", Notice{ExpiryDate: at(-time.Hour)}, nil},
		{"expiry equals publish", Notice{PublishDate: at(0), ExpiryDate: at(0)}, []string{"expiry_date"}},
		{"expiry before publish", Notice{PublishDate: at(0), ExpiryDate: at(-time.Hour)}, []string{"expiry_date"}},
		{"effective before publish", Notice{PublishDate: at(0), EffectiveDate: at(-time.Second)}, []string{"effective_date"}},
		{"both", Notice{PublishDate: at(0), ExpiryDate: at(0), EffectiveDate: at(-time.Second)}, []string{"expiry_date", "effective_date"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.notice.ValidateDates()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.KindValidation, appErr.Kind)
			var got []string
			for _, f := range appErr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestNoticeApplyDefaultExpiry(t *testing.T) {
	n := &Notice{PublishDate: at(0)}
	n.ApplyDefaultExpiry()
	require.NotNil(t, n.ExpiryDate)
	assert.Equal(t, now.Add(30*24*time.Hour), *n.ExpiryDate)

	explicit := at(time.Hour)
	n = &Notice{PublishDate: at(0), ExpiryDate: explicit}
	n.ApplyDefaultExpiry()
	assert.Equal(t, explicit, n.ExpiryDate)

	n = &Notice{}
	n.ApplyDefaultExpiry()
	assert.Nil(t, n.ExpiryDate)
}

func TestNoticeAddRevisionTrims(t *testing.T) {
	n := &Notice{}
	for i := 0; i < 25; i++ {
		n.AddRevision(7, now, "edit", 20)
	}
	assert.Equal(t, 25, n.Metadata.Version)
	assert.Equal(t, uint(7), n.Metadata.LastModifiedBy)
	require.Len(t, n.Metadata.RevisionHistory, 20)
	assert.Equal(t, 6, n.Metadata.RevisionHistory[0].Version)
	assert.Equal(t, 25, n.Metadata.RevisionHistory[19].Version)
}

func TestNoticeCloneIsDeep(t *testing.T) {
	n := &Notice{
		PublishDate: at(0),
		Likes:       []Like{{UserID: 1, LikedAt: now}},
		Comments:    []Comment{{UserID: 2, Content: "hi"}},
		Tags:        []string{"exam"},
	}
	c := n.Clone()
	c.Likes[0].UserID = 9
	c.Comments[0].Content = "changed"
	c.Tags[0] = "other"
	*c.PublishDate = now.Add(time.Hour)

	assert.Equal(t, uint(1), n.Likes[0].UserID)
	assert.Equal(t, "hi", n.Comments[0].Content)
	assert.Equal(t, "exam", n.Tags[0])
	assert.Equal(t, now, *n.PublishDate)
}

func TestNoticeViewCounts(t *testing.T) {
	n := &Notice{
		Status:      StatusPublished,
		PublishDate: at(-time.Hour),
		Statistics:  Statistics{Views: 4},
		Likes:       []Like{{UserID: 1}, {UserID: 2}},
		Bookmarks:   []Bookmark{{UserID: 1}},
		Comments:    []Comment{{UserID: 3}},
	}
	v := n.View(now)
	assert.True(t, v.IsActive)
	assert.False(t, v.IsExpired)
	assert.Equal(t, int64(4), v.ViewCount)
	assert.Equal(t, 2, v.LikeCount)
	assert.Equal(t, 1, v.BookmarkCount)
	assert.Equal(t, 1, v.CommentCount)
}

func TestUpdateNoticeRequestApplyTo(t *testing.T) {
	title := "New title"
	priority := PriorityUrgent
	pinned := true
	n := &Notice{Title: "Old", Priority: PriorityLow}
	req := UpdateNoticeRequest{Title: &title, Priority: &priority, Settings: &SettingsInput{IsPinned: &pinned}}

	changed := req.ApplyTo(n)

	assert.Equal(t, []string{"title", "priority", "settings"}, changed)
	assert.Equal(t, "New title", n.Title)
	assert.True(t, n.Settings.IsPinned)
	assert.Equal(t, "updated title, priority, settings", req.RevisionNote(changed))
	assert.Equal(t, "no changes", (&UpdateNoticeRequest{}).RevisionNote(nil))
	assert.Equal(t, "typo", (&UpdateNoticeRequest{ChangeNote: " typo "}).RevisionNote(changed))
}

func TestCreateNoticeRequestDefaults(t *testing.T) {
	req := CreateNoticeRequest{Title: " Exams ", Content: "c", Type: TypeAcademic, Category: CategoryAll}
	n := req.NewNotice()
	assert.Equal(t, "Exams", n.Title)
	assert.Equal(t, PriorityMedium, n.Priority)
	assert.Equal(t, StatusDraft, n.Status)
	assert.Equal(t, VisibilityPublic, n.Visibility)
	assert.True(t, n.Settings.AllowComments)
}

func TestEnumValid(t *testing.T) {
	assert.True(t, TypeEmergency.Valid())
	assert.False(t, NoticeType("memo").Valid())
	assert.True(t, CategoryAll.Valid())
	assert.False(t, NoticeCategory("alumni").Valid())
	assert.True(t, StatusExpired.Valid())
	assert.False(t, NoticeStatus("").Valid())
	assert.True(t, VisibilityRestricted.Valid())
	assert.Equal(t, 4, PriorityUrgent.Rank())
	assert.False(t, NoticePriority("critical").Valid())
}

func TestActorCanManage(t *testing.T) {
	n := &Notice{Author: AuthorSnapshot{ID: 1}}
	assert.True(t, (&Actor{ID: 1, Role: RoleFaculty}).CanManage(n))
	assert.True(t, (&Actor{ID: 2, Role: RoleAdmin}).CanManage(n))
	assert.False(t, (&Actor{ID: 2, Role: RoleStaff}).CanManage(n))
	var nobody *Actor
	assert.False(t, nobody.CanManage(n))
}
