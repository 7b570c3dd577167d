package repositories

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/anonto42/campus-notices/backend/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// sortable fields mapped to their document paths
var sortFields = map[string]string{
	"publish_date": "publish_date",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"priority":     "priority_rank",
	"title":        "title",
	"views":        "statistics.views",
}

func IsSortField(name string) bool {
	_, ok := sortFields[name]
	return ok
}

// NoticeQuery filters, sorts and paginates notices. Zero values mean "no restriction".
type NoticeQuery struct {
	Type         models.NoticeType
	Category     models.NoticeCategory
	Priority     models.NoticePriority
	Status       models.NoticeStatus
	AuthorID     uint
	AudienceRole string
	Featured     *bool
	Pinned       *bool
	BookmarkedBy uint
	// ActiveAt restricts results to notices active at that instant.
	ActiveAt *time.Time
	From     *time.Time
	To       *time.Time
	Search   string
	Sort     string
	Asc      bool
	Page     int
	Limit    int
}

func (q NoticeQuery) page() int {
	if q.Page < 1 {
		return DefaultPage
	}
	return q.Page
}

func (q NoticeQuery) limit() int {
	switch {
	case q.Limit < 1:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	}
	return q.Limit
}

func (q NoticeQuery) skip() int {
	return (q.page() - 1) * q.limit()
}

func (q NoticeQuery) filter() bson.M {
	f := bson.M{}
	if q.Type != "" {
		f["type"] = q.Type
	}
	if q.Category != "" {
		f["category"] = q.Category
	}
	if q.Priority != "" {
		f["priority"] = q.Priority
	}
	if q.Status != "" {
		f["status"] = q.Status
	}
	if q.AuthorID != 0 {
		f["author.id"] = q.AuthorID
	}
	if q.AudienceRole != "" {
		f["target_audience.roles"] = q.AudienceRole
	}
	if q.Featured != nil {
		f["settings.is_featured"] = *q.Featured
	}
	if q.Pinned != nil {
		f["settings.is_pinned"] = *q.Pinned
	}
	if q.BookmarkedBy != 0 {
		f["bookmarks.user_id"] = q.BookmarkedBy
	}

	dates := bson.M{}
	if q.From != nil {
		dates["$gte"] = *q.From
	}
	if q.To != nil {
		dates["$lte"] = *q.To
	}
	if len(dates) > 0 {
		f["publish_date"] = dates
	}

	if q.ActiveAt != nil {
		now := *q.ActiveAt
		f["$and"] = bson.A{
			bson.M{"status": models.StatusPublished},
			bson.M{"publish_date": bson.M{"$lte": now}},
			bson.M{"$or": bson.A{
				bson.M{"expiry_date": bson.M{"$exists": false}},
				bson.M{"expiry_date": nil},
				bson.M{"expiry_date": bson.M{"$gt": now}},
			}},
		}
	}

	if q.Search != "" {
		f["$text"] = bson.M{"$search": q.Search}
	}
	return f
}

func (q NoticeQuery) sort() bson.D {
	if field, ok := sortFields[q.Sort]; ok {
		dir := -1
		if q.Asc {
			dir = 1
		}
		return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: -1}}
	}
	if q.Search != "" {
		return bson.D{
			{Key: "score", Value: bson.M{"$meta": "textScore"}},
			{Key: "publish_date", Value: -1},
		}
	}
	return bson.D{
		{Key: "settings.is_pinned", Value: -1},
		{Key: "publish_date", Value: -1},
		{Key: "_id", Value: -1},
	}
}

// matches applies the filter to a single notice, mirroring filter().
func (q NoticeQuery) matches(n *models.Notice) bool {
	if q.Type != "" && n.Type != q.Type {
		return false
	}
	if q.Category != "" && n.Category != q.Category {
		return false
	}
	if q.Priority != "" && n.Priority != q.Priority {
		return false
	}
	if q.Status != "" && n.Status != q.Status {
		return false
	}
	if q.AuthorID != 0 && n.Author.ID != q.AuthorID {
		return false
	}
	if q.AudienceRole != "" && !containsString(n.TargetAudience.Roles, q.AudienceRole) {
		return false
	}
	if q.Featured != nil && n.Settings.IsFeatured != *q.Featured {
		return false
	}
	if q.Pinned != nil && n.Settings.IsPinned != *q.Pinned {
		return false
	}
	if q.BookmarkedBy != 0 && !n.HasBookmarked(q.BookmarkedBy) {
		return false
	}
	if q.From != nil || q.To != nil {
		if n.PublishDate == nil {
			return false
		}
		if q.From != nil && n.PublishDate.Before(*q.From) {
			return false
		}
		if q.To != nil && n.PublishDate.After(*q.To) {
			return false
		}
	}
	if q.ActiveAt != nil && !n.IsActive(*q.ActiveAt) {
		return false
	}
	if q.Search != "" && textScore(n, q.Search) == 0 {
		return false
	}
	return true
}

// words splits s into lower-cased words the way the text index tokenizes it.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func countWord(fieldWords []string, term string) int {
	count := 0
	for _, w := range fieldWords {
		if w == term {
			count++
		}
	}
	return count
}

// textScore counts whole-word search term hits, weighting title over summary over content.
func textScore(n *models.Notice, search string) int {
	title, summary, content := words(n.Title), words(n.Summary), words(n.Content)
	score := 0
	for _, term := range words(search) {
		score += 10*countWord(title, term) + 5*countWord(summary, term) + countWord(content, term)
	}
	return score
}

// sortNotices orders notices the same way sort() orders documents.
func (q NoticeQuery) sortNotices(notices []*models.Notice) {
	less := q.lessFunc()
	sort.SliceStable(notices, func(i, j int) bool { return less(notices[i], notices[j]) })
}

func (q NoticeQuery) lessFunc() func(a, b *models.Notice) bool {
	byID := func(a, b *models.Notice) bool { return a.ID.Hex() > b.ID.Hex() }
	if _, ok := sortFields[q.Sort]; ok {
		cmp := fieldComparer(q.Sort)
		return func(a, b *models.Notice) bool {
			c := cmp(a, b)
			if c == 0 {
				return byID(a, b)
			}
			if q.Asc {
				return c < 0
			}
			return c > 0
		}
	}
	if q.Search != "" {
		return func(a, b *models.Notice) bool {
			sa, sb := textScore(a, q.Search), textScore(b, q.Search)
			if sa != sb {
				return sa > sb
			}
			return timeOf(a.PublishDate).After(timeOf(b.PublishDate))
		}
	}
	return func(a, b *models.Notice) bool {
		if a.Settings.IsPinned != b.Settings.IsPinned {
			return a.Settings.IsPinned
		}
		pa, pb := timeOf(a.PublishDate), timeOf(b.PublishDate)
		if !pa.Equal(pb) {
			return pa.After(pb)
		}
		return byID(a, b)
	}
}

func fieldComparer(field string) func(a, b *models.Notice) int {
	switch field {
	case "created_at":
		return func(a, b *models.Notice) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updated_at":
		return func(a, b *models.Notice) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "priority":
		return func(a, b *models.Notice) int { return a.Priority.Rank() - b.Priority.Rank() }
	case "title":
		return func(a, b *models.Notice) int { return strings.Compare(a.Title, b.Title) }
	case "views":
		return func(a, b *models.Notice) int {
			switch {
			case a.Statistics.Views < b.Statistics.Views:
				return -1
			case a.Statistics.Views > b.Statistics.Views:
				return 1
			}
			return 0
		}
	}
	return func(a, b *models.Notice) int { return timeOf(a.PublishDate).Compare(timeOf(b.PublishDate)) }
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
