package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultExpiryWindow is applied when a notice has a publish date but no expiry date.
const DefaultExpiryWindow = 30 * 24 * time.Hour

type NoticeType string

const (
	TypeAnnouncement   NoticeType = "announcement"
	TypeAcademic       NoticeType = "academic"
	TypeAdministrative NoticeType = "administrative"
	TypeEvent          NoticeType = "event"
	TypeEmergency      NoticeType = "emergency"
	TypeMaintenance    NoticeType = "maintenance"
	TypeOther          NoticeType = "other"
)

var NoticeTypes = []NoticeType{
	TypeAnnouncement, TypeAcademic, TypeAdministrative, TypeEvent, TypeEmergency, TypeMaintenance, TypeOther,
}

func (t NoticeType) Valid() bool {
	for _, v := range NoticeTypes {
		if t == v {
			return true
		}
	}
	return false
}

type NoticeCategory string

const (
	CategoryUndergraduate NoticeCategory = "undergraduate"
	CategoryGraduate      NoticeCategory = "graduate"
	CategoryFaculty       NoticeCategory = "faculty"
	CategoryStaff         NoticeCategory = "staff"
	CategoryAll           NoticeCategory = "all"
)

var NoticeCategories = []NoticeCategory{
	CategoryUndergraduate, CategoryGraduate, CategoryFaculty, CategoryStaff, CategoryAll,
}

func (c NoticeCategory) Valid() bool {
	for _, v := range NoticeCategories {
		if c == v {
			return true
		}
	}
	return false
}

type NoticePriority string

const (
	PriorityLow    NoticePriority = "low"
	PriorityMedium NoticePriority = "medium"
	PriorityHigh   NoticePriority = "high"
	PriorityUrgent NoticePriority = "urgent"
)

// NoticePriorities is ordered from lowest to highest.
var NoticePriorities = []NoticePriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p NoticePriority) Valid() bool { return p.Rank() > 0 }

// Rank orders priorities for sorting, 0 for unknown values.
func (p NoticePriority) Rank() int {
	for i, v := range NoticePriorities {
		if p == v {
			return i + 1
		}
	}
	return 0
}

type NoticeStatus string

const (
	StatusDraft     NoticeStatus = "draft"
	StatusPublished NoticeStatus = "published"
	StatusArchived  NoticeStatus = "archived"
	StatusExpired   NoticeStatus = "expired"
)

var NoticeStatuses = []NoticeStatus{StatusDraft, StatusPublished, StatusArchived, StatusExpired}

func (s NoticeStatus) Valid() bool {
	for _, v := range NoticeStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type NoticeVisibility string

const (
	VisibilityPublic     NoticeVisibility = "public"
	VisibilityPrivate    NoticeVisibility = "private"
	VisibilityRestricted NoticeVisibility = "restricted"
)

var NoticeVisibilities = []NoticeVisibility{VisibilityPublic, VisibilityPrivate, VisibilityRestricted}

func (v NoticeVisibility) Valid() bool {
	for _, x := range NoticeVisibilities {
		if v == x {
			return true
		}
	}
	return false
}

// AuthorSnapshot is copied from the user record when the notice is written.
type AuthorSnapshot struct {
	ID    uint   `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Role  string `bson:"role" json:"role"`
}

// TargetAudience describes intended readers. It is not enforced on reads.
type TargetAudience struct {
	Departments []string `bson:"departments,omitempty" json:"departments,omitempty"`
	Roles       []string `bson:"roles,omitempty" json:"roles,omitempty"`
	Users       []uint   `bson:"users,omitempty" json:"users,omitempty"`
	YearLevels  []int    `bson:"year_levels,omitempty" json:"year_levels,omitempty"`
}

func (a TargetAudience) IsEmpty() bool {
	return len(a.Departments) == 0 && len(a.Roles) == 0 && len(a.Users) == 0 && len(a.YearLevels) == 0
}

// FileRef points at an object held in external storage.
type FileRef struct {
	ID         string    `bson:"id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	URL        string    `bson:"url" json:"url"`
	Type       string    `bson:"type" json:"type"`
	Size       int64     `bson:"size" json:"size"`
	Key        string    `bson:"key" json:"-"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

type Statistics struct {
	Views       int64  `bson:"views" json:"views"`
	UniqueViews int64  `bson:"unique_views" json:"unique_views"`
	Downloads   int64  `bson:"downloads" json:"downloads"`
	Shares      int64  `bson:"shares" json:"shares"`
	Viewers     []uint `bson:"viewers,omitempty" json:"-"`
}

type Like struct {
	UserID  uint      `bson:"user_id" json:"user_id"`
	LikedAt time.Time `bson:"liked_at" json:"liked_at"`
}

type Bookmark struct {
	UserID       uint      `bson:"user_id" json:"user_id"`
	BookmarkedAt time.Time `bson:"bookmarked_at" json:"bookmarked_at"`
}

type Acknowledgment struct {
	UserID         uint      `bson:"user_id" json:"user_id"`
	AcknowledgedAt time.Time `bson:"acknowledged_at" json:"acknowledged_at"`
}

// Comment keeps a snapshot of the commenter's name.
type Comment struct {
	ID        primitive.ObjectID `bson:"id" json:"id"`
	UserID    uint               `bson:"user_id" json:"user_id"`
	UserName  string             `bson:"user_name" json:"user_name"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	IsEdited  bool               `bson:"is_edited" json:"is_edited"`
	EditedAt  *time.Time         `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
}

type Settings struct {
	AllowComments         bool `bson:"allow_comments" json:"allow_comments"`
	IsPinned              bool `bson:"is_pinned" json:"is_pinned"`
	IsFeatured            bool `bson:"is_featured" json:"is_featured"`
	RequireAcknowledgment bool `bson:"require_acknowledgment" json:"require_acknowledgment"`
	SendNotification      bool `bson:"send_notification" json:"send_notification"`
}

type Revision struct {
	Version    int       `bson:"version" json:"version"`
	ModifiedBy uint      `bson:"modified_by" json:"modified_by"`
	ModifiedAt time.Time `bson:"modified_at" json:"modified_at"`
	Changes    string    `bson:"changes" json:"changes"`
}

// Metadata tracks content revisions. Version counts create, update, publish,
// archive and attachment changes only; engagement and statistics leave it alone.
type Metadata struct {
	Version         int        `bson:"version" json:"version"`
	LastModifiedBy  uint       `bson:"last_modified_by" json:"last_modified_by"`
	RevisionHistory []Revision `bson:"revision_history" json:"revision_history"`
}

// Notice is stored as a single document with its engagement embedded.
type Notice struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Content         string             `bson:"content" json:"content"`
	Summary         string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Type            NoticeType         `bson:"type" json:"type"`
	Category        NoticeCategory     `bson:"category" json:"category"`
	Priority        NoticePriority     `bson:"priority" json:"priority"`
	PriorityRank    int                `bson:"priority_rank" json:"-"`
	Status          NoticeStatus       `bson:"status" json:"status"`
	Visibility      NoticeVisibility   `bson:"visibility" json:"visibility"`
	PublishDate     *time.Time         `bson:"publish_date,omitempty" json:"publish_date,omitempty"`
	ExpiryDate      *time.Time         `bson:"expiry_date,omitempty" json:"expiry_date,omitempty"`
	EffectiveDate   *time.Time         `bson:"effective_date,omitempty" json:"effective_date,omitempty"`
	Author          AuthorSnapshot     `bson:"author" json:"author"`
	TargetAudience  TargetAudience     `bson:"target_audience" json:"target_audience"`
	Attachments     []FileRef          `bson:"attachments" json:"attachments"`
	Images          []FileRef          `bson:"images" json:"images"`
	Statistics      Statistics         `bson:"statistics" json:"statistics"`
	Likes           []Like             `bson:"likes" json:"likes"`
	Bookmarks       []Bookmark         `bson:"bookmarks" json:"bookmarks"`
	Comments        []Comment          `bson:"comments" json:"comments"`
	Acknowledgments []Acknowledgment   `bson:"acknowledgments" json:"acknowledgments"`
	Settings        Settings           `bson:"settings" json:"settings"`
	Metadata        Metadata           `bson:"metadata" json:"metadata"`
	Tags            []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
	Seq             int64              `bson:"_seq" json:"-"`
}

// IsActive reports whether the notice is published and inside its window at now.
func (n *Notice) IsActive(now time.Time) bool {
	if n.Status != StatusPublished || n.PublishDate == nil || n.PublishDate.After(now) {
		return false
	}
	return n.ExpiryDate == nil || n.ExpiryDate.After(now)
}

// IsExpired reports whether the expiry date has been reached, regardless of status.
func (n *Notice) IsExpired(now time.Time) bool {
	return n.ExpiryDate != nil && !n.ExpiryDate.After(now)
}

func (n *Notice) ViewCount() int64 { return n.Statistics.Views }

func (n *Notice) LikeCount() int { return len(n.Likes) }

func (n *Notice) CommentCount() int { return len(n.Comments) }

func (n *Notice) BookmarkCount() int { return len(n.Bookmarks) }

func (n *Notice) IsAuthor(id uint) bool { return n.Author.ID == id }

// ApplyDefaultExpiry sets the expiry date from the publish date when it is missing.
func (n *Notice) ApplyDefaultExpiry() {
	if n.PublishDate != nil && n.ExpiryDate == nil {
		expiry := n.PublishDate.Add(DefaultExpiryWindow)
		n.ExpiryDate = &expiry
	}
}

// AddRevision bumps the version and appends one history entry, keeping at most limit entries.
func (n *Notice) AddRevision(by uint, at time.Time, changes string, limit int) {
	n.Metadata.Version++
	n.Metadata.LastModifiedBy = by
	n.Metadata.RevisionHistory = append(n.Metadata.RevisionHistory, Revision{
		Version:    n.Metadata.Version,
		ModifiedBy: by,
		ModifiedAt: at,
		Changes:    changes,
	})
	if limit > 0 && len(n.Metadata.RevisionHistory) > limit {
		trimmed := make([]Revision, limit)
		copy(trimmed, n.Metadata.RevisionHistory[len(n.Metadata.RevisionHistory)-limit:])
		n.Metadata.RevisionHistory = trimmed
	}
}

func (n *Notice) LikeIndex(userID uint) int {
	for i, l := range n.Likes {
		if l.UserID == userID {
			return i
		}
	}
	return -1
}

func (n *Notice) BookmarkIndex(userID uint) int {
	for i, b := range n.Bookmarks {
		if b.UserID == userID {
			return i
		}
	}
	return -1
}

func (n *Notice) CommentIndex(id primitive.ObjectID) int {
	for i, c := range n.Comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (n *Notice) HasAcknowledged(userID uint) bool {
	for _, a := range n.Acknowledgments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

func (n *Notice) HasBookmarked(userID uint) bool { return n.BookmarkIndex(userID) >= 0 }

// FindFile looks up an attachment or image by id.
func (n *Notice) FindFile(id string) (*FileRef, bool) {
	for i := range n.Attachments {
		if n.Attachments[i].ID == id {
			return &n.Attachments[i], true
		}
	}
	for i := range n.Images {
		if n.Images[i].ID == id {
			return &n.Images[i], true
		}
	}
	return nil, false
}

// RemoveFile drops an attachment or image by id and returns it.
func (n *Notice) RemoveFile(id string) (FileRef, bool) {
	for i, f := range n.Attachments {
		if f.ID == id {
			n.Attachments = append(n.Attachments[:i], n.Attachments[i+1:]...)
			return f, true
		}
	}
	for i, f := range n.Images {
		if f.ID == id {
			n.Images = append(n.Images[:i], n.Images[i+1:]...)
			return f, true
		}
	}
	return FileRef{}, false
}

// FileKeys lists the storage keys of every attachment and image.
func (n *Notice) FileKeys() []string {
	keys := make([]string, 0, len(n.Attachments)+len(n.Images))
	for _, f := range n.Attachments {
		keys = append(keys, f.Key)
	}
	for _, f := range n.Images {
		keys = append(keys, f.Key)
	}
	return keys
}

// Clone returns a deep copy of the notice.
func (n *Notice) Clone() *Notice {
	c := *n
	c.PublishDate = cloneTime(n.PublishDate)
	c.ExpiryDate = cloneTime(n.ExpiryDate)
	c.EffectiveDate = cloneTime(n.EffectiveDate)
	c.TargetAudience = TargetAudience{
		Departments: append([]string(nil), n.TargetAudience.Departments...),
		Roles:       append([]string(nil), n.TargetAudience.Roles...),
		Users:       append([]uint(nil), n.TargetAudience.Users...),
		YearLevels:  append([]int(nil), n.TargetAudience.YearLevels...),
	}
	c.Attachments = append([]FileRef(nil), n.Attachments...)
	c.Images = append([]FileRef(nil), n.Images...)
	c.Statistics.Viewers = append([]uint(nil), n.Statistics.Viewers...)
	c.Likes = append([]Like(nil), n.Likes...)
	c.Bookmarks = append([]Bookmark(nil), n.Bookmarks...)
	c.Acknowledgments = append([]Acknowledgment(nil), n.Acknowledgments...)
	c.Comments = make([]Comment, len(n.Comments))
	for i, cm := range n.Comments {
		cm.EditedAt = cloneTime(cm.EditedAt)
		c.Comments[i] = cm
	}
	c.Metadata.RevisionHistory = append([]Revision(nil), n.Metadata.RevisionHistory...)
	c.Tags = append([]string(nil), n.Tags...)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// NoticeView is the response shape with derived fields computed at read time.
type NoticeView struct {
	*Notice
	IsActive      bool  `json:"is_active"`
	IsExpired     bool  `json:"is_expired"`
	ViewCount     int64 `json:"view_count"`
	LikeCount     int   `json:"like_count"`
	CommentCount  int   `json:"comment_count"`
	BookmarkCount int   `json:"bookmark_count"`
}

func (n *Notice) View(now time.Time) NoticeView {
	return NoticeView{
		Notice:        n,
		IsActive:      n.IsActive(now),
		IsExpired:     n.IsExpired(now),
		ViewCount:     n.ViewCount(),
		LikeCount:     n.LikeCount(),
		CommentCount:  n.CommentCount(),
		BookmarkCount: n.BookmarkCount(),
	}
}

// NoticeStatistics is the aggregate returned to authors and administrators.
type NoticeStatistics struct {
	NoticeID        string `json:"notice_id"`
	Version         int    `json:"version"`
	Views           int64  `json:"views"`
	UniqueViews     int64  `json:"unique_views"`
	Downloads       int64  `json:"downloads"`
	Shares          int64  `json:"shares"`
	Likes           int    `json:"likes"`
	Bookmarks       int    `json:"bookmarks"`
	Comments        int    `json:"comments"`
	Acknowledgments int    `json:"acknowledgments"`
}

func (n *Notice) Stats() NoticeStatistics {
	return NoticeStatistics{
		NoticeID:        n.ID.Hex(),
		Version:         n.Metadata.Version,
		Views:           n.Statistics.Views,
		UniqueViews:     n.Statistics.UniqueViews,
		Downloads:       n.Statistics.Downloads,
		Shares:          n.Statistics.Shares,
		Likes:           len(n.Likes),
		Bookmarks:       len(n.Bookmarks),
		Comments:        len(n.Comments),
		Acknowledgments: len(n.Acknowledgments),
	}
}
