package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/repositories"
	"github.com/anonto42/campus-notices/backend/pkg/logger"
)

var (
	t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	author  = &models.Actor{ID: 1, Email: "ada@campus.edu", Role: models.RoleFaculty}
	student = &models.Actor{ID: 2, Email: "sam@campus.edu", Role: models.RoleStudent}
	admin   = &models.Actor{ID: 3, Email: "root@campus.edu", Role: models.RoleAdmin}
)

type fakeUsers struct {
	users    map[uint]*models.User
	audience []uint
	err      error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[uint]*models.User{
		1: {ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@campus.edu", Role: models.RoleFaculty},
		2: {ID: 2, FirstName: "Sam", LastName: "Student", Email: "sam@campus.edu", Role: models.RoleStudent},
		3: {ID: 3, FirstName: "Root", Email: "root@campus.edu", Role: models.RoleAdmin},
	}}
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindIDsByAudience(context.Context, models.TargetAudience) ([]uint, error) {
	return f.audience, f.err
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (f *fakeNotifier) CreateNotifications(_ context.Context, n []models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n...)
	return nil
}

type fakeObjects struct {
	objects   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeObjects() *fakeObjects { return &fakeObjects{objects: map[string][]byte{}} }

func (f *fakeObjects) Upload(_ context.Context, key, _ string, r io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.objects[key] = b
	return "https://files.test/" + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

// staleRepo fails the first n replaces as if another writer won the race.
type staleRepo struct {
	*repositories.MemoryNoticeRepository
	failures int
	calls    int
}

func (r *staleRepo) Replace(ctx context.Context, n *models.Notice) error {
	r.calls++
	if r.failures > 0 {
		r.failures--
		return repositories.ErrStaleNotice
	}
	return r.MemoryNoticeRepository.Replace(ctx, n)
}

type fixture struct {
	svc      *NoticeService
	repo     *repositories.MemoryNoticeRepository
	users    *fakeUsers
	notifier *fakeNotifier
	objects  *fakeObjects
	logs     *bytes.Buffer
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     repositories.NewMemoryNoticeRepository(),
		users:    newFakeUsers(),
		notifier: &fakeNotifier{},
		objects:  newFakeObjects(),
		logs:     &bytes.Buffer{},
		now:      t0,
	}
	l := logger.NewRollbarLogger(log.New(f.logs, "", 0), "", "test")
	f.svc = NewNoticeService(f.repo, f.users, f.notifier, f.objects, l, Options{HistoryLimit: 20, MaxUploadBytes: 1024})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) create(t *testing.T, mutate ...func(r *models.CreateNoticeRequest)) *models.Notice {
	t.Helper()
	req := models.CreateNoticeRequest{
		Title:    "Exam timetable",
		Content:  "The exam timetable is out.",
		Type:     models.TypeAcademic,
		Category: models.CategoryUndergraduate,
	}
	for _, m := range mutate {
		m(&req)
	}
	n, err := f.svc.Create(context.Background(), req, author)
	require.NoError(t, err)
	return n
}

func (f *fixture) stored(t *testing.T, id string) *models.Notice {
	t.Helper()
	n, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return n
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperrors.KindOf(err), "unexpected error: %v", err)
}

func ptr[T any](v T) *T { return &v }

var errBoom = errors.New("boom")

func bytesReader(s string) io.Reader { return strings.NewReader(s) }

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }
