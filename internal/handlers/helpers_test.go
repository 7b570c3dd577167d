package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/campus-notices/backend/internal/middleware"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/repositories"
	"github.com/anonto42/campus-notices/backend/internal/services"
	"github.com/anonto42/campus-notices/backend/internal/validators"
	"github.com/anonto42/campus-notices/backend/pkg/logger"
)

const testSecret = "handler-test-secret"

var (
	faculty = &models.User{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@campus.edu", Role: models.RoleFaculty}
	student = &models.User{ID: 2, FirstName: "Sam", LastName: "Student", Email: "sam@campus.edu", Role: models.RoleStudent}
	admin   = &models.User{ID: 3, FirstName: "Root", Email: "root@campus.edu", Role: models.RoleAdmin}
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
}

type userDirectory map[uint]*models.User

func (d userDirectory) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (d userDirectory) FindIDsByAudience(context.Context, models.TargetAudience) ([]uint, error) {
	ids := make([]uint, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type inbox struct {
	mu    sync.Mutex
	items []models.Notification
}

func (b *inbox) CreateNotifications(_ context.Context, n []models.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range n {
		item.ID = uint(len(b.items) + 1)
		b.items = append(b.items, item)
	}
	return nil
}

func (b *inbox) GetByRecipientID(_ context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var mine []models.Notification
	for i := len(b.items) - 1; i >= 0; i-- {
		if b.items[i].RecipientID == recipientID {
			mine = append(mine, b.items[i])
		}
	}
	total := int64(len(mine))
	start := (page - 1) * limit
	if start > len(mine) {
		start = len(mine)
	}
	end := start + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], total, nil
}

func (b *inbox) GetUnreadCount(_ context.Context, recipientID uint) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for _, item := range b.items {
		if item.RecipientID == recipientID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (b *inbox) MarkAsRead(_ context.Context, notificationID, recipientID uint) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == notificationID && b.items[i].RecipientID == recipientID {
			b.items[i].IsRead = true
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryObjects) Upload(_ context.Context, key, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return "https://files.test/" + key, nil
}

func (m *memoryObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type testApp struct {
	e       *echo.Echo
	repo    *repositories.MemoryNoticeRepository
	inbox   *inbox
	objects *memoryObjects
}

func newTestApp(t *testing.T, withStorage bool) *testApp {
	t.Helper()
	app := &testApp{
		e:       echo.New(),
		repo:    repositories.NewMemoryNoticeRepository(),
		inbox:   &inbox{},
		objects: &memoryObjects{objects: map[string][]byte{}},
	}
	users := userDirectory{faculty.ID: faculty, student.ID: student, admin.ID: admin}
	l := logger.NewRollbarLogger(log.New(io.Discard, "", 0), "", "test")

	var objects services.ObjectStore
	if withStorage {
		objects = app.objects
	}
	svc := services.NewNoticeService(app.repo, users, app.inbox, objects, l, services.Options{MaxUploadBytes: 1024})

	enforcer, err := middleware.NewEnforcer()
	require.NoError(t, err)
	verifier := middleware.NewJWTVerifier(testSecret)
	guards := Guards{
		Required: middleware.Authenticate(verifier, false),
		Optional: middleware.Authenticate(verifier, true),
		Bulk:     middleware.Authorize(enforcer),
	}

	app.e.Validator = validators.NewValidator()
	app.e.HTTPErrorHandler = NewHTTPErrorHandler(l)
	app.e.GET("/health", HealthCheck)
	v1 := app.e.Group("/api/v1")
	NewNoticeHandler(svc).RegisterNoticeRoutes(v1, guards)
	NewEngagementHandler(svc).RegisterEngagementRoutes(v1, guards)
	NewAttachmentHandler(svc).RegisterAttachmentRoutes(v1, guards)
	NewNotificationHandler(app.inbox).RegisterNotificationRoutes(v1, guards)
	return app
}

func getToken(t *testing.T, u *models.User) string {
	t.Helper()
	claims := models.JwtCustomClaims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func (a *testApp) do(t *testing.T, method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(method, path, token, data...)
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, tt.token, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field string `json:"field"`
		Error string `json:"error"`
	} `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

type noticeJSON struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	LikeCount    int    `json:"like_count"`
	ViewCount    int64  `json:"view_count"`
	CommentCount int    `json:"comment_count"`
	IsActive     bool   `json:"is_active"`
	Author       struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	} `json:"author"`
	Metadata struct {
		Version int `json:"version"`
	} `json:"metadata"`
}

func (a *testApp) createNotice(t *testing.T, token string, body map[string]interface{}) noticeJSON {
	t.Helper()
	req := map[string]interface{}{
		"title":    "Exam timetable",
		"content":  "The exam timetable is out.",
		"type":     "academic",
		"category": "undergraduate",
	}
	for k, v := range body {
		req[k] = v
	}
	rec := a.do(t, http.MethodPost, "/api/v1/notices", token, mustJSON(t, req))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var n noticeJSON
	decode(t, rec, &n)
	return n
}
