package validators

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/campus-notices/backend/internal/models"
)

func translate(t *testing.T, err error) map[string]string {
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)
	out := make(map[string]string, len(vErrs))
	for _, e := range vErrs {
		out[e.Field()] = e.Translate(Translator)
	}
	return out
}

func TestCreateNoticeRequestValidation(t *testing.T) {
	v := NewValidator()

	valid := models.CreateNoticeRequest{Title: "Exam schedule", Content: "See attached", Type: models.TypeAcademic, Category: models.CategoryAll}
	assert.NoError(t, v.Validate(&valid))

	invalid := models.CreateNoticeRequest{Title: "   ", Content: "x", Type: "memo", Category: models.CategoryAll, Priority: "critical"}
	fields := translate(t, v.Validate(&invalid))
	assert.Equal(t, "title must not be blank", fields["title"])
	assert.Equal(t, "type must be a valid notice type", fields["type"])
	assert.Equal(t, "priority must be one of low, medium, high, urgent", fields["priority"])
}

func TestUpdateNoticeRequestValidation(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Validate(&models.UpdateNoticeRequest{}))

	visibility := models.NoticeVisibility("secret")
	fields := translate(t, v.Validate(&models.UpdateNoticeRequest{Visibility: &visibility}))
	assert.Contains(t, fields, "visibility")
}

func TestBulkRequestValidation(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Validate(&models.BulkRequest{NoticeIDs: []string{"a"}, Action: models.BulkPin}))

	fields := translate(t, v.Validate(&models.BulkRequest{Action: "explode"}))
	assert.Contains(t, fields, "notice_ids")
	assert.Contains(t, fields, "action")
}

func TestCreateNoticeRequestStatus(t *testing.T) {
	v := NewValidator()
	req := models.CreateNoticeRequest{Title: "t", Content: "c", Type: models.TypeOther, Category: models.CategoryAll}

	for _, status := range []models.NoticeStatus{"", models.StatusDraft, models.StatusPublished} {
		req.Status = status
		assert.NoError(t, v.Validate(&req), "status %q", status)
	}

	req.Status = models.StatusArchived
	fields := translate(t, v.Validate(&req))
	assert.Equal(t, "status must be one of [draft published]", fields["status"])
}
