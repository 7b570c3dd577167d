package validators

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/anonto42/campus-notices/backend/internal/models"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator
)

type customTag struct {
	tag  string
	text string
	fn   validator.Func
}

var customTags = []customTag{
	{"notblank", "{0} must not be blank", notBlank},
	{"notice_type", "{0} must be a valid notice type", enumOf(models.NoticeTypes)},
	{"notice_category", "{0} must be a valid notice category", enumOf(models.NoticeCategories)},
	{"notice_priority", "{0} must be one of low, medium, high, urgent", enumOf(models.NoticePriorities)},
	{"notice_visibility", "{0} must be one of public, private, restricted", enumOf(models.NoticeVisibilities)},
}

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// report json names instead of struct field names
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for _, ct := range customTags {
		_ = Validate.RegisterValidation(ct.tag, ct.fn)
		registerTranslation(ct.tag, ct.text)
	}
}

func registerTranslation(tag, text string) {
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func enumOf[T ~string](values []T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, allowed := range values {
			if v == string(allowed) {
				return true
			}
		}
		return false
	}
}

// CustomValidator plugs the shared validator into echo.
type CustomValidator struct {
	validate *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validate: Validate}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}
