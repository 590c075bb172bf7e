// Package validation wraps go-playground/validator with Spanish messages
// keyed by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

// FieldError is a single field-level message for the UI.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	once     sync.Once
	validate *validator.Validate
	trans    ut.Translator
)

func setup() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	locale := es.New()
	uni := ut.New(locale, locale)
	trans, _ = uni.GetTranslator("es")
	_ = es_translations.RegisterDefaultTranslations(validate, trans)
}

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	once.Do(setup)
	return validate
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return Validator().Struct(s)
}

// Messages turns a validation error into field messages. Errors that did not
// come from the validator are reported under the empty field name.
func Messages(err error) []FieldError {
	if err == nil {
		return nil
	}
	Validator()

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fieldPath(fe),
			Message: fe.Translate(trans),
		})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace
// ("Params.portions" becomes "portions").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}
