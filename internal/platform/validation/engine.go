package validation

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

type engine struct {
	validate *validator.Validate
	trans    ut.Translator
}

var (
	engineOnce sync.Once
	sharedEng  *engine
)

// defaultEngine builds the validator once. validator.Validate is safe for concurrent use
// after registration completes.
func defaultEngine() *engine {
	engineOnce.Do(func() {
		sharedEng = newEngine()
	})
	return sharedEng
}

func newEngine() *engine {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, ok := jsonName(sf)
		if !ok {
			return ""
		}
		return name
	})

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		panic("validation: register translations: " + err.Error())
	}

	custom := []struct {
		tag     string
		message string
		fn      func(string) bool
	}{
		{"has_upper", "{0} must contain at least one uppercase letter", containsFunc(unicode.IsUpper)},
		{"has_digit", "{0} must contain at least one number", containsFunc(unicode.IsDigit)},
		{"not_blank", "{0} must not be blank", func(s string) bool { return strings.TrimSpace(s) != "" }},
	}
	for _, c := range custom {
		fn := c.fn
		if err := v.RegisterValidation(c.tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			panic("validation: register " + c.tag + ": " + err.Error())
		}
		registerMessage(v, trans, c.tag, c.message)
	}

	return &engine{validate: v, trans: trans}
}

func registerMessage(v *validator.Validate, trans ut.Translator, tag, message string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, message, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

func containsFunc(pred func(rune) bool) func(string) bool {
	return func(s string) bool {
		return strings.IndexFunc(s, pred) >= 0
	}
}
