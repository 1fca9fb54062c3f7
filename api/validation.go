package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/warp/loyalty-engine/loyalty"
)

// requestValidator checks request DTOs and renders failures per field.
type requestValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newRequestValidator() *requestValidator {
	v := validator.New()

	// Report json names so messages match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
		_, err := loyalty.ParseTier(fl.Field().String())
		return err == nil
	})

	eng := en.New()
	trans, _ := ut.New(eng, eng).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)
	_ = v.RegisterTranslation("tier", trans,
		func(t ut.Translator) error {
			return t.Add("tier", "{0} must be one of LIGHT, STANDARD, ADVANCE, ELITE, LEGEND", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("tier", fe.Field())
			return msg
		},
	)

	return &requestValidator{validate: v, trans: trans}
}

// Struct validates req. The error, if any, is a validator.ValidationErrors.
func (rv *requestValidator) Struct(req any) error {
	return rv.validate.Struct(req)
}

// Fields maps each failing field path to a readable message. It returns
// nil when err is not a validation failure.
func (rv *requestValidator) Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Translate(rv.trans)
	}
	return fields
}

// fieldPath drops the root struct name: "SimulationRequest.input.x" -> "input.x".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
