package config

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("retention", isRetention); err != nil {
		return nil, nil, fmt.Errorf("failed to register retention validation: %w", err)
	}
	if err := validate.RegisterTranslation("retention", trans, func(ut ut.Translator) error {
		return ut.Add("retention", "{0} must be a recall probability strictly between 0 and 1, got {1}", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("retention", strings.TrimPrefix(fe.Namespace(), "Config."), fmt.Sprint(fe.Value()))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register retention translation: %w", err)
	}

	return validate, trans, nil
}

// isRetention accepts the recall probabilities the memory model can schedule for.
func isRetention(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsNaN(v) && v > 0 && v < 1
}
