package feed

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// check sprawdza schemat wariantu. Tylko błąd pola ID odrzuca wiersz;
// pozostałe pola są opcjonalne i wracają w invalid, żeby je wyczyścić.
func check(schema any) (ok bool, invalid map[string]bool) {
	err := validatorInstance().Struct(schema)
	if err == nil {
		return true, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, nil
	}
	invalid = map[string]bool{}
	for _, fe := range verrs {
		if fe.StructField() == "ID" {
			return false, nil
		}
		invalid[fe.StructField()] = true
	}
	return true, invalid
}

// blankIf zwraca "" dla pola, które nie przeszło walidacji.
func blankIf(invalid map[string]bool, field, v string) string {
	if invalid[field] {
		return ""
	}
	return v
}
