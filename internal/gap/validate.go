package gap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

// Package-level validator for classifier inputs. Field names in errors use
// the json tag so messages match request payloads.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ErrInvalidInput is wrapped by Validate failures.
var ErrInvalidInput = eris.New("gap: invalid input")

// Validate checks that in holds a 0-5 score and a 0-1 section weight.
func (in Input) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return eris.Wrap(err, "gap: validate input")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return eris.Wrapf(ErrInvalidInput, "%s", strings.Join(msgs, "; "))
}

// IsInvalidInput reports whether err came from Input.Validate.
func IsInvalidInput(err error) bool {
	return eris.Is(err, ErrInvalidInput)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
