// Package validation wraps go-playground/validator with readable messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report JSON field names so messages match what clients sent.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Struct validates v's `validate` tags.
func Struct(v any) error {
	return humanize(validate.Struct(v))
}

// Var validates a single value against tag.
func Var(field any, tag string) error {
	return humanize(validate.Var(field, tag))
}

func humanize(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if name == "" {
			name = "value"
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, name+" is required")
		case "email":
			msgs = append(msgs, name+" must be a valid email")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", name, fe.Param()))
		case "min", "max", "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", name, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, name+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
