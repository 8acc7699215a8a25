package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sashvara/storefront_api/internal/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateInput checks v against its validate tags and turns the first failure
// into a 400 naming the field.
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) || len(vErrs) == 0 {
		return utils.ValidationError("Invalid request")
	}

	fe := vErrs[0]
	switch fe.Tag() {
	case "required":
		return utils.ValidationError("Missing required field: %s", fe.Field())
	case "min", "gte":
		return utils.ValidationError("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return utils.ValidationError("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return utils.ValidationError("%s must be one of: %s", fe.Field(), fe.Param())
	case "email":
		return utils.ValidationError("%s must be a valid email", fe.Field())
	default:
		return utils.ValidationError("Invalid value for %s", fe.Field())
	}
}
