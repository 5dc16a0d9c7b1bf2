package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names so clients can highlight the right input.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("industry", func(fl validator.FieldLevel) bool {
		return IsIndustry(fl.Field().String())
	})
	_ = v.RegisterValidation("postgradtype", func(fl validator.FieldLevel) bool {
		_, ok := ParsePostGradType(fl.Field().String())
		return ok
	})

	return v
}

// validateStruct runs tag validation on s and appends failures to ve.
func validateStruct(s interface{}, ve *ValidationError) {
	err := validate.Struct(s)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ve.Add("", err.Error())
		return
	}
	for _, fe := range verrs {
		ve.Add(fe.Field(), messageFor(fe))
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "industry":
		return "must be one of the listed industries"
	case "postgradtype":
		return "must be one of work, school, seeking, internship"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// ValidateStruct runs tag validation on a request struct and returns a
// *ValidationError, or nil.
func ValidateStruct(s interface{}) error {
	ve := &ValidationError{}
	validateStruct(s, ve)
	return ve.OrNil()
}
