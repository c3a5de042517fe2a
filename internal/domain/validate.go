package domain

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// InvalidURLMessage is shown inline when the URL field does not parse.
const InvalidURLMessage = "Please enter a valid URL (include https://)"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names so messages match form field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("absurl", isAbsoluteURL); err != nil {
		panic(fmt.Sprintf("register absurl validation: %v", err))
	}
	return v
}

// allowedSchemes are the link schemes a bookmark may use. Anything else
// (javascript:, data:, vbscript:, ...) would run in the page when clicked.
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// isAbsoluteURL accepts http(s) URLs with a host and mailto links with an
// address.
func isAbsoluteURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if !allowedSchemes[scheme] {
		return false
	}
	if scheme == "mailto" {
		return u.Opaque != ""
	}
	return u.Host != ""
}

// Validate normalizes and checks a create request. The returned value is the
// normalized input; on failure the error is a *ValidationError.
func (n NewBookmark) Validate() (NewBookmark, error) {
	n = n.Normalize()

	err := validate.Struct(n)
	if err == nil {
		return n, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return n, fmt.Errorf("validate bookmark: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return n, &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Field() == "url" && fe.Tag() != "max" {
		return InvalidURLMessage
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldLabel(fe.Field()))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fieldLabel(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fieldLabel(fe.Field()))
	}
}

func fieldLabel(field string) string {
	switch field {
	case "title":
		return "Title"
	case "url":
		return "URL"
	case "user_id":
		return "Owner"
	default:
		return field
	}
}
