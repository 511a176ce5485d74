// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	strict   = bluemonday.StrictPolicy()
)

// DecodeAndValidate parses the JSON body into v and runs its validate tags.
// The returned error is safe to show to the client.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := ParseJSONBody(r, v); err != nil {
		return errors.New("Invalid JSON")
	}
	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return describe(fieldErrs[0])
		}
		return err
	}
	return nil
}

func describe(fe validator.FieldError) error {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be an email address", field)
	case "datetime":
		return fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	case "min", "max":
		return fmt.Errorf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%s is invalid", field)
}

// CleanText strips markup from user-entered labels and trims whitespace.
// Entities escaped by the sanitizer are turned back into plain text since
// labels are stored raw and only ever rendered as JSON.
func CleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
