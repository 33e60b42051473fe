package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeJSON decodes a request body into dst, rejecting unknown fields,
// then runs struct validation. Failures come back as ValidationError.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ValidationError("request body required")
		}
		return ValidationError("malformed request body")
	}
	return Validate(dst)
}

// Validate runs struct validation on dst.
func Validate(dst any) error {
	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return Upstream(err)
		}
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			names := make([]string, 0, len(fields))
			for _, f := range fields {
				names = append(names, strings.ToLower(f.Field()))
			}
			return ValidationError("invalid fields: %s", strings.Join(names, ", "))
		}
		return ValidationError("invalid request")
	}
	return nil
}
