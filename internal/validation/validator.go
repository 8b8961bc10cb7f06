// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

// Package validation wraps a shared go-playground/validator v10 instance
// with the playback domain tags:
//
//	videoid      non-empty id, at most MaxVideoIDLength, no whitespace, control characters or '/'
//	contexttype  one of the models.ContextType values
//	repeatmode   one of the models.RepeatMode values
//
// Failures name fields by their json (or koanf) tag, so a request error says
// "video_id" and a configuration error says "server.port".
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/upnext/internal/models"
)

// MaxVideoIDLength bounds video identifiers accepted from callers.
const MaxVideoIDLength = 128

// ErrorCode is the API error code for every validation failure.
const ErrorCode = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	// Path is the dotted tag path below the validated struct, e.g. "server.port".
	Path    string
	Tag     string
	Param   string
	Message string
}

// RequestValidationError lists every rule a value broke.
type RequestValidationError struct {
	fields []FieldError
}

// Errors returns the individual failures in struct field order.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.fields
}

func (ve *RequestValidationError) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.fields))
	for i := range ve.fields {
		msgs[i] = ve.fields[i].Message
	}
	return strings.Join(msgs, "; ")
}

// APIError is the error body the HTTP layer sends for a validation failure.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError builds the VALIDATION_ERROR body. Details always carries a
// "fields" list; a single failure also sets "field" and "tag".
func (ve *RequestValidationError) ToAPIError() *APIError {
	fields := make([]map[string]string, len(ve.fields))
	for i, fe := range ve.fields {
		fields[i] = map[string]string{
			"field":   fe.Path,
			"tag":     fe.Tag,
			"message": fe.Message,
		}
	}

	details := map[string]any{"fields": fields}
	if len(ve.fields) == 1 {
		details["field"] = ve.fields[0].Path
		details["tag"] = ve.fields[0].Tag
	}
	return &APIError{
		Code:    ErrorCode,
		Message: ve.Error(),
		Details: details,
	}
}

// GetValidator returns the shared validator, building it on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(tagName)

		// Registration only fails on an empty tag or nil func.
		_ = v.RegisterValidation("videoid", validateVideoID)
		_ = v.RegisterValidation("contexttype", validateContextType)
		_ = v.RegisterValidation("repeatmode", validateRepeatMode)
		validate = v
	})
	return validate
}

// tagName prefers the json name, then the koanf name, then the Go name.
func tagName(f reflect.StructField) string {
	for _, key := range []string{"json", "koanf"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func validateVideoID(fl validator.FieldLevel) bool {
	return IsVideoID(fl.Field().String())
}

// IsVideoID reports whether id passes the videoid rule.
func IsVideoID(id string) bool {
	if id == "" || len(id) > MaxVideoIDLength {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r) || r == '/'
	}) < 0
}

func validateContextType(fl validator.FieldLevel) bool {
	return models.ContextType(fl.Field().String()).Valid()
}

func validateRepeatMode(fl validator.FieldLevel) bool {
	return models.RepeatMode(fl.Field().String()).Valid()
}

// ValidateStruct checks s against its validate tags. It returns nil when s
// is valid.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: s was not a struct.
		return &RequestValidationError{fields: []FieldError{{Tag: "struct", Message: err.Error()}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		path := fieldPath(fe.Namespace())
		fields[i] = FieldError{
			Path:    path,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: describe(path, fe),
		}
	}
	return &RequestValidationError{fields: fields}
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

var fixedMessages = map[string]string{
	"required":    "%s is required",
	"videoid":     "%s must be a video id without spaces or slashes",
	"contexttype": "%s must be one of: PLAYLIST, CHANNEL, SEARCH_RESULTS, HOME_FEED, RELATED, MEDITATION",
	"repeatmode":  "%s must be one of: off, all, one",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func describe(path string, fe validator.FieldError) string {
	if tmpl, ok := fixedMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, path)
	}
	if tmpl, ok := paramMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, path, fe.Param())
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", path, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", path, fe.Param(), unit)
	}
	return fmt.Sprintf("%s failed %s validation", path, fe.Tag())
}
