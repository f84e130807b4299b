// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

// Package validation wraps go-playground/validator v10 with a shared instance,
// bridge-specific rules and error messages in the API's VALIDATION_ERROR
// format.
//
// Custom tags:
//   - channelkey: a non-empty channel key with no control characters (spaces
//     are allowed)
//   - ctpath: an archive path beginning and ending with "/"
//
// Field names in errors come from the query, json or koanf struct tag when
// present.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// CodeValidation is the API error code for field failures.
const CodeValidation = "VALIDATION_ERROR"

var (
	shared     *validator.Validate
	sharedOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   any
	Message string
}

func (e FieldError) Error() string { return e.Message }

// Errors holds every failure found in one struct.
type Errors []FieldError

func (es Errors) Error() string {
	if len(es) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// APIError mirrors the api package's error body without importing it.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError shapes es for a 400 response. A single failure reports its
// field, tag and value; several are listed under "fields".
func (es Errors) ToAPIError() *APIError {
	switch len(es) {
	case 0:
		return &APIError{Code: CodeValidation, Message: "Validation failed"}
	case 1:
		e := es[0]
		return &APIError{
			Code:    CodeValidation,
			Message: e.Message,
			Details: map[string]any{"field": e.Field, "tag": e.Tag, "value": e.Value},
		}
	}

	fields := make([]map[string]any, len(es))
	msgs := make([]string, len(es))
	for i, e := range es {
		fields[i] = map[string]any{"field": e.Field, "tag": e.Tag, "message": e.Message}
		msgs[i] = e.Field + ": " + e.Message
	}
	return &APIError{
		Code:    CodeValidation,
		Message: strings.Join(msgs, "; "),
		Details: map[string]any{"fields": fields},
	}
}

// Validator returns the shared instance.
func Validator() *validator.Validate {
	sharedOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(tagName)
		// Both only fail on an empty tag or nil func.
		_ = v.RegisterValidation("channelkey", isChannelKey)
		_ = v.RegisterValidation("ctpath", isArchivePath)
		shared = v
	})
	return shared
}

func tagName(f reflect.StructField) string {
	for _, key := range []string{"query", "json", "koanf"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return f.Name
}

func isChannelKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	return key != "" && strings.IndexFunc(key, unicode.IsControl) < 0
}

func isArchivePath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/")
}

// ValidateStruct checks s against its validate tags. The result is nil when
// s is valid.
func ValidateStruct(s any) Errors {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make(Errors, len(fes))
	for i, fe := range fes {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: message(fe),
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	f, p := fe.Field(), fe.Param()

	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "url":
		return f + " must be a valid URL"
	case "http_url":
		return f + " must be a valid http or https URL"
	case "hostname_port":
		return f + " must be host:port"
	case "channelkey":
		return f + " must be a non-empty channel key without control characters"
	case "ctpath":
		return f + " must begin and end with /"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, p)
	case "gt", "gtfield":
		return fmt.Sprintf("%s must be greater than %s", f, p)
	case "gte", "gtefield":
		return fmt.Sprintf("%s must be greater than or equal to %s", f, p)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", f, p)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", f, p)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", f, p, unit(fe.Kind()))
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", f, p, unit(fe.Kind()))
	default:
		return fmt.Sprintf("%s failed %s validation", f, fe.Tag())
	}
}

func unit(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Map, reflect.Array:
		return " items"
	default:
		return ""
	}
}
