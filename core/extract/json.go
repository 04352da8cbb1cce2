package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// DefaultMaxJSONSize is the maximum accepted JSON request body size (1MB).
const DefaultMaxJSONSize = 1 << 20 // 1 MB

// JSONBody returns a body-consuming step that decodes a JSON request body
// into the request value. Decoding is strict: unknown fields, trailing data
// after the top-level value, and bodies over DefaultMaxJSONSize are all
// rejected. A missing or non-JSON Content-Type rejects with 415 before the
// body is touched.
//
//	type createUserRequest struct {
//		Email string `json:"email"`
//		Name  string `json:"name"`
//	}
//
//	r.Post("/users", extract.Handler(createUser,
//		extract.QueryParams[createUserRequest](),
//		extract.JSONBody[createUserRequest]()))
func JSONBody[T any]() Step[T] {
	return Step[T]{
		name: "json",
		body: true,
		bind: func(ctx handler.Context, v *T) error {
			r := ctx.Request()

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				return fmt.Errorf("%w: missing content-type header, expected application/json", ErrMissingContentType)
			}

			// Strip charset and other parameters from Content-Type (e.g., "application/json; charset=utf-8")
			mediaType := contentType
			if idx := strings.Index(contentType, ";"); idx != -1 {
				mediaType = strings.TrimSpace(contentType[:idx])
			}

			if mediaType != "application/json" {
				return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, mediaType)
			}

			if err := takeBody(ctx); err != nil {
				return err
			}

			// Read entire body with +1 byte to detect oversized requests efficiently
			limitedReader := io.LimitReader(r.Body, DefaultMaxJSONSize+1)
			body, err := io.ReadAll(limitedReader)
			if err != nil {
				return fmt.Errorf("%w: failed to read request body: %v", ErrFailedToParseJSON, err)
			}

			// Reject requests exceeding size limit to prevent DoS attacks
			if len(body) > DefaultMaxJSONSize {
				return fmt.Errorf("%w: request body too large (max %d bytes)", ErrFailedToParseJSON, DefaultMaxJSONSize)
			}

			decoder := json.NewDecoder(strings.NewReader(string(body)))
			decoder.DisallowUnknownFields() // Strict mode prevents typos and unexpected fields

			if err := decoder.Decode(v); err != nil {
				if err == io.EOF {
					return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
				}
				return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
			}

			// Verify no trailing data exists after valid JSON to prevent injection attacks
			var extra json.RawMessage
			if err := decoder.Decode(&extra); err != io.EOF {
				return fmt.Errorf("%w: unexpected data after JSON object", ErrFailedToParseJSON)
			}

			// Apply security sanitization to prevent XSS and injection attacks
			if err := sanitizeJSONStruct(v); err != nil {
				return fmt.Errorf("%w: failed to sanitize input: %v", ErrFailedToParseJSON, err)
			}

			return nil
		},
	}
}

// sanitizeJSONStruct recursively sanitizes all string fields in a struct.
func sanitizeJSONStruct(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil
	}

	return sanitizeReflectValue(rv.Elem())
}

// sanitizeReflectValue recursively sanitizes reflect.Value.
func sanitizeReflectValue(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.String:
		if rv.CanSet() {
			rv.SetString(sanitizeStringValue(rv.String()))
		}

	case reflect.Struct:
		for i := range rv.NumField() {
			field := rv.Field(i)
			if field.CanSet() {
				if err := sanitizeReflectValue(field); err != nil {
					return err
				}
			}
		}

	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			if err := sanitizeReflectValue(rv.Index(i)); err != nil {
				return err
			}
		}

	case reflect.Pointer, reflect.Interface:
		if !rv.IsNil() {
			if err := sanitizeReflectValue(rv.Elem()); err != nil {
				return err
			}
		}
	}

	return nil
}

// statusCoder mirrors the router's status detection so tests and custom error
// handlers can read a rejection's intended HTTP status.
type statusCoder interface {
	StatusCode() int
}

// StatusOf returns the HTTP status a rejection maps to, walking wrapped
// errors. Non-rejection errors map to 500.
func StatusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}
