package extract

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// DefaultMaxMemory is the maximum memory used for parsing multipart forms (10MB).
const DefaultMaxMemory = 10 << 20 // 10 MB

// FormBody returns a body-consuming step for application/x-www-form-urlencoded
// and multipart/form-data requests.
//
// Supported struct tags:
//   - `form:"name"` binds to form field "name", `form:"-"` skips the field
//   - `file:"name"` binds to uploaded file "name" (multipart only)
//
// Form fields accept basic types, slices of basic types for multi-value
// fields, and pointers for optional fields. File fields must be typed
// *multipart.FileHeader or []*multipart.FileHeader.
//
//	type uploadRequest struct {
//		Title   string                  `form:"title"`
//		Tags    []string                `form:"tags"`
//		Avatar  *multipart.FileHeader   `file:"avatar"`
//		Gallery []*multipart.FileHeader `file:"gallery"`
//	}
func FormBody[T any]() Step[T] {
	return Step[T]{
		name: "form",
		body: true,
		bind: func(ctx handler.Context, v *T) error {
			r := ctx.Request()

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				return fmt.Errorf("%w: missing content-type header, expected application/x-www-form-urlencoded or multipart/form-data", ErrMissingContentType)
			}

			// Strip boundary and other parameters from Content-Type
			mediaType := contentType
			if idx := strings.Index(contentType, ";"); idx != -1 {
				mediaType = strings.TrimSpace(contentType[:idx])
			}

			var values map[string][]string
			var files map[string][]*multipart.FileHeader

			switch {
			case mediaType == "application/x-www-form-urlencoded":
				if err := takeBody(ctx); err != nil {
					return err
				}
				if err := r.ParseForm(); err != nil {
					return fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
				}
				values = r.Form

			case strings.HasPrefix(mediaType, "multipart/form-data"):
				// Parse and validate boundary parameter to prevent malformed multipart attacks
				_, params, err := mime.ParseMediaType(contentType)
				if err != nil {
					return fmt.Errorf("%w: malformed content type with boundary", ErrFailedToParseForm)
				}

				boundary, ok := params["boundary"]
				if !ok || boundary == "" {
					return fmt.Errorf("%w: missing boundary in content type", ErrFailedToParseForm)
				}

				if !validateBoundary(boundary) {
					return fmt.Errorf("%w: invalid boundary parameter", ErrFailedToParseForm)
				}

				if err := takeBody(ctx); err != nil {
					return err
				}

				// Use DefaultMaxMemory for multipart parsing; larger files spill to disk
				if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
					return fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
				}

				if r.MultipartForm != nil {
					values = r.MultipartForm.Value
					files = r.MultipartForm.File
				} else {
					values = make(map[string][]string)
				}

			default:
				return fmt.Errorf("%w: got %s, expected application/x-www-form-urlencoded or multipart/form-data", ErrUnsupportedMediaType, mediaType)
			}

			// Cleanup of multipart form is deferred to the server to allow access to files after binding
			return bindFormAndFiles(v, values, files, ErrFailedToParseForm)
		},
	}
}

// bindFormAndFiles binds both form values and files to a struct.
func bindFormAndFiles(v any, values map[string][]string, files map[string][]*multipart.FileHeader, bindErr error) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: target must be a non-nil pointer", bindErr)
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a pointer to struct", bindErr)
	}

	rt := rv.Type()

	for i := range rv.NumField() {
		field := rv.Field(i)
		fieldType := rt.Field(i)

		if !field.CanSet() {
			continue
		}

		formTag := fieldType.Tag.Get("form")
		fileTag := fieldType.Tag.Get("file")

		// Skip if both tags are missing
		if formTag == "" && fileTag == "" {
			continue
		}

		if formTag != "" && formTag != "-" {
			// Parse tag to extract parameter name, ignoring additional options
			paramName := formTag
			if idx := strings.Index(formTag, ","); idx != -1 {
				paramName = formTag[:idx]
			}

			if paramName != "" {
				if fieldValues, exists := values[paramName]; exists && len(fieldValues) > 0 {
					if err := setFieldValue(field, fieldType.Type, fieldValues); err != nil {
						return fmt.Errorf("%w: field %s: %v", bindErr, fieldType.Name, err)
					}
				}
			}
		}

		if fileTag != "" && fileTag != "-" && files != nil {
			if fileHeaders, exists := files[fileTag]; exists && len(fileHeaders) > 0 {
				if err := setFileField(field, fieldType.Type, fileHeaders); err != nil {
					return fmt.Errorf("%w: field %s: %v", bindErr, fieldType.Name, err)
				}
			}
		}
	}

	return nil
}

// setFileField sets file values to struct fields.
func setFileField(field reflect.Value, fieldType reflect.Type, fileHeaders []*multipart.FileHeader) error {
	// Apply security sanitization to prevent path traversal attacks
	for _, fh := range fileHeaders {
		fh.Filename = sanitizeFilename(fh.Filename)
	}

	if fieldType.Kind() == reflect.Slice {
		elemType := fieldType.Elem()
		if elemType != reflect.TypeOf((*multipart.FileHeader)(nil)) {
			return fmt.Errorf("unsupported slice element type for file field: %v", elemType)
		}

		slice := reflect.MakeSlice(fieldType, len(fileHeaders), len(fileHeaders))
		for i, fh := range fileHeaders {
			slice.Index(i).Set(reflect.ValueOf(fh))
		}
		field.Set(slice)
		return nil
	}

	if fieldType == reflect.TypeOf((*multipart.FileHeader)(nil)) {
		field.Set(reflect.ValueOf(fileHeaders[0]))
		return nil
	}

	return fmt.Errorf("unsupported type for file field: %v (expected *multipart.FileHeader or []*multipart.FileHeader)", fieldType)
}

// sanitizeFilename removes path components and dangerous characters from uploaded filenames.
// This prevents path traversal attacks and ensures safe filename handling.
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	if filename == "." || filename == ".." || filename == "" || filename == "/" {
		filename = "unnamed"
	}

	return filename
}
