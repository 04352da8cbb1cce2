package extract

import (
	"errors"
	"net/http"
)

// rejection is a typed, recoverable extraction failure. It carries the HTTP
// status the dispatch pipeline converts it into; the response body is the
// error text as plain UTF-8.
type rejection struct {
	msg    string
	status int
}

func (r *rejection) Error() string   { return r.msg }
func (r *rejection) StatusCode() int { return r.status }

// Rejection sentinels. Wrap them with fmt.Errorf("%w: detail") to add
// context; the status survives wrapping via errors.As.
var (
	// ErrFailedToParsePath indicates path parameter extraction or conversion failed.
	ErrFailedToParsePath = &rejection{msg: "failed to parse path parameters", status: http.StatusBadRequest}

	// ErrFailedToParseQuery indicates query parameter parsing failed,
	// typically due to type conversion errors.
	ErrFailedToParseQuery = &rejection{msg: "failed to parse query parameters", status: http.StatusBadRequest}

	// ErrFailedToParseHeader indicates a header value could not be converted
	// to the target field type.
	ErrFailedToParseHeader = &rejection{msg: "failed to parse header values", status: http.StatusBadRequest}

	// ErrFailedToParseJSON indicates the request body contains invalid JSON
	// or doesn't match the target struct schema.
	ErrFailedToParseJSON = &rejection{msg: "failed to parse JSON request body", status: http.StatusBadRequest}

	// ErrFailedToParseForm indicates form data parsing failed due to malformed
	// multipart boundaries or invalid URL-encoded data.
	ErrFailedToParseForm = &rejection{msg: "failed to parse form data", status: http.StatusBadRequest}

	// ErrMissingContentType indicates the request lacks a Content-Type header
	// when one is required for parsing.
	ErrMissingContentType = &rejection{msg: "missing content type", status: http.StatusUnsupportedMediaType}

	// ErrUnsupportedMediaType indicates the Content-Type header specifies a
	// media type the step doesn't support.
	ErrUnsupportedMediaType = &rejection{msg: "unsupported media type", status: http.StatusUnsupportedMediaType}

	// ErrBodyConsumed indicates a body-consuming step ran after the body was
	// already taken. Construction-time validation makes this unreachable for
	// pipelines built through NewPipeline; if it still happens it is a
	// programmer error surfaced as 500 rather than an empty read.
	ErrBodyConsumed = &rejection{msg: "request body already consumed", status: http.StatusInternalServerError}
)

// Pipeline construction errors. These are build-time failures, not
// per-request rejections.
var (
	// ErrBodyStepNotLast indicates a body-consuming step was placed anywhere
	// but the terminal position of a pipeline.
	ErrBodyStepNotLast = errors.New("body-consuming step must be the last step of a pipeline")

	// ErrNoSteps indicates a pipeline was built without any steps.
	ErrNoSteps = errors.New("pipeline requires at least one step")
)
