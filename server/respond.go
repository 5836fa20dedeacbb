package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FieldError is one entry of the errors list in a validation response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// HTTPStatusFromCode maps a handler status code to an HTTP status.
func HTTPStatusFromCode(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {message, errors?}. Errors that are not status
// errors become a 500 with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	st, ok := status.FromError(err)
	if !ok {
		hlog.FromRequest(r).Error().Err(err).Msg("unhandled error")
		st = status.New(codes.Internal, "Internal server error")
	}

	resp := errorResponse{Message: st.Message()}
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.GetFieldViolations() {
				resp.Errors = append(resp.Errors, FieldError{Field: v.GetField(), Message: v.GetDescription()})
			}
		}
	}

	writeJSON(w, HTTPStatusFromCode(st.Code()), resp)
}

func badRequest(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// maxJSONBytes bounds the body of every JSON endpoint.
const maxJSONBytes = 1 << 20

// decodeJSON decodes exactly one JSON value from the body into dst and rejects
// unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return badRequest("Invalid request")
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return badRequest("request body is not valid JSON")
		case errors.As(err, &typeErr):
			return badRequest(fmt.Sprintf("field %q has the wrong type", typeErr.Field))
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		default:
			// unknown fields surface as a plain error from encoding/json
			return badRequest(err.Error())
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}
