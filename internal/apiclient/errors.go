package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for API operations.
var (
	ErrNotFound     = errors.New("api: not found")
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNoToken      = errors.New("api: no token received")
)

// FieldError is one entry of a validation error list.
type FieldError struct {
	Location string
	Message  string
}

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	// Detail is the server-supplied message, empty when none was sent.
	Detail string
	Fields []FieldError
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

// Is matches ErrNotFound and ErrUnauthorized by status code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// Message returns the server detail carried by err, or fallback when err
// carries none.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

type rawFieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func parseError(status int, body []byte) *Error {
	apiErr := &Error{StatusCode: status}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apiErr
	}

	if len(parsed.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(parsed.Detail, &detail); err == nil {
			apiErr.Detail = detail
			return apiErr
		}

		var fields []rawFieldError
		if err := json.Unmarshal(parsed.Detail, &fields); err == nil {
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				fe := FieldError{Location: joinLoc(f.Loc), Message: f.Msg}
				apiErr.Fields = append(apiErr.Fields, fe)
				if fe.Location != "" {
					msgs = append(msgs, fe.Location+": "+fe.Message)
				} else {
					msgs = append(msgs, fe.Message)
				}
			}
			apiErr.Detail = strings.Join(msgs, "; ")
			return apiErr
		}
	}

	apiErr.Detail = parsed.Error
	return apiErr
}

func joinLoc(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, p := range loc {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ".")
}
