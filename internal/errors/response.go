package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
)

// User-facing messages with fixed wording.
const (
	NetworkErrorMessage    = "Network error. Please check your connection and try again."
	GenericErrorMessage    = "Something went wrong. Please try again."
	TimeoutErrorMessage    = "The request timed out. Please try again."
	CanceledErrorMessage   = "The request was canceled."
	InactiveAccountMessage = "Your account is not active. Please check your email to activate it."
)

var statusMessages = map[int]string{
	http.StatusBadRequest:          "The request was invalid. Please check your input.",
	http.StatusUnauthorized:        "Your session has expired. Please log in again.",
	http.StatusForbidden:           "You do not have permission to perform this action.",
	http.StatusNotFound:            "The requested resource was not found.",
	http.StatusConflict:            "This action conflicts with the current state of the resource.",
	http.StatusUnprocessableEntity: "The request was invalid. Please check your input.",
	http.StatusTooManyRequests:     "Too many requests. Please wait a moment and try again.",
}

const serverErrorMessage = "The server encountered an error. Please try again later."

// FromResponse normalizes a non-2xx response into an AppError.
//
// The message is chosen by a fixed precedence: the body's "detail" string, then its
// "message" string, then the first validation message found in an object body (in
// document order), then a status-specific text, then a generic fallback.
func FromResponse(status int, body []byte) *AppError {
	trimmed := bytes.TrimSpace(body)
	appErr := &AppError{
		Code:    codeForStatus(status),
		Message: messageFromBody(status, trimmed),
		Status:  status,
	}
	if len(trimmed) > 0 {
		appErr.Details = append(json.RawMessage(nil), trimmed...)
	}
	if appErr.Code == ErrCodeValidation {
		appErr.Field = firstFieldName(trimmed)
	}
	return appErr
}

// Network wraps a transport failure. Context errors keep their own codes so callers can
// tell a deadline from a dropped connection.
func Network(err error) *AppError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &AppError{Code: ErrCodeTimeout, Message: TimeoutErrorMessage, Cause: err}
	case errors.Is(err, context.Canceled):
		return &AppError{Code: ErrCodeCanceled, Message: CanceledErrorMessage, Cause: err}
	default:
		return &AppError{Code: ErrCodeNetwork, Message: NetworkErrorMessage, Cause: err}
	}
}

func codeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrCodeValidation
	case status == http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case status == http.StatusForbidden:
		return ErrCodeForbidden
	case status == http.StatusNotFound:
		return ErrCodeNotFound
	case status == http.StatusConflict:
		return ErrCodeConflict
	case status >= http.StatusInternalServerError:
		return ErrCodeServer
	default:
		return ErrCodeUnknown
	}
}

// StatusMessage returns the generic text for a status code.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	if status >= http.StatusInternalServerError {
		return serverErrorMessage
	}
	return GenericErrorMessage
}

func messageFromBody(status int, body []byte) string {
	if len(body) > 0 && body[0] == '{' {
		var top map[string]json.RawMessage
		if err := json.Unmarshal(body, &top); err == nil {
			if msg := stringField(top, "detail"); msg != "" {
				return msg
			}
			if msg := stringField(top, "message"); msg != "" {
				return msg
			}
			if msg := firstValidationMessage(body); msg != "" {
				return msg
			}
		}
	}
	return StatusMessage(status)
}

func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// firstValidationMessage walks an object body with a streaming decoder so that "first"
// means first in the document, not first in Go's randomized map order.
func firstValidationMessage(body []byte) string {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return ""
	}
	msg, _ := firstInObject(dec)
	return msg
}

func firstInObject(dec *json.Decoder) (string, error) {
	found := ""
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return found, err
		}
		msg, err := firstInValue(dec)
		if err != nil {
			return found, err
		}
		if found == "" {
			found = msg
		}
	}
	_, err := dec.Token()
	return found, err
}

func firstInArray(dec *json.Decoder) (string, error) {
	found := ""
	for dec.More() {
		msg, err := firstInValue(dec)
		if err != nil {
			return found, err
		}
		if found == "" {
			found = msg
		}
	}
	_, err := dec.Token()
	return found, err
}

func firstInValue(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	switch v := tok.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case json.Delim:
		switch v {
		case '{':
			return firstInObject(dec)
		case '[':
			return firstInArray(dec)
		}
	}
	return "", nil
}

func firstFieldName(body []byte) string {
	if len(body) == 0 || body[0] != '{' {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return ""
	}
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return ""
		}
		name, _ := key.(string)
		msg, err := firstInValue(dec)
		if err != nil {
			return ""
		}
		if msg != "" && name != "detail" && name != "message" && name != "non_field_errors" {
			return name
		}
	}
	return ""
}

// FieldErrors returns per-field messages from a validation response body. Nested
// objects are flattened with dotted keys.
func (e *AppError) FieldErrors() map[string][]string {
	if e == nil || len(e.Details) == 0 || e.Details[0] != '{' {
		return nil
	}
	var top map[string]any
	if err := json.Unmarshal(e.Details, &top); err != nil {
		return nil
	}
	out := make(map[string][]string)
	collectFieldErrors(out, "", top)
	if len(out) == 0 {
		return nil
	}
	return out
}

func collectFieldErrors(out map[string][]string, prefix string, obj map[string]any) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch v := obj[k].(type) {
		case string:
			out[name] = append(out[name], v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					out[name] = append(out[name], s)
				}
			}
		case map[string]any:
			collectFieldErrors(out, name, v)
		}
	}
}

// Presentation tells a caller how a failure should be surfaced.
type Presentation int

const (
	// PresentToast shows a transient notification.
	PresentToast Presentation = iota
	// PresentInline attaches messages to the offending form fields.
	PresentInline
	// PresentRedirect sends the visitor to the login page.
	PresentRedirect
)

// String returns the presentation name.
func (p Presentation) String() string {
	switch p {
	case PresentInline:
		return "inline"
	case PresentRedirect:
		return "redirect"
	default:
		return "toast"
	}
}

// Present classifies err for display. A 401 reaching a caller means the automatic
// refresh already failed, so the only remaining move is the login page.
func Present(err error) Presentation {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return PresentToast
	}
	switch {
	case appErr.Status == http.StatusUnauthorized:
		return PresentRedirect
	case appErr.Status == http.StatusBadRequest, appErr.Status == http.StatusUnprocessableEntity:
		return PresentInline
	case appErr.Code == ErrCodeValidation && appErr.Status == 0:
		return PresentInline
	default:
		return PresentToast
	}
}
