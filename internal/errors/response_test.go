package errors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResponse_MessagePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "detail wins",
			status: http.StatusBadRequest,
			body:   `{"message":"m","detail":"x","email":["e"]}`,
			want:   "x",
		},
		{
			name:   "message when no detail",
			status: http.StatusBadRequest,
			body:   `{"email":["e"],"message":"m"}`,
			want:   "m",
		},
		{
			name:   "first field error",
			status: http.StatusBadRequest,
			body:   `{"field":["msg"]}`,
			want:   "msg",
		},
		{
			name:   "first field in document order",
			status: http.StatusBadRequest,
			body:   `{"zeta":["first"],"alpha":["second"]}`,
			want:   "first",
		},
		{
			name:   "nested object field",
			status: http.StatusBadRequest,
			body:   `{"address":{"city":["City is required."]}}`,
			want:   "City is required.",
		},
		{
			name:   "skips empty values",
			status: http.StatusBadRequest,
			body:   `{"a":[],"b":"","c":["third"]}`,
			want:   "third",
		},
		{
			name:   "non-string detail falls through",
			status: http.StatusBadRequest,
			body:   `{"detail":42,"name":"bad name"}`,
			want:   "bad name",
		},
		{
			name:   "status text for empty body",
			status: http.StatusNotFound,
			body:   ``,
			want:   StatusMessage(http.StatusNotFound),
		},
		{
			name:   "status text for html body",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			want:   serverErrorMessage,
		},
		{
			name:   "status text for array body",
			status: http.StatusForbidden,
			body:   `["nope"]`,
			want:   StatusMessage(http.StatusForbidden),
		},
		{
			name:   "generic fallback",
			status: http.StatusTeapot,
			body:   `{}`,
			want:   GenericErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromResponse(tt.status, []byte(tt.body))
			assert.Equal(t, tt.want, err.Message)
			assert.Equal(t, tt.status, err.Status)
		})
	}
}

func TestFromResponse_Codes(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusBadRequest, ErrCodeValidation},
		{http.StatusUnprocessableEntity, ErrCodeValidation},
		{http.StatusUnauthorized, ErrCodeUnauthorized},
		{http.StatusForbidden, ErrCodeForbidden},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusConflict, ErrCodeConflict},
		{http.StatusInternalServerError, ErrCodeServer},
		{http.StatusServiceUnavailable, ErrCodeServer},
		{http.StatusTeapot, ErrCodeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromResponse(tt.status, nil).Code, "status %d", tt.status)
	}
}

func TestFromResponse_KeepsDetailsAndField(t *testing.T) {
	err := FromResponse(http.StatusBadRequest, []byte(`{"email":["Enter a valid email."],"password":["Too short."]}`))
	require.NotNil(t, err)
	assert.Equal(t, "email", err.Field)
	assert.JSONEq(t, `{"email":["Enter a valid email."],"password":["Too short."]}`, string(err.Details))

	fields := err.FieldErrors()
	assert.Equal(t, []string{"Enter a valid email."}, fields["email"])
	assert.Equal(t, []string{"Too short."}, fields["password"])
}

func TestFieldErrors_Nested(t *testing.T) {
	err := FromResponse(http.StatusBadRequest, []byte(`{"profile":{"phone":"Invalid phone."},"count":3}`))
	assert.Equal(t, map[string][]string{"profile.phone": {"Invalid phone."}}, err.FieldErrors())

	assert.Nil(t, FromResponse(http.StatusInternalServerError, nil).FieldErrors())
}

func TestNetwork(t *testing.T) {
	err := Network(errors.New("dial tcp: connection refused"))
	assert.Equal(t, ErrCodeNetwork, err.Code)
	assert.Equal(t, NetworkErrorMessage, err.Message)
	assert.Zero(t, err.Status)

	assert.Equal(t, ErrCodeTimeout, Network(context.DeadlineExceeded).Code)
	assert.Equal(t, ErrCodeCanceled, Network(context.Canceled).Code)
	assert.Nil(t, Network(nil))
}

func TestPresent(t *testing.T) {
	assert.Equal(t, PresentInline, Present(FromResponse(http.StatusBadRequest, nil)))
	assert.Equal(t, PresentInline, Present(FromResponse(http.StatusUnprocessableEntity, nil)))
	assert.Equal(t, PresentInline, Present(ValidationField("email", "required")))
	assert.Equal(t, PresentRedirect, Present(FromResponse(http.StatusUnauthorized, nil)))
	assert.Equal(t, PresentToast, Present(FromResponse(http.StatusInternalServerError, nil)))
	assert.Equal(t, PresentToast, Present(FromResponse(http.StatusForbidden, nil)))
	assert.Equal(t, PresentToast, Present(Network(errors.New("boom"))))
	assert.Equal(t, PresentToast, Present(errors.New("plain")))
	assert.Equal(t, "inline", PresentInline.String())
}
