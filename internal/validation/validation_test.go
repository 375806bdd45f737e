package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/storefront-go/internal/domain/model"
	apperrors "github.com/target/storefront-go/internal/errors"
)

func strPtr(s string) *string { return &s }

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(model.ReviewInput{Rating: 5, Comment: "Great"}))
	assert.NoError(t, Struct(model.RegisterInput{
		Email: "a@b.co", Username: "ab", Password: "password1", RePassword: "password1",
	}))
	assert.NoError(t, Struct(model.ProfileInput{Phone: strPtr("+1 (555) 010-9999")}))
}

func TestStruct_RegisterErrors(t *testing.T) {
	err := Struct(model.RegisterInput{Email: "nope", Password: "short", RePassword: "other"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "email", appErr.Field)
	assert.Equal(t, "Enter a valid email address.", appErr.Message)
	assert.Equal(t, apperrors.PresentInline, apperrors.Present(err))

	fields := appErr.FieldErrors()
	assert.Equal(t, []string{"Username is required."}, fields["username"])
	assert.Equal(t, []string{"Password must be at least 8 characters."}, fields["password"])
	assert.Equal(t, []string{"Passwords do not match."}, fields["re_password"])
}

func TestStruct_ReviewRating(t *testing.T) {
	err := Struct(model.ReviewInput{Rating: 7, Comment: "x"})
	require.Error(t, err)
	assert.Equal(t, "Rating must be at most 5.", apperrors.Message(err))

	err = Struct(model.ReviewInput{Rating: 3})
	assert.Equal(t, "Comment is required.", apperrors.Message(err))
}

func TestStruct_Phone(t *testing.T) {
	err := Struct(model.ProfileInput{Phone: strPtr("call me")})
	require.Error(t, err)
	assert.Equal(t, "phone", apperrors.GetField(err))
	assert.Equal(t, "Enter a valid phone number.", apperrors.Message(err))
}

func TestStruct_OrderItems(t *testing.T) {
	err := Struct(model.OrderInput{ShippingAddress: "1 Main St"})
	require.Error(t, err)
	assert.Equal(t, "Items is required.", apperrors.Message(err))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "First name", Label("first_name"))
	assert.Equal(t, "Password confirmation", Label("re_password"))
	assert.Equal(t, "", Label(""))
}

func TestRequiredAndOneOf(t *testing.T) {
	assert.NoError(t, Required("email", "x"))
	assert.Equal(t, "Email is required.", apperrors.Message(Required("email", "  ")))

	assert.NoError(t, OneOf("theme", "DARK", []string{"light", "dark"}))
	err := OneOf("theme", "neon", []string{"light", "dark"})
	assert.Equal(t, "Theme must be one of: light, dark", apperrors.Message(err))
}
