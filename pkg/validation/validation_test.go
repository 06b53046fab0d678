package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "caremonitor/pkg/domain-errors"
)

type plainRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Code  string `json:"code" validate:"omitempty,min=3"`
}

type customRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (customRequest) ValidationMessage(key, _ string) (string, bool) {
	if key == "email.required" {
		return "Email is required", true
	}
	return "", false
}

func TestValidate_DefaultMessages(t *testing.T) {
	tests := []struct {
		name  string
		req   plainRequest
		field string
		want  string
	}{
		{"required", plainRequest{}, "name", "name is required"},
		{"email", plainRequest{Name: "x", Email: "nope"}, "email", "email must be a valid email"},
		{"min", plainRequest{Name: "x", Code: "ab"}, "code", "code must be at least 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.req)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, tt.want, Fields(err)[tt.field])
		})
	}
}

func TestValidate_CustomMessages(t *testing.T) {
	err := Validate(&customRequest{})
	require.Error(t, err)
	assert.Equal(t, "Email is required", err.Error())

	err = Validate(&customRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email", err.Error(), "unmapped tags fall back to the default")
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate(&plainRequest{Name: "ok", Email: "a@b.co"}))
	assert.Nil(t, Fields(nil))
}
