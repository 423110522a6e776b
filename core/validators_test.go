package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type validated struct {
	Name     string `form:"name" validate:"required"`
	Date     string `json:"date" validate:"omitempty,isodate"`
	Password string `form:"password"`
	Confirm  string `form:"confirmPassword" validate:"eqfield=Password"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		in         validated
		wantFields map[string]string
	}{
		{name: "valid", in: validated{Name: "a", Date: "2024-01-31", Password: "x", Confirm: "x"}},
		{
			name: "all invalid",
			in:   validated{Date: "31/01/2024", Password: "x", Confirm: "y"},
			wantFields: map[string]string{
				"name":            "this field is required",
				"date":            "must be a date (YYYY-MM-DD)",
				"confirmPassword": "passwords do not match",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.in)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			vErr, ok := errors.Cause(err).(*ValidationError)
			if !ok {
				t.Fatalf("ValidateStruct() error = %v, want *ValidationError", err)
			}
			assert.Equal(t, tt.wantFields, vErr.FieldMap())
		})
	}
}

func TestErrorMessage(t *testing.T) {
	fallback := "something went wrong"
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "remote with message", err: errors.Wrap(&RemoteError{Op: "x", StatusCode: 400, Message: "Class is full"}, "ctx"), want: "Class is full"},
		{name: "remote without message", err: &RemoteError{Op: "x", StatusCode: 500}, want: fallback},
		{name: "unreachable", err: errors.Wrap(ErrUnreachable, "x"), want: fallback},
		{name: "validation", err: NewValidationError(errors.New("passwords do not match")), want: "passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err, fallback))
		})
	}

	assert.True(t, IsUnauthorized(errors.Wrap(&RemoteError{StatusCode: 401}, "me")))
	assert.False(t, IsUnauthorized(&RemoteError{StatusCode: 403}))
	assert.True(t, IsUnreachable(errors.Wrap(ErrUnreachable, "children.list")))
}
