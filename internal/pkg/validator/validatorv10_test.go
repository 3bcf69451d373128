package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactInput struct {
	Email string `json:"email" validate:"omitempty,email_address"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

func TestV10Validator_Rules(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		in        contactInput
		wantField string
	}{
		{name: "valid email", in: contactInput{Email: "User@Example.com"}},
		{name: "valid phone with plus", in: contactInput{Phone: "+15551234567"}},
		{name: "valid phone without plus", in: contactInput{Phone: "5551234567"}},
		{name: "email without domain dot", in: contactInput{Email: "user@localhost"}, wantField: "email"},
		{name: "email without at", in: contactInput{Email: "not-an-email"}, wantField: "email"},
		{name: "phone too short", in: contactInput{Phone: "12345"}, wantField: "phone"},
		{name: "phone too long", in: contactInput{Phone: "+1234567890123456"}, wantField: "phone"},
		{name: "phone with letters", in: contactInput{Phone: "555-123-4567"}, wantField: "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Values(), tt.wantField)
			assert.Contains(t, verr.Values()[tt.wantField], tt.wantField)
		})
	}
}

func TestIsPhone(t *testing.T) {
	assert.True(t, IsPhone(" +628123456789 "))
	assert.False(t, IsPhone("+62 812 3456 789"))
	assert.False(t, IsPhone(""))
}
