package otp

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_Generate(t *testing.T) {
	t.Run("SixDigits", func(t *testing.T) {
		gen := NewCode(otp.DigitsSix)
		re := regexp.MustCompile(`^\d{6}$`)

		for range 200 {
			code, err := gen.Generate()
			require.NoError(t, err)
			assert.Regexp(t, re, code)
		}
	})

	t.Run("UnsupportedLengthFallsBackToSix", func(t *testing.T) {
		code, err := NewCode(otp.Digits(4)).Generate()
		require.NoError(t, err)
		assert.Len(t, code, 6)
	})

	t.Run("ZeroPadded", func(t *testing.T) {
		gen := NewCode(otp.DigitsSix)
		gen.rand = bytes.NewReader(make([]byte, 64))

		code, err := gen.Generate()
		require.NoError(t, err)
		assert.Equal(t, "000000", code)
	})

	t.Run("RandomSourceFailure", func(t *testing.T) {
		gen := NewCode(otp.DigitsSix)
		gen.rand = bytes.NewReader(nil)

		_, err := gen.Generate()
		assert.Error(t, err)
	})
}
