package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTP(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{Host: "", Port: 25})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@example.com"})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestSMTP_build(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@example.com", FromName: "Verify"})
	require.NoError(t, err)

	t.Run("NoRecipients", func(t *testing.T) {
		_, err := s.build(Message{Subject: "x"})
		assert.ErrorIs(t, err, ErrSMTPNoRecipients)
	})

	t.Run("NoSender", func(t *testing.T) {
		bare, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025})
		require.NoError(t, err)

		_, err = bare.build(Message{To: []string{"user@example.com"}})
		assert.ErrorIs(t, err, ErrSMTPNoSender)
	})

	t.Run("DefaultSender", func(t *testing.T) {
		m, err := s.build(Message{To: []string{"user@example.com"}, Subject: "Code", TextBody: "123456"})
		require.NoError(t, err)

		from := m.GetFromString()
		require.Len(t, from, 1)
		assert.Contains(t, from[0], "noreply@example.com")
		assert.Equal(t, []string{"<user@example.com>"}, m.GetToString())
	})

	t.Run("InvalidRecipient", func(t *testing.T) {
		_, err := s.build(Message{To: []string{"not an address"}})
		assert.Error(t, err)
	})
}
