package entity

import "time"

// TableName is the table, collection or key prefix holding OTP records.
const TableName = "otp"

// Channel is the medium an OTP is delivered through.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

func (c Channel) String() string {
	return string(c)
}

// IsValid reports whether c is a supported channel.
func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelPhone
}

// OTP is a persisted one-time passcode.
//
// Consumed only ever moves from false to true. ExpiresAt is fixed at creation.
type OTP struct {
	ID         int64
	Identifier string
	Channel    Channel
	Code       string
	Consumed   bool
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsExpired reports whether the code can no longer be used at now. A zero
// expiry means the stored value was unreadable and counts as expired.
func (o OTP) IsExpired(now time.Time) bool {
	return o.ExpiresAt.IsZero() || !now.Before(o.ExpiresAt)
}
