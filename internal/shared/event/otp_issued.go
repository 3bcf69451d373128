package event

import "time"

// OTPIssuedDestination is the topic an issued code is published to for delivery.
const OTPIssuedDestination string = "otp_issued"

// OTPIssuedConsumerDelivery is the consumer group that sends the code to the user.
const OTPIssuedConsumerDelivery string = "otp_issued_delivery"

type OTPIssuedMessage struct {
	OTPID      int64     `json:"otp_id"`
	Identifier string    `json:"identifier"`
	Channel    string    `json:"channel"`
	Code       string    `json:"code"`
	ExpiresAt  time.Time `json:"expires_at"`
}
