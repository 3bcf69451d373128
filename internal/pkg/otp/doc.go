// Package otp generates the numeric one-time codes sent to users.
//
// Codes are drawn from crypto/rand and zero-padded to the configured number
// of digits, so "000123" is as likely as "987654".
package otp
