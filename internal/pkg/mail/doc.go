// Package mail sends email through a provider-agnostic Mail interface.
//
// SMTP delivery is built on github.com/wneessen/go-mail. Log is a drop-in
// replacement for local development that only writes the message to slog.
package mail
