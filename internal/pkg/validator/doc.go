// Package validator wraps go-playground/validator with English messages and
// the custom "phone" and "email_address" rules used by request structs.
package validator
