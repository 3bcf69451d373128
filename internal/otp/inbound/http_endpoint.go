package inbound

import (
	"github.com/shandysiswandi/hirelens/internal/otp/usecase"
	"github.com/shandysiswandi/hirelens/internal/pkg/router"
)

// HTTPEndpoint exposes the issue and verify operations over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// SendOTP issues a code for an email address or phone number.
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{
		Identifier: req.Identifier,
		Via:        req.Via,
	})
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{Status: resp.Status, DebugCode: resp.DebugCode}, nil
}

// VerifyOTP consumes a code and returns a session token.
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Identifier: req.Identifier,
		Code:       req.OTP,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{Status: resp.Status, Token: resp.Token}, nil
}
