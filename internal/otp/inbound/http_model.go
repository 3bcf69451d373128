package inbound

type SendOTPRequest struct {
	Identifier string `json:"identifier"`
	Via        string `json:"via"`
}

type SendOTPResponse struct {
	Status    string `json:"status"`
	DebugCode string `json:"debug_code,omitempty"`
}

func (SendOTPResponse) Message() string {
	return "Verification code has been sent"
}

type VerifyOTPRequest struct {
	Identifier string `json:"identifier"`
	OTP        string `json:"otp"`
}

type VerifyOTPResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

func (VerifyOTPResponse) Message() string {
	return "Verification code is valid"
}
