package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 1 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/hirelens/internal/otp/usecase.(*Usecase).SendOTP(...)
	/app/internal/otp/usecase/send_otp.go:42 +0x1a
net/http.HandlerFunc.ServeHTTP(...)
	/usr/local/go/src/net/http/server.go:2220 +0x29
`)

	assert.Equal(t, []string{"internal/otp/usecase/send_otp.go:42"}, InternalPaths(stack))
	assert.Empty(t, InternalPaths(nil))
}
