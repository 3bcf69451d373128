package inbound

import (
	"context"

	"github.com/shandysiswandi/hirelens/internal/health/usecase"
	"github.com/shandysiswandi/hirelens/internal/pkg/router"
)

type uc interface {
	Ping(ctx context.Context) usecase.PingOutput
	Hello(ctx context.Context) string
	Diagnose(ctx context.Context) usecase.DiagnoseOutput
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/ping", end.Ping)
	r.GET("/test", end.Diagnose)
	r.GET("/api/hello", end.Hello)
}
