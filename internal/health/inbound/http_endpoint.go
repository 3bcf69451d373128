package inbound

import (
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/hirelens/internal/health/usecase"
	"github.com/shandysiswandi/hirelens/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Ping(r *router.Request) (any, error) {
	out := h.uc.Ping(r.Context())
	return PingResponse{Status: out.Status, Time: out.Time.Format(time.RFC3339)}, nil
}

func (h *HTTPEndpoint) Hello(r *router.Request) (any, error) {
	return HelloResponse{Text: h.uc.Hello(r.Context())}, nil
}

func (h *HTTPEndpoint) Diagnose(r *router.Request) (any, error) {
	out := h.uc.Diagnose(r.Context())

	return DiagnoseResponse{
		Backend:          out.Backend,
		Database:         out.Database,
		DatabaseURL:      out.DatabaseURL,
		DatabaseName:     out.DatabaseName,
		ConnectionStatus: out.ConnectionStatus,
		Collections:      out.Collections,
		StorageDriver:    out.StorageDriver,
		Probes: lo.Map(out.Probes, func(p usecase.ProbeResult, _ int) ProbeResponse {
			return ProbeResponse{
				Name:        p.Name,
				Status:      p.Status,
				LatencyMS:   p.Latency.Milliseconds(),
				Collections: p.Collections,
				Error:       p.Error,
			}
		}),
	}, nil
}
