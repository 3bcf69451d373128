package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/hirelens/internal/pkg/clock"
	"github.com/shandysiswandi/hirelens/internal/pkg/config"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"go.opentelemetry.io/otel/trace"
)

const (
	StatusUp       = "up"
	StatusDown     = "down"
	maxCollections = 10
	probeTimeout   = 2 * time.Second
)

// ProbeResult is the outcome of checking one storage backend.
type ProbeResult struct {
	Name        string
	Status      string
	Latency     time.Duration
	Collections []string
	Error       string
}

// Probe checks a backing service. It reports failures in the result rather
// than returning them.
type Probe interface {
	Name() string
	Check(ctx context.Context) ProbeResult
}

type Usecase struct {
	probes []Probe
	cfg    config.Config
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

type Dependency struct {
	Probes     []Probe
	Config     config.Config
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		probes: lo.Filter(dep.Probes, func(p Probe, _ int) bool { return p != nil }),
		cfg:    dep.Config,
		clock:  dep.Clock,
		ins:    dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("health.usecase").Start(ctx, name)
}

type PingOutput struct {
	Status string
	Time   time.Time
}

func (s *Usecase) Ping(ctx context.Context) PingOutput {
	_, span := s.startSpan(ctx, "Ping")
	defer span.End()

	return PingOutput{Status: "ok", Time: s.clock.Now().UTC()}
}

func (s *Usecase) Hello(ctx context.Context) string {
	_, span := s.startSpan(ctx, "Hello")
	defer span.End()

	return "Hello from the backend API!"
}

type DiagnoseOutput struct {
	Backend          string
	Database         string
	DatabaseURL      string
	DatabaseName     string
	ConnectionStatus string
	Collections      []string
	StorageDriver    string
	Probes           []ProbeResult
}

// Diagnose runs every probe concurrently and summarizes the one backing OTP
// storage. It never fails; broken backends show up in the result.
func (s *Usecase) Diagnose(ctx context.Context) DiagnoseOutput {
	ctx, span := s.startSpan(ctx, "Diagnose")
	defer span.End()

	results := make([]ProbeResult, len(s.probes))
	var wg sync.WaitGroup
	for i, p := range s.probes {
		wg.Go(func() {
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()

			start := time.Now()
			r := p.Check(pctx)
			r.Name = p.Name()
			r.Latency = time.Since(start)
			if len(r.Collections) > maxCollections {
				r.Collections = r.Collections[:maxCollections]
			}
			results[i] = r
		})
	}
	wg.Wait()

	driver := s.cfg.GetString("modules.otp.storage")
	if driver == "" {
		driver = "postgres"
	}

	out := DiagnoseOutput{
		Backend:          "✅ Running",
		Database:         "❌ Not Available",
		DatabaseURL:      setOrNot(s.cfg.GetString(urlKey(driver))),
		DatabaseName:     setOrNot(s.cfg.GetString("mongo.database")),
		ConnectionStatus: "Not Connected",
		Collections:      []string{},
		StorageDriver:    driver,
		Probes:           results,
	}

	primary, ok := lo.Find(results, func(r ProbeResult) bool { return r.Name == driver })
	switch {
	case !ok:
		out.Database = "⚠️  Available but not initialized"
	case primary.Status == StatusUp:
		out.Database = "✅ Connected & Working"
		out.ConnectionStatus = "Connected"
		out.Collections = lo.Ternary(primary.Collections == nil, []string{}, primary.Collections)
	default:
		out.Database = "⚠️  Connected but Error: " + truncate(primary.Error, 50)
	}

	return out
}

func urlKey(driver string) string {
	switch driver {
	case "redis":
		return "redis.url"
	case "mongo":
		return "mongo.uri"
	default:
		return "database.url"
	}
}

func setOrNot(v string) string {
	if v == "" {
		return "❌ Not Set"
	}
	return "✅ Set"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
