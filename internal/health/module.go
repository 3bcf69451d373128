package health

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/hirelens/internal/health/inbound"
	"github.com/shandysiswandi/hirelens/internal/health/outbound/probe"
	"github.com/shandysiswandi/hirelens/internal/health/usecase"
	"github.com/shandysiswandi/hirelens/internal/pkg/clock"
	"github.com/shandysiswandi/hirelens/internal/pkg/config"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/router"
	"github.com/shandysiswandi/hirelens/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependency struct {
	// Probed when set.
	DBConn    *pgxpool.Pool
	CacheConn redis.UniversalClient
	MongoDB   *mongo.Database

	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	var probes []usecase.Probe
	if dep.DBConn != nil {
		probes = append(probes, probe.NewPostgres(dep.DBConn))
	}
	if dep.CacheConn != nil {
		probes = append(probes, probe.NewRedis(dep.CacheConn, dep.Config.GetString("modules.health.redis_match")))
	}
	if dep.MongoDB != nil {
		probes = append(probes, probe.NewMongo(dep.MongoDB))
	}

	uc := usecase.New(usecase.Dependency{
		Probes:     probes,
		Config:     dep.Config,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
