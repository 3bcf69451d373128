package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/hirelens/internal/otp/inbound"
	"github.com/shandysiswandi/hirelens/internal/otp/outbound/cache"
	"github.com/shandysiswandi/hirelens/internal/otp/outbound/db"
	"github.com/shandysiswandi/hirelens/internal/otp/outbound/docstore"
	"github.com/shandysiswandi/hirelens/internal/otp/outbound/mq"
	"github.com/shandysiswandi/hirelens/internal/otp/outbound/notifier"
	"github.com/shandysiswandi/hirelens/internal/otp/usecase"
	"github.com/shandysiswandi/hirelens/internal/pkg/clock"
	"github.com/shandysiswandi/hirelens/internal/pkg/config"
	"github.com/shandysiswandi/hirelens/internal/pkg/goroutine"
	"github.com/shandysiswandi/hirelens/internal/pkg/idempotency"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/mail"
	"github.com/shandysiswandi/hirelens/internal/pkg/messaging"
	otpcode "github.com/shandysiswandi/hirelens/internal/pkg/otp"
	"github.com/shandysiswandi/hirelens/internal/pkg/router"
	"github.com/shandysiswandi/hirelens/internal/pkg/sms"
	"github.com/shandysiswandi/hirelens/internal/pkg/uid"
	"github.com/shandysiswandi/hirelens/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageMongo    = "mongo"
)

// ErrStorageUnavailable is returned when the selected storage has no connection.
var ErrStorageUnavailable = errors.New("otp: selected storage is not connected")

type Dependency struct {
	Ctx context.Context

	// One of these backs the store, picked by modules.otp.storage.
	DBConn    *pgxpool.Pool
	CacheConn redis.UniversalClient
	MongoDB   *mongo.Database

	Messaging   messaging.Messaging        `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	SMS         sms.SMS                    `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Token       uid.StringID               `validate:"required"`
	Code        otpcode.Generator          `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	store, err := newStore(dep)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		Store:         store,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Notifier:      notifier.New(dep.Mail, dep.SMS, dep.Instrument),
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Code:          dep.Code,
		Token:         dep.Token,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}

func newStore(dep Dependency) (usecase.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(dep.Config.GetString("modules.otp.storage")))

	switch driver {
	case "", StoragePostgres:
		if dep.DBConn == nil {
			return nil, fmt.Errorf("%w: %s", ErrStorageUnavailable, StoragePostgres)
		}
		return db.NewDB(dep.DBConn, dep.UID, dep.Instrument), nil

	case StorageRedis:
		if dep.CacheConn == nil {
			return nil, fmt.Errorf("%w: %s", ErrStorageUnavailable, StorageRedis)
		}
		retention := dep.Config.GetMinute("modules.otp.redis_retention_minutes")
		return cache.NewCache(dep.CacheConn, dep.UID, dep.Instrument, retention), nil

	case StorageMongo:
		if dep.MongoDB == nil {
			return nil, fmt.Errorf("%w: %s", ErrStorageUnavailable, StorageMongo)
		}
		ds := docstore.NewDocStore(dep.MongoDB, dep.UID, dep.Instrument)
		if dep.Ctx != nil {
			if err := ds.EnsureIndexes(dep.Ctx); err != nil {
				return nil, err
			}
		}
		return ds, nil

	default:
		return nil, fmt.Errorf("otp: unknown storage %q", driver)
	}
}
