package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/hirelens/internal/pkg/clock"
	"github.com/shandysiswandi/hirelens/internal/pkg/config"
	"github.com/shandysiswandi/hirelens/internal/pkg/goroutine"
	"github.com/shandysiswandi/hirelens/internal/pkg/idempotency"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/mail"
	"github.com/shandysiswandi/hirelens/internal/pkg/messaging"
	"github.com/shandysiswandi/hirelens/internal/pkg/otp"
	"github.com/shandysiswandi/hirelens/internal/pkg/router"
	"github.com/shandysiswandi/hirelens/internal/pkg/sms"
	"github.com/shandysiswandi/hirelens/internal/pkg/uid"
	"github.com/shandysiswandi/hirelens/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/mongo"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	configPath string
	config     config.Config
	ins        instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	token     uid.StringID
	code      otp.Generator

	// resources
	dbConn      *pgxpool.Pool
	cacheConn   redis.UniversalClient
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
	idemp       idempotency.Idempotency
	mail        mail.Mail
	sms         sms.SMS
	messaging   messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New initializes the application from the config file at configPath.
// Any failure is fatal.
func New(configPath string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:        ctx,
		cancel:     cancel,
		configPath: configPath,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initMigration()
	app.initCache()
	app.initMongo()
	app.initIdempotency()
	app.initMail()
	app.initSMS()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
