package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const pingTimeout = 5 * time.Second

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func loadConfig(path string, watch bool) (config.Config, error) {
	opts := []config.Option{config.WithEnvFiles(".env")}
	if watch {
		opts = append(opts, config.WithWatch())
	}

	cfg, err := config.NewViper(path, opts...)
	if err != nil {
		return nil, err
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // TZ is best effort
		os.Setenv("TZ", tz)
	}

	return cfg, nil
}

func (a *App) initConfig() {
	cfg, err := loadConfig(a.configPath, true)
	if err != nil {
		fatal("failed to init config", "path", a.configPath, "error", err)
	}
	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogFormat:        a.config.GetString("instrument.log_format"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		fatal("failed to init instrumentation", "error", err)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.token = uid.NewToken()
	a.code = otp.NewCode(libOTP.DigitsSix)
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	v, err := validator.NewV10Validator()
	if err != nil {
		fatal("failed to init validation v10 validator", "error", err)
	}
	a.validator = v

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.snowflake_node"))
	if err != nil {
		fatal("failed to init uid number snowflake", "error", err)
	}
	a.uid = snow
}

func newPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.GetString("database.url"))
	if err != nil {
		return nil, err
	}

	if v := cfg.GetInt32("database.pool.max_conns"); v > 0 {
		pc.MaxConns = v
	}
	if v := cfg.GetInt32("database.pool.min_conns"); v > 0 {
		pc.MinConns = v
	}
	if v := cfg.GetSecond("database.pool.max_conn_lifetime_seconds"); v > 0 {
		pc.MaxConnLifetime = v
	}
	if v := cfg.GetSecond("database.pool.max_conn_idle_seconds"); v > 0 {
		pc.MaxConnIdleTime = v
	}
	if v := cfg.GetSecond("database.pool.health_check_period_seconds"); v > 0 {
		pc.HealthCheckPeriod = v
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func (a *App) initDatabase() {
	if !a.config.GetBool("database.enabled") {
		return
	}

	pool, err := newPool(a.ctx, a.config)
	if err != nil {
		fatal("failed to init database", "error", err)
	}
	a.dbConn = pool
}

func (a *App) initCache() {
	if !a.config.GetBool("redis.enabled") {
		return
	}

	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		fatal("failed to parse redis url", "error", err)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		fatal("failed to init redis", "error", err)
	}

	a.cacheConn = rdb
}

func (a *App) initMongo() {
	if !a.config.GetBool("mongo.enabled") {
		return
	}

	client, err := mongo.Connect(a.ctx, options.Client().
		ApplyURI(a.config.GetString("mongo.uri")).
		SetServerSelectionTimeout(pingTimeout))
	if err != nil {
		fatal("failed to connect mongo", "error", err)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		fatal("failed to ping mongo", "error", err)
	}

	name := a.config.GetString("mongo.database")
	if name == "" {
		name = "hirelens"
	}

	a.mongoClient = client
	a.mongoDB = client.Database(name)
}

// initIdempotency shares delivery state through redis when it is enabled and
// falls back to process memory otherwise.
func (a *App) initIdempotency() {
	if a.cacheConn != nil {
		a.idemp = idempotency.New(a.cacheConn)
		return
	}

	slog.Warn("redis disabled, idempotency is tracked in memory")
	a.idemp = idempotency.NewLocal()
}

func (a *App) initMail() {
	if !a.config.GetBool("mail.enabled") {
		a.mail = mail.NewLog()
		return
	}

	m, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
		FromName: a.config.GetString("mail.from_name"),
		TLS:      a.config.GetBool("mail.tls"),
	})
	if err != nil {
		fatal("failed to init mail", "error", err)
	}
	a.mail = m
}

func (a *App) initSMS() {
	if !a.config.GetBool("sms.enabled") {
		a.sms = sms.NewLog()
		return
	}

	tw, err := sms.NewTwilio(sms.TwilioConfig{
		AccountSID: a.config.GetString("sms.twilio.account_sid"),
		AuthToken:  a.config.GetString("sms.twilio.auth_token"),
		From:       a.config.GetString("sms.twilio.from"),
	})
	if err != nil {
		fatal("failed to init sms", "error", err)
	}
	a.sms = tw
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")

	var dialer *kafka.Dialer
	if timeout := a.config.GetSecond("messaging.kafka.dial_timeout_seconds"); timeout > 0 {
		dialer = &kafka.Dialer{Timeout: timeout, DualStack: true}
	}

	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer:  dialer,
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: a.natsOptions(),
		},
	})
	if err != nil {
		fatal("failed to init messaging", "error", err, "driver", driver)
	}

	a.messaging = client
}

func (a *App) natsOptions() []nats.Option {
	opts := []nats.Option{
		nats.Name(a.config.GetString("messaging.nats.name")),
		nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
	}
	if v := a.config.GetInt("messaging.nats.max_reconnects"); v != 0 {
		opts = append(opts, nats.MaxReconnects(v))
	}
	if v := a.config.GetSecond("messaging.nats.timeout_seconds"); v > 0 {
		opts = append(opts, nats.Timeout(v))
	}
	if v := a.config.GetSecond("messaging.nats.reconnect_wait_seconds"); v > 0 {
		opts = append(opts, nats.ReconnectWait(v))
	}
	return opts
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
		Banner:     a.config.GetString("app.banner"),
	})

	origins := a.config.GetArray("app.server.cors")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	addr := a.config.GetString("app.server.address")
	if addr == "" {
		addr = ":8000"
	}

	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.read_timeout_seconds"),
		ReadHeaderTimeout: max(a.config.GetSecond("app.server.read_header_timeout_seconds"), time.Second),
		WriteTimeout:      a.config.GetSecond("app.server.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []closer{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "SMS",
			fn: func(context.Context) error {
				return a.sms.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Mongo",
			fn: func(ctx context.Context) error {
				if a.mongoClient == nil {
					return nil
				}
				return a.mongoClient.Disconnect(ctx)
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn != nil {
					a.dbConn.Close()
				}
				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
