package app

import (
	"github.com/shandysiswandi/hirelens/internal/health"
	"github.com/shandysiswandi/hirelens/internal/otp"
)

func (a *App) initModules() {
	if err := health.New(health.Dependency{
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		MongoDB:    a.mongoDB,
		Router:     a.router,
		Config:     a.config,
		Clock:      a.clock,
		Instrument: a.ins,
		Validator:  a.validator,
	}); err != nil {
		fatal("failed to init module health", "error", err)
	}

	if err := otp.New(otp.Dependency{
		Ctx:         a.ctx,
		DBConn:      a.dbConn,
		CacheConn:   a.cacheConn,
		MongoDB:     a.mongoDB,
		Messaging:   a.messaging,
		Idempotency: a.idemp,
		Mail:        a.mail,
		SMS:         a.sms,
		Goroutine:   a.goroutine,
		Router:      a.router,
		Config:      a.config,
		Instrument:  a.ins,
		UID:         a.uid,
		UUID:        a.uuid,
		Token:       a.token,
		Code:        a.code,
		Clock:       a.clock,
		Validator:   a.validator,
	}); err != nil {
		fatal("failed to init module otp", "error", err)
	}
}
