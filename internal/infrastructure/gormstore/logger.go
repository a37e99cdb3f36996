package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// gormLogger routes gorm diagnostics through the service logger.
type gormLogger struct {
	log       observability.Logger
	level     gormlogger.LogLevel
	slowQuery time.Duration
}

func newGormLogger(log observability.Logger, slow time.Duration) gormlogger.Interface {
	if log == nil {
		log = observability.NopLogger()
	}
	if slow <= 0 {
		slow = defaultSlowQuery
	}
	return &gormLogger{
		log:       log.With(observability.F("component", "gorm")),
		level:     gormlogger.Warn,
		slowQuery: slow,
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		logctx.FromOr(ctx, l.log).Info("gorm_info", observability.F("detail", fmt.Sprintf(msg, args...)))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		logctx.FromOr(ctx, l.log).Warn("gorm_warn", observability.F("detail", fmt.Sprintf(msg, args...)))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		logctx.FromOr(ctx, l.log).Error("gorm_error", observability.F("detail", fmt.Sprintf(msg, args...)))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		logctx.FromOr(ctx, l.log).Error("gorm_query_failed",
			observability.F("sql", sql),
			observability.F("rows", rows),
			observability.F("latency_ms", elapsed.Milliseconds()),
			observability.F("error", err.Error()),
		)
	case elapsed > l.slowQuery && l.level >= gormlogger.Warn:
		sql, rows := fc()
		logctx.FromOr(ctx, l.log).Warn("gorm_slow_query",
			observability.F("sql", sql),
			observability.F("rows", rows),
			observability.F("latency_ms", elapsed.Milliseconds()),
		)
	}
}
