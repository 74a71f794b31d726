package database

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Romarate18/StockaDoodle-IMS/telemetry"
)

// queryLogger sends gorm's statement log to logrus and times every statement.
type queryLogger struct {
	logger.Interface
}

func newQueryLogger(log logrus.FieldLogger) logger.Interface {
	return &queryLogger{
		Interface: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// LogMode keeps the wrapper when gorm derives a logger at another level.
func (l *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &queryLogger{Interface: l.Interface.LogMode(level)}
}

// Trace implements the logger.Interface
func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	l.Interface.Trace(ctx, begin, fc, err)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	telemetry.ObserveQuery(time.Since(begin), err)
}
