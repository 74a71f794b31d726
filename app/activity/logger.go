package activity

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Romarate18/StockaDoodle-IMS/models"
	"github.com/Romarate18/StockaDoodle-IMS/telemetry"
	"github.com/Romarate18/StockaDoodle-IMS/userctx"
)

// Target entities recorded in the activity log.
const (
	EntityCategory        = "category"
	EntityProduct         = "product"
	EntityRetailerMetrics = "retailer_metrics"
)

// Entry describes one successful mutation.
type Entry struct {
	Method      string
	Entity      string
	ActorID     *uint
	Description string
}

type Store interface {
	CreateLog(ctx context.Context, entry *models.ActivityLog) error
}

// Logger appends activity entries. A failed write is logged and swallowed:
// the mutation it describes has already been committed.
type Logger struct {
	store Store
	log   logrus.FieldLogger
}

func NewLogger(store Store, log logrus.FieldLogger) *Logger {
	return &Logger{store: store, log: log}
}

// Record writes e. When e has no actor the one carried by ctx is used.
func (l *Logger) Record(ctx context.Context, e Entry) {
	if e.ActorID == nil {
		e.ActorID = userctx.ActorID(ctx)
	}

	entry := &models.ActivityLog{
		Method:       e.Method,
		TargetEntity: e.Entity,
		ActorID:      e.ActorID,
		Description:  e.Description,
	}
	err := l.store.CreateLog(ctx, entry)
	telemetry.RecordActivityWrite(e.Entity, err)

	fields := logrus.Fields{
		"method": e.Method,
		"entity": e.Entity,
	}
	if e.ActorID != nil {
		fields["user_id"] = *e.ActorID
	}

	if err != nil {
		l.log.WithFields(fields).WithError(err).Error("failed to write activity log")
		return
	}
	l.log.WithFields(fields).Info(e.Description)
}
