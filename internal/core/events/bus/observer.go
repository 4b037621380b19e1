package bus

import (
	"time"

	"github.com/zeusync/scripthost/internal/core/observability/log"
)

// LogObserver logs every delivery at debug level and handler failures as warnings.
type LogObserver struct {
	logger log.Log
}

func NewLogObserver(logger log.Log) *LogObserver {
	return &LogObserver{logger: logger.Named("bus")}
}

func (o *LogObserver) OnPublish(string, Event) {}

func (o *LogObserver) OnDelivered(eventType string, handlers int, err error, duration time.Duration) {
	fields := []log.Field{
		log.String("event", eventType),
		log.Int("handlers", handlers),
		log.Duration("duration", duration),
	}
	if err != nil {
		o.logger.Warn("event delivery failed", append(fields, log.Error(err))...)
		return
	}
	o.logger.Debug("event delivered", fields...)
}
