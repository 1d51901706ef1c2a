package notifier

import (
	"context"
	"log/slog"
	"time"
)

const logbookName = "Smart Mini Split"

type LogbookSender interface {
	LogEntry(ctx context.Context, name, message, entityID string) error
}

// LogbookNotifier writes controller decisions to the Home Assistant logbook.
// Logbook failures never abort a decision cycle: they are logged at debug and dropped.
type LogbookNotifier struct {
	LogbookSender
	EntityID string
	Logger   *slog.Logger
}

var _ Notifier = &LogbookNotifier{}

func (l *LogbookNotifier) Notify(message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := l.LogEntry(ctx, logbookName, message, l.EntityID); err != nil {
		l.Logger.Debug("failed to write logbook entry", slog.Any("err", err))
	}
}
