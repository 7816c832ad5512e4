package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bearjaws/modelfusion/pkg/slogx"
)

// LoggingObserver logs every lifecycle event. A nil logger uses slog.Default().
func LoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingObserver{logger: logger.With(slogx.LoggerName("events"))}
}

type loggingObserver struct {
	logger *slog.Logger
}

func (l *loggingObserver) OnStarted(ctx context.Context, e Started) error {
	l.logger.InfoContext(ctx, "model call started",
		slog.String("function", string(e.FunctionType)),
		slog.Any("call", e.Metadata),
	)
	return nil
}

func (l *loggingObserver) OnFinished(ctx context.Context, e Finished) error {
	attrs := []any{
		slog.String("function", string(e.FunctionType)),
		slog.String("status", string(e.Status())),
		slog.Any("call", e.Metadata),
	}

	switch r := e.Result.(type) {
	case Success:
		l.logger.InfoContext(ctx, "model call finished", append(attrs, slog.String("output", fmt.Sprint(r.Output)))...)
	case Failure:
		l.logger.ErrorContext(ctx, "model call failed", append(attrs, slogx.Error(r.Err))...)
	case Aborted:
		l.logger.WarnContext(ctx, "model call aborted", attrs...)
	default:
		panic(fmt.Sprintf("unknown outcome type: %T", e.Result))
	}
	return nil
}
