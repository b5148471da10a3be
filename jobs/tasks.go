// Package jobs wires background task processing for the console.
package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-apparel/meridian-console/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
)

// NewClient builds an asynq client over the shared redis address.
func NewClient(redisAddr string) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
}

// NewServer builds the asynq server processing the console's queues.
func NewServer(redisAddr string, logger *slog.Logger) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues:      map[string]int{QueueDefault: 1},
			Logger:      &slogAdapter{logger: logger},
		},
	)
}

// NewMux registers every task handler.
func NewMux(auditService *audit.Service) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(audit.TaskTypeRecord, audit.HandleRecordTask(auditService))
	return mux
}

// slogAdapter bridges asynq's logger interface onto slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Debug(args ...interface{}) { a.log(slog.LevelDebug, args...) }
func (a *slogAdapter) Info(args ...interface{})  { a.log(slog.LevelInfo, args...) }
func (a *slogAdapter) Warn(args ...interface{})  { a.log(slog.LevelWarn, args...) }
func (a *slogAdapter) Error(args ...interface{}) { a.log(slog.LevelError, args...) }
func (a *slogAdapter) Fatal(args ...interface{}) { a.log(slog.LevelError, args...) }

func (a *slogAdapter) log(level slog.Level, args ...interface{}) {
	if a.logger == nil {
		return
	}
	msg := ""
	if len(args) > 0 {
		if s, ok := args[0].(string); ok {
			msg = s
		}
	}
	a.logger.Log(context.Background(), level, msg, slog.Any("args", args))
}
