package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskTypeRecord is the asynq task type carrying one audit event.
const TaskTypeRecord = "audit:record"

// Recorder enqueues audit events onto the background queue so the request
// path never blocks on the trail. Enqueue failures are logged and dropped;
// the trail is best-effort, the operation itself is not rolled back.
type Recorder struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewRecorder builds a Recorder over an asynq client.
func NewRecorder(client *asynq.Client, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{client: client, logger: logger}
}

// GrantsReplaced records a bulk grant save.
func (r *Recorder) GrantsReplaced(ctx context.Context, actorID, targetUserID int64, count int) {
	r.enqueue(ctx, Event{
		ActorID:  actorID,
		Action:   ActionGrantsReplaced,
		Entity:   "user",
		EntityID: strconv.FormatInt(targetUserID, 10),
		Detail:   strconv.Itoa(count) + " grants",
	})
}

// NavigationDenied records a blocked navigation attempt.
func (r *Recorder) NavigationDenied(ctx context.Context, actorID int64, path string) {
	r.enqueue(ctx, Event{
		ActorID:  actorID,
		Action:   ActionNavigationDenied,
		Entity:   "route",
		EntityID: path,
	})
}

// SignedIn records a successful login.
func (r *Recorder) SignedIn(ctx context.Context, actorID int64) {
	r.enqueue(ctx, Event{ActorID: actorID, Action: ActionLogin, Entity: "user", EntityID: strconv.FormatInt(actorID, 10)})
}

// SignedOut records a logout.
func (r *Recorder) SignedOut(ctx context.Context, actorID int64) {
	r.enqueue(ctx, Event{ActorID: actorID, Action: ActionLogout, Entity: "user", EntityID: strconv.FormatInt(actorID, 10)})
}

func (r *Recorder) enqueue(ctx context.Context, event Event) {
	if r == nil || r.client == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("audit: marshal event", slog.Any("error", err))
		return
	}
	task := asynq.NewTask(TaskTypeRecord, payload)
	if _, err := r.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		r.logger.Warn("audit: enqueue event", slog.Any("error", err))
	}
}

// HandleRecordTask processes TaskTypeRecord tasks on the worker, writing
// the event to postgres.
func HandleRecordTask(service *Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var event Event
		if err := json.Unmarshal(t.Payload(), &event); err != nil {
			return asynq.SkipRetry
		}
		return service.Record(ctx, event)
	}
}
