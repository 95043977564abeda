package sys_manager

import (
	"context"

	"github.com/xpanvictor/parley/pkg/Logger"
)

// Sweeper is implemented by the websocket connection registry.
type Sweeper interface {
	Sweep() int
	Count() int
}

// SessionSweepTask closes voice sessions that went quiet.
type SessionSweepTask struct {
	registry Sweeper
	schedule string
	logger   *Logger.Logger
}

func NewSessionSweepTask(registry Sweeper, schedule string, logger *Logger.Logger) *SessionSweepTask {
	if schedule == "" {
		schedule = "@every 5m"
	}
	return &SessionSweepTask{registry: registry, schedule: schedule, logger: logger}
}

func (t *SessionSweepTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n := t.registry.Sweep(); n > 0 {
		t.logger.Infof("swept %d idle sessions, %d remain", n, t.registry.Count())
	}
	return nil
}

func (t *SessionSweepTask) GetName() string { return "SessionSweepTask" }

func (t *SessionSweepTask) GetSchedule() string { return t.schedule }
