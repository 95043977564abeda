package sys_manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// SystemTask represents a background task that can be executed
type SystemTask interface {
	Execute(ctx context.Context) error
	GetName() string
	// GetSchedule is a cron spec, e.g. "@every 5m" or "*/10 * * * *"
	GetSchedule() string
}

// SystemManager runs registered tasks on their cron schedules.
// A run that is still going when its next tick arrives is skipped.
type SystemManager struct {
	cron    *cron.Cron
	logger  *Logger.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu      sync.RWMutex
	tasks   map[string]cron.EntryID
	running bool
}

func NewSystemManager(logger *Logger.Logger) *SystemManager {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger.Named("cron")}

	return &SystemManager{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		timeout: 30 * time.Second,
		tasks:   make(map[string]cron.EntryID),
	}
}

// RegisterTask schedules task. Registering a name twice replaces the earlier task.
func (sm *SystemManager) RegisterTask(task SystemTask) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	name := task.GetName()
	if id, exists := sm.tasks[name]; exists {
		sm.cron.Remove(id)
		delete(sm.tasks, name)
	}

	id, err := sm.cron.AddFunc(task.GetSchedule(), func() { sm.executeTask(task) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, task.GetSchedule(), err)
	}
	sm.tasks[name] = id
	sm.logger.Infof("Registered system task: %s (schedule: %s)", name, task.GetSchedule())
	return nil
}

func (sm *SystemManager) Start() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.running {
		return fmt.Errorf("system manager is already running")
	}
	sm.running = true
	sm.cron.Start()
	sm.logger.Infof("Starting system manager with %d tasks", len(sm.tasks))
	return nil
}

// Stop cancels running tasks and waits for them to return.
func (sm *SystemManager) Stop() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.running {
		return nil
	}
	sm.cancel()
	<-sm.cron.Stop().Done()
	sm.running = false
	sm.logger.Info("System manager stopped")
	return nil
}

func (sm *SystemManager) IsRunning() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.running
}

func (sm *SystemManager) GetTaskCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.tasks)
}

func (sm *SystemManager) executeTask(task SystemTask) {
	name := task.GetName()
	start := time.Now()

	taskCtx, cancel := context.WithTimeout(sm.ctx, sm.timeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		sm.logger.Errorf("System task %s failed after %s: %v", name, time.Since(start), err)
		return
	}
	sm.logger.Debugf("System task %s completed in %s", name, time.Since(start))
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	l *Logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
