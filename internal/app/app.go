package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/internal/domains/sys_manager"
	"github.com/xpanvictor/parley/internal/domains/sys_manager/pipeline"
	"github.com/xpanvictor/parley/internal/handlers"
	"github.com/xpanvictor/parley/internal/handlers/websocket"
	"github.com/xpanvictor/parley/internal/repository/complaint"
	"github.com/xpanvictor/parley/internal/repository/knowledge"
	"github.com/xpanvictor/parley/internal/server"
	"github.com/xpanvictor/parley/pkg/Logger"
	xio "github.com/xpanvictor/parley/pkg/io"
	"github.com/xpanvictor/parley/pkg/io/mqtt"
	"github.com/xpanvictor/parley/pkg/io/tts"
	"gorm.io/gorm"
)

// App represents the application with all its dependencies
type App struct {
	Config *config.Settings
	Store  *config.Store
	Logger *Logger.Logger
	DB     *gorm.DB
	RC     *redis.Client

	Pipeline      *pipeline.Pipeline
	TTS           *tts.Router
	Knowledge     *knowledge.Service // nil when retrieval is disabled
	Complaints    complaint.Repository
	Publisher     xio.Publisher
	WebSocket     *websocket.WebSocketHandler
	SystemManager *sys_manager.SystemManager
	ServerDeps    server.Dependencies

	mqtt *mqtt.Publisher
}

// NewApp creates a new application instance with all dependencies properly wired.
// rc may be nil.
func NewApp(ctx context.Context, cfg *config.Settings, logger *Logger.Logger, db *gorm.DB, rc *redis.Client) (*App, error) {
	app := &App{
		Config: cfg,
		Store:  config.NewStore(cfg),
		Logger: logger,
		DB:     db,
		RC:     rc,
	}

	if err := app.setupDependencies(ctx); err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) setupDependencies(ctx context.Context) error {
	factory := NewProviderFactory(a.Config, a.Logger)

	// 1. external services
	responder, err := factory.CreateResponder(ctx)
	if err != nil {
		return err
	}
	transcriber, err := factory.CreateTranscriber()
	if err != nil {
		return err
	}
	a.TTS, err = factory.CreateTTSRouter()
	if err != nil {
		return err
	}
	embedder, err := factory.CreateEmbedder(ctx)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	// 2. repositories
	a.Complaints = complaint.NewGormComplaintRepo(a.DB)
	deps := pipeline.Deps{
		Transcriber: transcriber,
		Responder:   responder,
		Synthesizer: a.TTS,
	}
	if embedder != nil {
		a.Knowledge = knowledge.NewService(
			knowledge.NewGormKnowledgeRepo(a.DB),
			embedder,
			knowledge.NewRedisCache(a.RC),
			a.Config.Retrieval.CacheTTL,
			a.Logger,
		)
		deps.Retriever = a.Knowledge
	}

	// 3. pipeline shared by every session
	pcfg := pipeline.DefaultConfig()
	if a.Config.Retrieval.TopK > 0 {
		pcfg.TopK = a.Config.Retrieval.TopK
	}
	if a.Config.Retrieval.Separator != "" {
		pcfg.Separator = a.Config.Retrieval.Separator
	}
	if v := a.Config.Voice; v.NoiseMinChars > 0 {
		pcfg.Noise = pipeline.NoiseFilter{MinChars: v.NoiseMinChars, Phrases: v.NoisePhrases}
	}
	a.Pipeline = pipeline.New(deps, pcfg, a.Logger)

	// 4. lifecycle events
	a.Publisher = xio.Nop()
	if m := a.Config.MQTT; m.Enabled {
		a.mqtt = mqtt.New(mqtt.Options{
			Broker:      m.Broker,
			ClientID:    m.ClientID,
			Username:    m.Username,
			Password:    m.Password,
			TopicPrefix: m.TopicPrefix,
			QoS:         m.QoS,
		}, a.Logger)
		a.Publisher = a.mqtt
	}

	// 5. transport
	a.WebSocket = websocket.NewWebSocketHandler(a.Logger, websocket.HandlerDeps{
		Store:     a.Store,
		Runner:    a.Pipeline,
		Catalog:   a.TTS,
		Publisher: a.Publisher,
	})

	// 6. housekeeping
	a.SystemManager = sys_manager.NewSystemManager(a.Logger.Named("system"))
	sweep := sys_manager.NewSessionSweepTask(a.WebSocket.Registry(), a.Config.Server.SweepSchedule, a.Logger)
	if err := a.SystemManager.RegisterTask(sweep); err != nil {
		return err
	}

	var ks handlers.KnowledgeService
	if a.Knowledge != nil {
		ks = a.Knowledge
	}
	a.ServerDeps = server.Dependencies{
		Logger:    a.Logger,
		WebSocket: a.WebSocket,
		Health:    handlers.NewHealthHandler(a.WebSocket.Registry(), a.RC, a.Store, a.Logger),
		Complaint: handlers.NewComplaintHandler(a.Complaints, a.Logger),
		Knowledge: handlers.NewKnowledgeHandler(ks, a.Config.Retrieval.TopK, a.Logger),
	}
	return nil
}

// Engine builds the HTTP handler for the whole application.
func (a *App) Engine() *gin.Engine {
	r := server.NewEngine(a.Config, a.Logger)
	server.InitializeRoutes(a.Config, r, a.ServerDeps)
	return r
}

// Start launches background work: the MQTT publisher and scheduled tasks.
func (a *App) Start() error {
	if a.mqtt != nil {
		a.mqtt.Start()
	}
	return a.SystemManager.Start()
}

// Shutdown closes sessions first so their final lifecycle events still reach the publisher.
func (a *App) Shutdown() {
	if err := a.SystemManager.Stop(); err != nil {
		a.Logger.Errorf("system manager stop: %v", err)
	}
	if err := a.WebSocket.Close(); err != nil {
		a.Logger.Errorf("websocket handler close: %v", err)
	}
	a.Publisher.Close()
	if a.RC != nil {
		_ = a.RC.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
