package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"courtbook/internal/access"
	"courtbook/internal/booking"
	"courtbook/internal/config"
	"courtbook/internal/database"
	"courtbook/internal/events"
	"courtbook/internal/models"
	"courtbook/internal/repository"
	"courtbook/internal/slots"
)

// App holds the wired components shared by every command.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Policy booking.Policy

	DB     *database.DB
	Redis  *redis.Client
	Store  *repository.CachedStore
	Bus    *events.EventBus
	Engine *booking.Engine
	Access *access.Service
	Slots  *slots.Generator
}

// NewApp opens storage, seeds courts and staff from cfg and builds the engine.
func NewApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, now time.Time) (*App, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("booking policy: %w", err)
	}

	dbLogger := logger.With().Str("component", "database").Logger()
	db, err := database.NewDB(cfg.Database.Path, &dbLogger)
	if err != nil {
		return nil, err
	}

	if err := db.SeedCourts(ctx, courtsFromConfig(cfg), now); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.SyncStaff(ctx, staffFromConfig(cfg), now); err != nil {
		_ = db.Close()
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	}
	cacheLogger := logger.With().Str("component", "cache").Logger()
	store := repository.NewCachedStore(db, rdb, cfg.CacheTTL(), &cacheLogger)
	if err := store.Invalidate(ctx, courtIDs(cfg)...); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate court cache")
	}

	bus := events.NewEventBus()
	subscribeLogging(bus, logger)

	engine := booking.NewEngine(store, policy, bus, &logger)
	return &App{
		Config: cfg,
		Logger: logger,
		Policy: policy,
		DB:     db,
		Redis:  rdb,
		Store:  store,
		Bus:    bus,
		Engine: engine,
		Access: access.NewService(db, logger),
		Slots:  slots.NewGenerator(engine.Detector(), policy),
	}, nil
}

// Close releases storage and cache connections.
func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	return a.DB.Close()
}

func subscribeLogging(bus *events.EventBus, logger zerolog.Logger) {
	l := logger.With().Str("component", "events").Logger()
	bus.OnError(func(e events.Event, err error) {
		l.Error().Err(err).Str("type", e.Type).Msg("event handler failed")
	})
	for _, t := range []string{
		events.TypeReservationCreated,
		events.TypeReservationStatusChanged,
		events.TypeReservationDeleted,
		events.TypeReservationsCompleted,
	} {
		bus.Subscribe(t, func(e events.Event) error {
			l.Debug().Int64("id", e.ID).Str("type", e.Type).RawJSON("payload", e.Payload).Msg("event")
			return nil
		})
	}
}

func courtsFromConfig(cfg *config.Config) []models.Court {
	courts := make([]models.Court, 0, len(cfg.Courts))
	for _, c := range cfg.Courts {
		name := c.Name
		if name == "" {
			name = c.ID
		}
		courts = append(courts, models.Court{ID: c.ID, Name: name})
	}
	return courts
}

func courtIDs(cfg *config.Config) []string {
	ids := make([]string, 0, len(cfg.Courts))
	for _, c := range cfg.Courts {
		ids = append(ids, c.ID)
	}
	return ids
}

func staffFromConfig(cfg *config.Config) []models.Staff {
	staff := make([]models.Staff, 0, len(cfg.Staff))
	for _, s := range cfg.Staff {
		staff = append(staff, models.Staff{ID: s.ID, Name: s.Name, Active: true})
	}
	return staff
}
