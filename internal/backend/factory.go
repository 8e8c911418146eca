package backend

import (
	"fmt"
	"log/slog"

	"splitledger/internal/amqp"
	"splitledger/internal/config"
	"splitledger/internal/store/memory"
	"splitledger/internal/store/sqlite"
)

// Create wires the backend named by the config. The AMQP client is
// optional: a broker that cannot be reached degrades to synchronous
// operation with a warning, and the catch-up worker drains the export
// queue instead.
func Create(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t, err := FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	events := dialAMQP(cfg, logger)

	switch t {
	case SQLiteBackend:
		repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			closeEvents(events)
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
		return &Result{
			Store:     repo,
			Directory: repo,
			Events:    events,
			Cleanup: func() error {
				closeEvents(events)
				return repo.Close()
			},
		}, nil

	case MemoryBackend:
		st := memory.New()
		logger.Info("Initialized in-memory backend")
		return &Result{
			Store:     st,
			Directory: st,
			Events:    events,
			Cleanup: func() error {
				closeEvents(events)
				return nil
			},
		}, nil

	default:
		closeEvents(events)
		return nil, &InvalidTypeError{Value: string(t)}
	}
}

func dialAMQP(cfg *config.Config, logger *slog.Logger) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		return nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

func closeEvents(events *amqp.Client) {
	if events != nil {
		events.Close()
	}
}
