package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/ar3/our-gruuv-sub016/internal/server"
	"github.com/ar3/our-gruuv-sub016/modules"
	economydispatcher "github.com/ar3/our-gruuv-sub016/modules/economy/infrastructure/outbox"
	observationsdispatcher "github.com/ar3/our-gruuv-sub016/modules/observations/infrastructure/outbox"
	"github.com/ar3/our-gruuv-sub016/pkg/application"
	"github.com/ar3/our-gruuv-sub016/pkg/configuration"
	"github.com/ar3/our-gruuv-sub016/pkg/eventbus"
	"github.com/ar3/our-gruuv-sub016/pkg/outbox"
	eventbusdispatcher "github.com/ar3/our-gruuv-sub016/pkg/outbox/dispatchers/eventbus"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if err := app.Migrations().Run(ctx); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	startOutboxBackground(conf, pool, logger, app.EventPublisher())

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	log.Printf("Listening on: %s\n", conf.Origin)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func startOutboxBackground(
	conf *configuration.Configuration,
	pool *pgxpool.Pool,
	logger *logrus.Logger,
	bus eventbus.EventBus,
) {
	outboxLog := logger.WithField("component", "outbox")

	relayTables, relayTablesErr := outbox.ParseIdentifierList(conf.Outbox.RelayTables)
	if relayTablesErr != nil {
		outboxLog.WithError(relayTablesErr).Warn("outbox: invalid OUTBOX_RELAY_TABLES; relay disabled")
		relayTables = nil
	}

	var cleanerTables []pgx.Identifier
	if conf.Outbox.CleanerTables == "" {
		cleanerTables = relayTables
	} else {
		var cleanerTablesErr error
		cleanerTables, cleanerTablesErr = outbox.ParseIdentifierList(conf.Outbox.CleanerTables)
		if cleanerTablesErr != nil {
			outboxLog.WithError(cleanerTablesErr).Warn("outbox: invalid OUTBOX_CLEANER_TABLES; cleaner disabled")
			cleanerTables = nil
		}
	}

	if conf.Outbox.RelayEnabled {
		if len(relayTables) == 0 {
			if relayTablesErr == nil {
				outboxLog.Info("outbox: relay enabled but OUTBOX_RELAY_TABLES is empty")
			}
		} else {
			eb, ok := bus.(eventbus.EventBusWithError)
			if !ok {
				outboxLog.Warn("outbox: eventbus does not support PublishE; relay not started")
			} else {
				fallback := eventbusdispatcher.New(eb)
				for _, table := range relayTables {
					var relayDispatcher outbox.Dispatcher = fallback
					switch outbox.TableLabel(table) {
					case "public.observations_outbox":
						relayDispatcher = observationsdispatcher.NewDispatcher(eb)
					case "public.economy_outbox":
						relayDispatcher = economydispatcher.NewDispatcher(eb)
					}
					relay, err := outbox.NewRelay(pool, table, relayDispatcher, outbox.RelayOptions{
						PollInterval:    conf.Outbox.RelayPollInterval,
						BatchSize:       conf.Outbox.RelayBatchSize,
						LockTTL:         conf.Outbox.RelayLockTTL,
						MaxAttempts:     conf.Outbox.RelayMaxAttempts,
						SingleActive:    conf.Outbox.RelaySingleActive,
						LastErrorMaxLen: conf.Outbox.LastErrorMaxBytes,
						DispatchTimeout: conf.Outbox.RelayDispatchTimeout,
						Logger:          outboxLog.WithField("table", outbox.TableLabel(table)),
					})
					if err != nil {
						outboxLog.WithError(err).Warn("outbox: failed to create relay")
						continue
					}
					go func(r *outbox.Relay) {
						if err := r.Run(context.Background()); err != nil {
							outboxLog.WithError(err).Error("outbox: relay stopped")
						}
					}(relay)
				}
			}
		}
	}

	if conf.Outbox.CleanerEnabled && len(cleanerTables) > 0 {
		for _, table := range cleanerTables {
			cleaner, err := outbox.NewCleaner(pool, table, outbox.CleanerOptions{
				Enabled:               true,
				Interval:              conf.Outbox.CleanerInterval,
				Retention:             conf.Outbox.CleanerRetention,
				DeadRetention:         conf.Outbox.CleanerDeadRetention,
				DeadAttemptsThreshold: conf.Outbox.RelayMaxAttempts,
				Logger:                outboxLog.WithField("table", outbox.TableLabel(table)),
			})
			if err != nil {
				outboxLog.WithError(err).Warn("outbox: failed to create cleaner")
				continue
			}
			go func(c *outbox.Cleaner) {
				if err := c.Run(context.Background()); err != nil {
					outboxLog.WithError(err).Error("outbox: cleaner stopped")
				}
			}(cleaner)
		}
	} else if conf.Outbox.CleanerEnabled && len(cleanerTables) == 0 {
		outboxLog.Info("outbox: cleaner enabled but no tables configured")
	}
}
