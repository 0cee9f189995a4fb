package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"campstation/internal/app/commands"
	"campstation/internal/app/dto"
	pricingapp "campstation/internal/app/handlers/pricing"
	"campstation/internal/app/middleware"
	appoutbox "campstation/internal/app/outbox"
	"campstation/internal/app/queries"
	domainpricing "campstation/internal/domain/pricing"
	"campstation/internal/infra/broker/kafka"
	"campstation/internal/infra/config"
	mongodb "campstation/internal/infra/db/mongo"
	"campstation/internal/infra/db/postgres"
	ginserver "campstation/internal/infra/http/gin"
	infraoutbox "campstation/internal/infra/outbox"
	"campstation/internal/infra/storage/memory"
	redisstore "campstation/internal/infra/storage/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type outboxStore interface {
	appoutbox.Outbox
	infraoutbox.Source
}

type application struct {
	handlers ginserver.Handlers
	worker   *infraoutbox.Worker
	outbox   outboxStore
	checks   map[string]pinger
	closers  []func(context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{checks: map[string]pinger{}}
	fail := func(err error) (*application, error) {
		app.close(context.Background())
		return nil, err
	}

	var mongoClient *mongodb.Client
	if cfg.MongoURI != "" {
		client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return fail(fmt.Errorf("connect mongo: %w", err))
		}
		mongoClient = client
		app.closers = append(app.closers, client.Close)
		app.checks["mongo"] = client
	}

	rules, err := app.ruleRepository(ctx, cfg, mongoClient, logger)
	if err != nil {
		return fail(err)
	}

	idempotency, err := app.idempotencyStore(ctx, cfg, mongoClient)
	if err != nil {
		return fail(err)
	}

	var box outboxStore = memory.NewOutbox()
	if mongoClient != nil {
		store, err := infraoutbox.NewStore(ctx, mongoClient.DB)
		if err != nil {
			return fail(fmt.Errorf("outbox store: %w", err))
		}
		box = store
	}

	var producer infraoutbox.Producer = infraoutbox.LogProducer{Logger: logger.With("component", "events")}
	if cfg.PublishesEvents() {
		kp, err := kafka.NewProducer(cfg.KafkaBrokers, "campstation-pricing")
		if err != nil {
			return fail(fmt.Errorf("kafka producer: %w", err))
		}
		app.closers = append(app.closers, func(context.Context) error { return kp.Close() })
		producer = kp
	}
	app.outbox = box
	app.worker = &infraoutbox.Worker{
		Store:       box,
		Producer:    producer,
		Logger:      logger.With("component", "outbox"),
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}

	engine := &domainpricing.Engine{
		Rules:        rules,
		FetchTimeout: cfg.RuleFetchTimeout,
		MaxNights:    cfg.MaxStayNights,
		Logger:       logger.With("component", "pricing"),
	}

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[pricingapp.CalculatePriceQuery, dto.PriceBreakdown](queryBus, pricingapp.CalculatePriceKey,
		&pricingapp.CalculatePriceHandler{Pricing: engine})

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[pricingapp.ConfirmReservationPriceCommand, *dto.PriceConfirmation](commandBus, pricingapp.ConfirmPriceKey,
		&pricingapp.ConfirmReservationPriceHandler{
			Pricing: engine,
			Outbox:  box,
			Encoder: appoutbox.JSONEventEncoder{},
		})

	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger, outcomeLevel),
		middleware.QueryValidation(),
	)
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.CommandLogging(logger, outcomeLevel),
		middleware.Validation(),
		middleware.Idempotency(idempotency, nil),
		middleware.OutboxFlush(box),
	)

	app.handlers = ginserver.Handlers{
		Pricing: ginserver.PricingHandler{
			Queries:  queryBusWithMiddleware,
			Commands: commandBusWithMiddleware,
			Logger:   logger,
		},
	}
	return app, nil
}

func (a *application) ruleRepository(ctx context.Context, cfg config.Config, mongoClient *mongodb.Client, logger *slog.Logger) (domainpricing.RuleRepository, error) {
	switch cfg.RuleStore {
	case config.RuleStoreMongo:
		repo, err := mongodb.NewRuleRepository(ctx, mongoClient.DB, cfg.Currency)
		if err != nil {
			return nil, fmt.Errorf("mongo rule repository: %w", err)
		}
		a.checks["rules"] = repo
		return repo, nil
	case config.RuleStorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		repo := postgres.NewRuleRepository(pool, cfg.Currency)
		a.checks["rules"] = repo
		return repo, nil
	default:
		repo := memory.NewRuleRepository()
		n, err := repo.LoadFixtureFile(cfg.RuleFixtures, cfg.Currency)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("rule fixtures file not found, starting with no rules", "path", cfg.RuleFixtures)
		case err != nil:
			return nil, fmt.Errorf("load rule fixtures %s: %w", cfg.RuleFixtures, err)
		default:
			logger.Info("rule fixtures imported", "path", cfg.RuleFixtures, "rules", n)
		}
		a.checks["rules"] = repo
		return repo, nil
	}
}

func (a *application) idempotencyStore(ctx context.Context, cfg config.Config, mongoClient *mongodb.Client) (middleware.IdempotencyStore, error) {
	switch {
	case cfg.RedisAddr != "":
		client, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		store := redisstore.NewIdempotencyStore(client, "", cfg.IdempotencyTTL)
		a.checks["redis"] = store
		return store, nil
	case mongoClient != nil:
		store, err := mongodb.NewIdempotencyStore(ctx, mongoClient.DB, cfg.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("mongo idempotency store: %w", err)
		}
		return store, nil
	default:
		return memory.NewIdempotencyStore(cfg.IdempotencyTTL), nil
	}
}

func (a *application) ready(ctx context.Context) error {
	var errs []error
	for name, check := range a.checks {
		if err := check.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// close releases connections in reverse order of acquisition.
func (a *application) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i](ctx)
	}
	a.closers = nil
}

// outcomeLevel keeps caller mistakes and unbookable dates out of the error log.
func outcomeLevel(err error) slog.Level {
	switch {
	case errors.Is(err, domainpricing.ErrInvalidRule),
		errors.Is(err, pricingapp.ErrBreakdownCorrupt):
		return slog.LevelError
	case errors.Is(err, domainpricing.ErrRuleStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return slog.LevelWarn
	case errors.Is(err, domainpricing.ErrInvalidDateRange),
		errors.Is(err, domainpricing.ErrInvalidGuestCount),
		errors.Is(err, domainpricing.ErrNoApplicableRule),
		errors.Is(err, domainpricing.ErrGuestCountExceeded),
		errors.Is(err, pricingapp.ErrPriceMismatch),
		errors.Is(err, pricingapp.ErrSiteRequired),
		errors.Is(err, pricingapp.ErrReservationRequired),
		errors.Is(err, middleware.ErrIdempotencyKeyReused):
		return slog.LevelInfo
	}
	return slog.LevelError
}
