// Package di wires the translation pipeline from runtime configuration.
package di

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-autotranslate/internal/commands"
	translatecmd "github.com/goliatone/go-autotranslate/internal/commands/translate"
	"github.com/goliatone/go-autotranslate/internal/documents"
	"github.com/goliatone/go-autotranslate/internal/gateway"
	"github.com/goliatone/go-autotranslate/internal/jobs"
	"github.com/goliatone/go-autotranslate/internal/logging"
	"github.com/goliatone/go-autotranslate/internal/logging/console"
	"github.com/goliatone/go-autotranslate/internal/logging/gologger"
	"github.com/goliatone/go-autotranslate/internal/reconcile"
	"github.com/goliatone/go-autotranslate/internal/runtimeconfig"
	"github.com/goliatone/go-autotranslate/internal/scheduler"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	clock          func() time.Time

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	store        interfaces.DocumentStore
	gateway      interfaces.TranslationGateway
	gatewayOpts  []gateway.Option
	scheduler    interfaces.Scheduler
	hooks        *documents.Hooks
	audit        jobs.AuditRecorder
	reconciler   *reconcile.Reconciler
	translate    *translatecmd.TranslateDocumentHandler
	worker       *jobs.Worker
	handlerOpts  []commands.HandlerOption[translatecmd.TranslateDocumentCommand]
	defaultTrans interfaces.TranslationSettings
}

// Option mutates the container before dependencies are built.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected from Logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB stores documents through db instead of opening Storage.DSN.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache used by the bun store.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithStore overrides the document store.
func WithStore(store interfaces.DocumentStore) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithGateway overrides the translation gateway.
func WithGateway(gw interfaces.TranslationGateway) Option {
	return func(c *Container) {
		c.gateway = gw
	}
}

// WithGatewayOptions forwards options to gateway.New.
func WithGatewayOptions(opts ...gateway.Option) Option {
	return func(c *Container) {
		c.gatewayOpts = append(c.gatewayOpts, opts...)
	}
}

// WithScheduler overrides the job queue.
func WithScheduler(s interfaces.Scheduler) Option {
	return func(c *Container) {
		c.scheduler = s
	}
}

// WithAuditRecorder overrides where worker outcomes are recorded.
func WithAuditRecorder(recorder jobs.AuditRecorder) Option {
	return func(c *Container) {
		c.audit = recorder
	}
}

// WithClock overrides the time source used by the store, queue and worker.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithCommandOptions forwards handler options to the translate command.
func WithCommandOptions(opts ...commands.HandlerOption[translatecmd.TranslateDocumentCommand]) Option {
	return func(c *Container) {
		c.handlerOpts = append(c.handlerOpts, opts...)
	}
}

// NewContainer validates cfg and builds every dependency not supplied by opts.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		clock:  time.Now,
		defaultTrans: interfaces.TranslationSettings{
			Formality:          strings.ToLower(strings.TrimSpace(cfg.Translation.Formality)),
			PreserveFormatting: cfg.Translation.PreserveFormatting,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	c.configureScheduler()
	c.configureHooks()
	c.configureCacheDefaults()
	if err := c.configureStore(); err != nil {
		return nil, err
	}
	if err := c.configureGateway(); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := c.configurePipeline(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure go-logger: %w", err)
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(c.Config.Logging.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureScheduler() {
	if c.scheduler != nil {
		return
	}
	if !c.Config.Features.AutoTranslate {
		c.scheduler = scheduler.NewDiscard()
		logging.JobsLogger(c.loggerProvider).Debug("scheduler.configured", "provider", "discard")
		return
	}
	c.scheduler = scheduler.NewInMemory(
		scheduler.WithClock(c.clock),
		scheduler.WithDefaultMaxAttempts(c.Config.Jobs.MaxAttempts),
		scheduler.WithRetryDelay(c.Config.Jobs.RetryDelay),
	)
	logging.JobsLogger(c.loggerProvider).Debug("scheduler.configured", "provider", "in-memory")
}

func (c *Container) configureHooks() {
	c.hooks = documents.NewHooks()
	for _, collection := range c.Config.Collections {
		if c.Config.Features.Slugs && strings.TrimSpace(collection.SlugSource) != "" {
			c.hooks.OnBeforeChange(collection.Name, documents.SlugHook(collection.SlugSource, collection.SlugField))
		}
		if c.Config.Features.AutoTranslate && collection.AutoTranslate {
			c.hooks.OnAfterChange(collection.Name, documents.AutoTranslateHook(c.scheduler, documents.AutoTranslateOptions{
				SourceLocale: c.Config.DefaultLocale,
				Fields:       collection.Fields,
				MaxAttempts:  c.Config.Jobs.MaxAttempts,
				Clock:        c.clock,
			}))
		}
	}
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.DefaultTTL > 0 {
			cfg.TTL = c.Config.Cache.DefaultTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureStore() error {
	logger := logging.StoreLogger(c.loggerProvider)
	if c.store != nil {
		logger.Debug("store.configured", "provider", "custom")
		return nil
	}

	storeOpts := []documents.Option{
		documents.WithHooks(c.hooks),
		documents.WithClock(c.clock),
		documents.WithFallbackLocale(c.Config.DefaultLocale),
	}

	if strings.ToLower(strings.TrimSpace(c.Config.Storage.Provider)) != "bun" && c.bunDB == nil {
		c.store = documents.NewMemoryStore(storeOpts...)
		logger.Debug("store.configured", "provider", "memory")
		return nil
	}

	if c.bunDB == nil {
		db, err := openBunDB(c.Config.Storage)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if err := documents.CreateSchema(context.Background(), c.bunDB); err != nil {
		return err
	}
	c.store = documents.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer, storeOpts...)
	logger.Debug("store.configured", "provider", "bun", "cache", c.cacheService != nil)
	return nil
}

func openBunDB(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dsn := strings.TrimSpace(cfg.DSN)
	switch driver {
	case "postgres":
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("di: open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		if dsn == "" {
			dsn = "file:autotranslate?mode=memory&cache=shared"
		}
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("di: open sqlite: %w", err)
		}
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		db.SetMaxOpenConns(1)
		return db, nil
	}
}

func (c *Container) configureGateway() error {
	logger := logging.GatewayLogger(c.loggerProvider)
	if c.gateway != nil {
		logger.Debug("gateway.configured", "provider", "custom")
		return nil
	}
	tr := c.Config.Translation
	opts := append([]gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithDictionaryEntries(tr.Dictionary),
	}, c.gatewayOpts...)
	gw, err := gateway.New(context.Background(), gateway.Config{
		Provider:       tr.Provider,
		APIKey:         tr.APIKey,
		APIKeyEnv:      tr.APIKeyEnv,
		BaseURL:        tr.BaseURL,
		Timeout:        tr.Timeout,
		LambdaFunction: tr.LambdaFunction,
		LambdaRegion:   tr.LambdaRegion,
	}, opts...)
	if err != nil {
		return err
	}
	c.gateway = gw
	logger.Debug("gateway.configured", logging.FieldProvider, tr.Provider)
	return nil
}

func (c *Container) configurePipeline() error {
	pipelineLogger := logging.PipelineLogger(c.loggerProvider)
	reconciler, err := reconcile.New(c.store, c.gateway, reconcile.Config{
		Locales:              c.Config.I18N.Locales,
		DefaultLocale:        c.Config.DefaultLocale,
		MaxConcurrentLocales: c.Config.Translation.MaxConcurrentLocales,
	},
		reconcile.WithLogger(pipelineLogger),
		reconcile.WithFieldResolver(c.Config.CollectionFields),
	)
	if err != nil {
		return err
	}
	c.reconciler = reconciler
	handlerOpts := make([]commands.HandlerOption[translatecmd.TranslateDocumentCommand], 0, len(c.handlerOpts)+1)
	if timeout := c.Config.Translation.CommandTimeout; timeout > 0 {
		handlerOpts = append(handlerOpts, commands.WithTimeout[translatecmd.TranslateDocumentCommand](timeout))
	}
	handlerOpts = append(handlerOpts, c.handlerOpts...)
	c.translate = translatecmd.NewTranslateDocumentHandler(
		reconciler,
		commands.CommandLogger(c.loggerProvider, "translate"),
		handlerOpts...,
	)

	jobsLogger := logging.JobsLogger(c.loggerProvider)
	audit := c.audit
	if audit == nil {
		audit = jobs.NewLogAuditRecorder(jobsLogger)
	}
	c.worker = jobs.NewWorker(c.scheduler, c.translate,
		jobs.WithLogger(jobsLogger),
		jobs.WithAuditRecorder(audit),
		jobs.WithSettings(c.defaultTrans),
		jobs.WithBatchSize(c.Config.Jobs.BatchSize),
		jobs.WithClock(c.clock),
	)
	return nil
}

// SubscribeCommands registers the translate handler on the go-command
// dispatcher. Dispatched commands are retried up to Jobs.MaxAttempts times in
// total. The returned function removes the subscription.
func (c *Container) SubscribeCommands() func() {
	retries := c.Config.Jobs.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	sub := dispatcher.SubscribeCommand(c.translate, runner.WithMaxRetries(retries))
	logging.CommandsLogger(c.loggerProvider).Debug("commands.subscribed", "type", translatecmd.TranslateDocumentCommand{}.Type(), "max_retries", retries)
	return sub.Unsubscribe
}

// Close releases the database opened from Storage.DSN.
func (c *Container) Close() error {
	if c == nil || !c.ownsDB || c.bunDB == nil {
		return nil
	}
	return c.bunDB.Close()
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) Store() interfaces.DocumentStore { return c.store }

func (c *Container) Gateway() interfaces.TranslationGateway { return c.gateway }

func (c *Container) Scheduler() interfaces.Scheduler { return c.scheduler }

func (c *Container) Reconciler() *reconcile.Reconciler { return c.reconciler }

func (c *Container) TranslateHandler() *translatecmd.TranslateDocumentHandler { return c.translate }

func (c *Container) Worker() *jobs.Worker { return c.worker }

// DefaultSettings returns the provider options derived from Translation config.
func (c *Container) DefaultSettings() interfaces.TranslationSettings { return c.defaultTrans }
