package di_test

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	translatecmd "github.com/goliatone/go-autotranslate/internal/commands/translate"
	"github.com/goliatone/go-autotranslate/internal/di"
	"github.com/goliatone/go-autotranslate/internal/documents"
	"github.com/goliatone/go-autotranslate/internal/gateway"
	"github.com/goliatone/go-autotranslate/internal/runtimeconfig"
	"github.com/goliatone/go-autotranslate/internal/scheduler"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
	"github.com/goliatone/go-autotranslate/pkg/testsupport"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func dictionaryConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.I18N.Locales = []string{"en", "fr", "de"}
	cfg.Translation.Provider = "dictionary"
	cfg.Translation.Dictionary = map[string]map[string]string{
		"fr": {"Hello": "Bonjour"},
	}
	cfg.Collections = []runtimeconfig.CollectionConfig{
		{Name: "posts", Fields: []string{"title"}, SlugSource: "title", AutoTranslate: true},
	}
	return cfg
}

func TestContainerSchedulerLogging(t *testing.T) {
	cfg := dictionaryConfig()
	cfg.Features.AutoTranslate = true
	rec := newRecordingProvider()

	if _, err := di.NewContainer(cfg, di.WithLoggerProvider(rec)); err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	entry := rec.find("scheduler.configured")
	if entry == nil {
		t.Fatalf("expected scheduler.configured log entry, got %#v", rec.entries)
	}
	if got := entry.fields["provider"]; got != "in-memory" {
		t.Fatalf("expected provider field to be in-memory, got %v", got)
	}
	if got := entry.fields["module"]; got != "autotranslate.jobs" {
		t.Fatalf("expected module field to be autotranslate.jobs, got %v", got)
	}
	if store := rec.find("store.configured"); store == nil || store.fields["provider"] != "memory" {
		t.Fatalf("expected memory store log entry, got %#v", store)
	}
}

func TestContainerDiscardsJobsWhenAutoTranslateDisabled(t *testing.T) {
	rec := newRecordingProvider()
	container, err := di.NewContainer(dictionaryConfig(), di.WithLoggerProvider(rec))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if _, ok := container.Scheduler().(*scheduler.Discard); !ok {
		t.Fatalf("expected discard scheduler, got %T", container.Scheduler())
	}
	if entry := rec.find("scheduler.configured"); entry == nil || entry.fields["provider"] != "discard" {
		t.Fatalf("expected discard scheduler log entry, got %#v", entry)
	}
}

func TestContainerRejectsInvalidConfig(t *testing.T) {
	cfg := dictionaryConfig()
	cfg.Translation.Provider = "babelfish"
	if _, err := di.NewContainer(cfg); err == nil {
		t.Fatal("expected invalid config error")
	}
}

func TestContainerRequiresDeepLCredential(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	noEnv := func(string) (string, bool) { return "", false }
	if _, err := di.NewContainer(cfg, di.WithGatewayOptions(gateway.WithLookupEnv(noEnv))); err == nil {
		t.Fatal("expected missing credential error")
	}
}

func TestContainerAutoTranslateFlow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	cfg := dictionaryConfig()
	cfg.Features.AutoTranslate = true
	cfg.Features.Slugs = true

	container, err := di.NewContainer(cfg, di.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	if _, err := container.Store().Create(ctx, interfaces.CreateRequest{
		Collection: "posts",
		ID:         "post-1",
		Locale:     "en",
		Data:       map[string]any{"title": "Hello"},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	due, err := container.Scheduler().ListDue(ctx, now, 0)
	if err != nil || len(due) != 1 {
		t.Fatalf("expected one queued job, got %d (%v)", len(due), err)
	}

	if err := container.Worker().Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	fr, err := container.Store().FindByID(ctx, interfaces.FindRequest{Collection: "posts", ID: "post-1", Locale: "fr"})
	if err != nil {
		t.Fatalf("find fr: %v", err)
	}
	if fr["title"] != "Bonjour" {
		t.Fatalf("expected Bonjour, got %v", fr["title"])
	}
	if fr["slug"] != "hello" {
		t.Fatalf("expected slug copied from source instance, got %v", fr["slug"])
	}

	due, _ = container.Scheduler().ListDue(ctx, now.Add(time.Hour), 0)
	if len(due) != 0 {
		t.Fatalf("expected pipeline writes not to enqueue jobs, got %d", len(due))
	}
}

func TestContainerCommandTimeout(t *testing.T) {
	cases := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{"unbounded by default", 0, false},
		{"configured", time.Minute, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := dictionaryConfig()
			cfg.Translation.CommandTimeout = tc.timeout

			var withDeadline atomic.Int32
			gw := interfaces.TranslationGatewayFunc(func(ctx context.Context, text, _, _ string, _ interfaces.TranslationSettings) (string, error) {
				if _, ok := ctx.Deadline(); ok {
					withDeadline.Add(1)
				}
				return text, nil
			})
			container, err := di.NewContainer(cfg, di.WithGateway(gw))
			if err != nil {
				t.Fatalf("NewContainer returned error: %v", err)
			}
			if _, err := container.Store().Create(ctx, interfaces.CreateRequest{
				Collection: "posts",
				ID:         "post-1",
				Locale:     "en",
				Data:       map[string]any{"title": "Hello"},
			}); err != nil {
				t.Fatalf("create: %v", err)
			}

			if _, err := container.TranslateHandler().Run(ctx, translatecmd.TranslateDocumentCommand{
				Collection: "posts",
				DocumentID: "post-1",
			}); err != nil {
				t.Fatalf("run: %v", err)
			}
			if got := withDeadline.Load() > 0; got != tc.wantDeadline {
				t.Fatalf("expected deadline=%v, got %d calls with a deadline", tc.wantDeadline, withDeadline.Load())
			}
		})
	}
}

func TestContainerUsesBunStore(t *testing.T) {
	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)

	cfg := dictionaryConfig()
	cfg.Storage.Provider = "bun"
	cfg.Cache.Enabled = true

	container, err := di.NewContainer(cfg, di.WithBunDB(bunDB))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if _, ok := container.Store().(*documents.BunStore); !ok {
		t.Fatalf("expected bun store, got %T", container.Store())
	}
	if err := container.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

type recordingProvider struct {
	mu      sync.Mutex
	entries []recordedEntry
}

type recordedEntry struct {
	level  string
	msg    string
	fields map[string]any
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{entries: []recordedEntry{}}
}

func (p *recordingProvider) GetLogger(name string) interfaces.Logger {
	return &recordingLogger{
		provider: p,
		fields: map[string]any{
			"logger": name,
		},
	}
}

func (p *recordingProvider) record(entry recordedEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
}

func (p *recordingProvider) find(msg string) *recordedEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.entries {
		if p.entries[i].msg == msg {
			return &p.entries[i]
		}
	}
	return nil
}

type recordingLogger struct {
	provider *recordingProvider
	fields   map[string]any
}

var _ interfaces.Logger = (*recordingLogger)(nil)

func (l *recordingLogger) Trace(msg string, args ...any) { l.log("TRACE", msg, args...) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("WARN", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args...) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.log("FATAL", msg, args...) }

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)
	return &recordingLogger{provider: l.provider, fields: merged}
}

func (l *recordingLogger) WithContext(context.Context) interfaces.Logger {
	return &recordingLogger{provider: l.provider, fields: maps.Clone(l.fields)}
}

func (l *recordingLogger) log(level, msg string, args ...any) {
	fields := maps.Clone(l.fields)
	for i := 0; i+1 < len(args); i += 2 {
		key, _ := args[i].(string)
		if key == "" {
			continue
		}
		fields[key] = args[i+1]
	}
	l.provider.record(recordedEntry{level: level, msg: msg, fields: fields})
}
