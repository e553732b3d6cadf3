package gateway

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

func noEnv(string) (string, bool) { return "", false }

func TestNewFailsWithoutCredential(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "deepl"}, WithLookupEnv(noEnv))
	if !errors.Is(err, ErrCredentialRequired) {
		t.Fatalf("expected ErrCredentialRequired, got %v", err)
	}
}

func TestNewResolvesCredentialFromEnvironment(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "CUSTOM_KEY" {
			return "env-key", true
		}
		return "", false
	}
	gw, err := New(context.Background(), Config{Provider: "deepl", APIKeyEnv: "CUSTOM_KEY"}, WithLookupEnv(lookup))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if gw == nil {
		t.Fatal("expected gateway")
	}
	if got := ResolveAPIKey(Config{}, func(name string) (string, bool) {
		return "default-" + name, name == DefaultAPIKeyEnv
	}); got != "default-"+DefaultAPIKeyEnv {
		t.Fatalf("expected DEEPL_API_KEY fallback, got %q", got)
	}
	if got := ResolveAPIKey(Config{APIKey: "explicit"}, lookup); got != "explicit" {
		t.Fatalf("expected explicit key to win, got %q", got)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: "babelfish"}); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestNewLambdaProviderUsesInjectedClient(t *testing.T) {
	invoker := &fakeInvoker{payload: `{"translations":["Bonjour"]}`}
	gw, err := New(context.Background(), Config{Provider: "lambda", LambdaFunction: "fn"}, WithLambdaClient(invoker))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := gw.TranslateText(context.Background(), "Hello", "fr", "en", interfaces.TranslationSettings{})
	if err != nil || got != "Bonjour" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}

	if _, err := New(context.Background(), Config{Provider: "lambda"}); !errors.Is(err, ErrLambdaFunctionRequired) {
		t.Fatalf("expected ErrLambdaFunctionRequired, got %v", err)
	}
}

func TestDictionaryGateway(t *testing.T) {
	gw, err := New(context.Background(), Config{Provider: "dictionary"}, WithDictionaryEntries(map[string]map[string]string{
		"es": {"Hello": "Hola"},
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if got, _ := gw.TranslateText(ctx, "Hello", "es", "en", interfaces.TranslationSettings{}); got != "Hola" {
		t.Fatalf("expected dictionary hit, got %q", got)
	}
	if got, _ := gw.TranslateText(ctx, "Bye", "es", "en", interfaces.TranslationSettings{}); got != "[es] Bye" {
		t.Fatalf("expected prefixed fallback, got %q", got)
	}

	dict := NewDictionary(nil)
	dict.FailLocale("DE", KindQuota)
	_, err = dict.TranslateText(ctx, "Hello", "de", "en", interfaces.TranslationSettings{})
	if kind, _ := KindOf(err); kind != KindQuota {
		t.Fatalf("expected quota failure, got %v", err)
	}
	if dict.Calls() != 1 {
		t.Fatalf("expected one recorded call, got %d", dict.Calls())
	}
}

func TestAsRichCarriesCategoryAndCode(t *testing.T) {
	err := AsRich(&TranslationError{Kind: KindAuth, Provider: "deepl", TargetLocale: "de"})
	if !goerrors.IsCategory(err, goerrors.CategoryAuth) {
		t.Fatalf("expected auth category, got %v", err)
	}
	if err.TextCode != "TRANSLATION_AUTH" {
		t.Fatalf("unexpected text code %q", err.TextCode)
	}
	if err.Metadata["target_locale"] != "de" {
		t.Fatalf("expected metadata, got %v", err.Metadata)
	}

	plain := AsRich(errors.New("x"))
	if !goerrors.IsCategory(plain, goerrors.CategoryExternal) {
		t.Fatalf("expected external category, got %v", plain)
	}
}

type levelLogger struct {
	levels map[string][]string
}

func (l *levelLogger) record(level, msg string) {
	if l.levels == nil {
		l.levels = map[string][]string{}
	}
	l.levels[level] = append(l.levels[level], msg)
}

func (l *levelLogger) Trace(msg string, _ ...any)                    { l.record("trace", msg) }
func (l *levelLogger) Debug(msg string, _ ...any)                    { l.record("debug", msg) }
func (l *levelLogger) Info(msg string, _ ...any)                     { l.record("info", msg) }
func (l *levelLogger) Warn(msg string, _ ...any)                     { l.record("warn", msg) }
func (l *levelLogger) Error(msg string, _ ...any)                    { l.record("error", msg) }
func (l *levelLogger) Fatal(msg string, _ ...any)                    { l.record("fatal", msg) }
func (l *levelLogger) WithFields(map[string]any) interfaces.Logger   { return l }
func (l *levelLogger) WithContext(context.Context) interfaces.Logger { return l }

func TestLoggedKeepsFailuresOffWarnLevel(t *testing.T) {
	logger := &levelLogger{}
	dict := NewDictionary(nil)
	dict.FailLocale("fr", KindNetwork)
	gw := Logged(dict, ProviderDictionary, logger)

	if _, err := gw.TranslateText(context.Background(), "Hello", "fr", "en", interfaces.TranslationSettings{}); err == nil {
		t.Fatal("expected failure from dictionary")
	}
	if _, err := gw.TranslateText(context.Background(), "Hello", "de", "en", interfaces.TranslationSettings{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(logger.levels["warn"]) != 0 || len(logger.levels["error"]) != 0 {
		t.Fatalf("expected no warn or error entries, got %v", logger.levels)
	}
	if got := logger.levels["debug"]; len(got) != 1 || got[0] != "gateway.translate_failed" {
		t.Fatalf("expected one debug failure entry, got %v", got)
	}
	if got := logger.levels["trace"]; len(got) != 1 || got[0] != "gateway.translated" {
		t.Fatalf("expected one trace entry, got %v", got)
	}
}
