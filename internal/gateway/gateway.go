// Package gateway provides TranslationGateway clients for the supported
// providers together with the shared failure taxonomy.
package gateway

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-autotranslate/internal/logging"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// DefaultAPIKeyEnv is consulted when no API key is configured.
const DefaultAPIKeyEnv = "DEEPL_API_KEY"

// Config selects and configures a provider.
type Config struct {
	Provider       string
	APIKey         string
	APIKeyEnv      string
	BaseURL        string
	Timeout        time.Duration
	LambdaFunction string
	LambdaRegion   string
}

// Option customises New.
type Option func(*options)

type options struct {
	logger       interfaces.Logger
	lookupEnv    func(string) (string, bool)
	lambdaClient LambdaInvoker
	deepl        []DeepLOption
	dictionary   map[string]map[string]string
}

// WithLogger attaches a logger to the returned gateway.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLookupEnv overrides environment lookups for credential resolution.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(o *options) {
		if fn != nil {
			o.lookupEnv = fn
		}
	}
}

// WithLambdaClient supplies a pre-built Lambda invoker.
func WithLambdaClient(client LambdaInvoker) Option {
	return func(o *options) {
		o.lambdaClient = client
	}
}

// WithDeepLOptions forwards options to the DeepL client.
func WithDeepLOptions(opts ...DeepLOption) Option {
	return func(o *options) {
		o.deepl = append(o.deepl, opts...)
	}
}

// WithDictionaryEntries seeds the dictionary provider.
func WithDictionaryEntries(entries map[string]map[string]string) Option {
	return func(o *options) {
		o.dictionary = entries
	}
}

// New builds the gateway selected by cfg.Provider. A missing credential for
// a provider that needs one fails construction with ErrCredentialRequired.
func New(ctx context.Context, cfg Config, opts ...Option) (interfaces.TranslationGateway, error) {
	o := options{logger: logging.NoOp(), lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	var (
		gw  interfaces.TranslationGateway
		err error
	)

	switch provider {
	case "", ProviderDeepL:
		provider = ProviderDeepL
		key := ResolveAPIKey(cfg, o.lookupEnv)
		deeplOpts := append([]DeepLOption{WithDeepLBaseURL(cfg.BaseURL)}, o.deepl...)
		gw, err = NewDeepL(key, cfg.Timeout, deeplOpts...)
	case ProviderLambda:
		if o.lambdaClient != nil {
			gw, err = NewLambda(o.lambdaClient, cfg.LambdaFunction)
		} else if strings.TrimSpace(cfg.LambdaFunction) == "" {
			err = ErrLambdaFunctionRequired
		} else {
			gw, err = NewLambdaFromEnvironment(ctx, cfg.LambdaFunction, cfg.LambdaRegion)
		}
	case ProviderDictionary:
		gw = NewDictionary(o.dictionary)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return Logged(gw, provider, o.logger), nil
}

// ResolveAPIKey returns the configured key, falling back to the environment
// variable named by cfg.APIKeyEnv (DEEPL_API_KEY when unset).
func ResolveAPIKey(cfg Config, lookupEnv func(string) (string, bool)) string {
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key
	}
	name := strings.TrimSpace(cfg.APIKeyEnv)
	if name == "" {
		name = DefaultAPIKeyEnv
	}
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	value, _ := lookupEnv(name)
	return strings.TrimSpace(value)
}

// Logged decorates gw with trace logging of each call and debug logging of
// failures. Callers own the failure report for their unit of work.
func Logged(gw interfaces.TranslationGateway, provider string, logger interfaces.Logger) interfaces.TranslationGateway {
	if logger == nil {
		return gw
	}
	return &loggedGateway{
		next:   gw,
		logger: logging.WithFields(logger, map[string]any{logging.FieldProvider: provider}),
	}
}

type loggedGateway struct {
	next   interfaces.TranslationGateway
	logger interfaces.Logger
}

func (g *loggedGateway) TranslateText(ctx context.Context, text, targetLocale, sourceLocale string, settings interfaces.TranslationSettings) (string, error) {
	started := time.Now()
	out, err := g.next.TranslateText(ctx, text, targetLocale, sourceLocale, settings)
	if err != nil {
		g.logger.Debug("gateway.translate_failed",
			"source_locale", sourceLocale,
			"target_locale", targetLocale,
			"chars", len(text),
			"transient", IsTransient(err),
			"error", err,
		)
		return "", err
	}
	g.logger.Trace("gateway.translated",
		"source_locale", sourceLocale,
		"target_locale", targetLocale,
		"chars", len(text),
		"duration", time.Since(started),
	)
	return out, nil
}
