package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrCredentialRequired is returned at construction when the selected
	// provider needs an API key and none is configured.
	ErrCredentialRequired = errors.New("gateway: provider credential required")
	// ErrUnknownProvider is returned when the configured provider has no client.
	ErrUnknownProvider = errors.New("gateway: unknown translation provider")
	// ErrLambdaFunctionRequired is returned when the lambda provider has no function name.
	ErrLambdaFunctionRequired = errors.New("gateway: lambda function name required")
)

// Kind classifies translation failures.
type Kind string

const (
	KindAuth            Kind = "auth"
	KindQuota           Kind = "quota"
	KindNetwork         Kind = "network"
	KindUnsupportedPair Kind = "unsupported_pair"
	KindRejected        Kind = "rejected"
	KindEmptyResult     Kind = "empty_result"
)

// TranslationError is the failure type returned by every gateway client.
type TranslationError struct {
	Kind         Kind
	Provider     string
	SourceLocale string
	TargetLocale string
	StatusCode   int
	Message      string
	Err          error
}

func (e *TranslationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "gateway: %s %s", e.Provider, e.Kind)
	if e.SourceLocale != "" || e.TargetLocale != "" {
		fmt.Fprintf(&b, " (%s->%s)", e.SourceLocale, e.TargetLocale)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " status=%d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TranslationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Category maps the failure kind onto the go-errors taxonomy.
func (e *TranslationError) Category() goerrors.Category {
	if e == nil {
		return goerrors.CategoryInternal
	}
	switch e.Kind {
	case KindAuth:
		return goerrors.CategoryAuth
	case KindQuota:
		return goerrors.CategoryRateLimit
	case KindUnsupportedPair, KindRejected:
		return goerrors.CategoryBadInput
	case KindNetwork, KindEmptyResult:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryInternal
	}
}

// TextCode returns the stable error code attached when the failure crosses a
// command boundary.
func (e *TranslationError) TextCode() string {
	if e == nil {
		return ""
	}
	return "TRANSLATION_" + strings.ToUpper(string(e.Kind))
}

// KindOf returns the Kind of err when it wraps a *TranslationError.
func KindOf(err error) (Kind, bool) {
	var translationErr *TranslationError
	if errors.As(err, &translationErr) && translationErr != nil {
		return translationErr.Kind, true
	}
	return "", false
}

// IsTransient reports whether a later attempt may recover from err.
func IsTransient(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return errors.Is(err, context.DeadlineExceeded)
	}
	return kind == KindNetwork || kind == KindQuota
}

// AsRich wraps err with go-errors metadata derived from its Kind.
func AsRich(err error) *goerrors.Error {
	var translationErr *TranslationError
	if !errors.As(err, &translationErr) || translationErr == nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "translation failed")
	}
	return goerrors.Wrap(err, translationErr.Category(), "translation failed").
		WithTextCode(translationErr.TextCode()).
		WithMetadata(map[string]any{
			"provider":      translationErr.Provider,
			"source_locale": translationErr.SourceLocale,
			"target_locale": translationErr.TargetLocale,
		})
}
