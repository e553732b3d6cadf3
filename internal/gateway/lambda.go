package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	json "github.com/goccy/go-json"

	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

const ProviderLambda = "lambda"

// LambdaInvoker is the subset of the AWS Lambda client used by the gateway.
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

// Lambda delegates translation to a translation-manager Lambda function.
type Lambda struct {
	client   LambdaInvoker
	function string
}

var _ interfaces.TranslationGateway = (*Lambda)(nil)

type lambdaRequest struct {
	Texts      []string `json:"texts"`
	SourceLang string   `json:"sourceLang"`
	TargetLang string   `json:"targetLang"`
}

type lambdaResponse struct {
	Translations []string `json:"translations,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// NewLambda wraps an existing invoker.
func NewLambda(client LambdaInvoker, function string) (*Lambda, error) {
	function = strings.TrimSpace(function)
	if function == "" {
		return nil, ErrLambdaFunctionRequired
	}
	if client == nil {
		return nil, fmt.Errorf("gateway: lambda client required")
	}
	return &Lambda{client: client, function: function}, nil
}

// NewLambdaFromEnvironment loads the default AWS configuration and builds a
// Lambda gateway for function.
func NewLambdaFromEnvironment(ctx context.Context, function, region string) (*Lambda, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region = strings.TrimSpace(region); region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("gateway: load aws config: %w", err)
	}
	return NewLambda(lambdasdk.NewFromConfig(cfg), function)
}

// TranslateText implements interfaces.TranslationGateway.
func (l *Lambda) TranslateText(ctx context.Context, text, targetLocale, sourceLocale string, _ interfaces.TranslationSettings) (string, error) {
	failure := func(kind Kind, msg string, err error) error {
		return &TranslationError{
			Kind:         kind,
			Provider:     ProviderLambda,
			SourceLocale: sourceLocale,
			TargetLocale: targetLocale,
			Message:      msg,
			Err:          err,
		}
	}

	payload, err := json.Marshal(lambdaRequest{
		Texts:      []string{text},
		SourceLang: baseLanguage(sourceLocale),
		TargetLang: baseLanguage(targetLocale),
	})
	if err != nil {
		return "", failure(KindRejected, "encoding request", err)
	}

	out, err := l.client.Invoke(ctx, &lambdasdk.InvokeInput{
		FunctionName: aws.String(l.function),
		Payload:      payload,
	})
	if err != nil {
		return "", failure(KindNetwork, "invoke "+l.function, err)
	}
	if out.FunctionError != nil {
		return "", failure(KindRejected, "lambda error: "+aws.ToString(out.FunctionError), nil)
	}

	var resp lambdaResponse
	if err := json.Unmarshal(out.Payload, &resp); err != nil {
		return "", failure(KindNetwork, "decoding response", err)
	}
	if resp.Error != "" {
		kind := KindRejected
		if strings.HasPrefix(resp.Error, "no translator for") {
			kind = KindUnsupportedPair
		}
		return "", failure(kind, resp.Error, nil)
	}
	if len(resp.Translations) == 0 || resp.Translations[0] == "" {
		return "", failure(KindEmptyResult, "no translations returned", nil)
	}
	return resp.Translations[0], nil
}

func baseLanguage(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		return locale[:idx]
	}
	return locale
}
