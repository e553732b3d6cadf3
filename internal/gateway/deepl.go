package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

const (
	ProviderDeepL = "deepl"

	DefaultDeepLBaseURL     = "https://api.deepl.com"
	DefaultDeepLFreeBaseURL = "https://api-free.deepl.com"

	deeplTranslatePath = "/v2/translate"
	deeplFreeKeySuffix = ":fx"
	maxErrorBodyBytes  = 4 << 10
)

// DeepL translates text through the DeepL REST API.
type DeepL struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ interfaces.TranslationGateway = (*DeepL)(nil)

// DeepLOption configures a DeepL client.
type DeepLOption func(*DeepL)

// WithDeepLBaseURL overrides the API host.
func WithDeepLBaseURL(baseURL string) DeepLOption {
	return func(d *DeepL) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			d.baseURL = trimmed
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) DeepLOption {
	return func(d *DeepL) {
		if client != nil {
			d.client = client
		}
	}
}

// NewDeepL constructs a DeepL client. Keys ending in ":fx" target the free API
// host unless a base URL is supplied.
func NewDeepL(apiKey string, timeout time.Duration, opts ...DeepLOption) (*DeepL, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrCredentialRequired
	}

	baseURL := DefaultDeepLBaseURL
	if strings.HasSuffix(apiKey, deeplFreeKeySuffix) {
		baseURL = DefaultDeepLFreeBaseURL
	}

	d := &DeepL{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

type deeplRequest struct {
	Text               []string `json:"text"`
	TargetLang         string   `json:"target_lang"`
	SourceLang         string   `json:"source_lang,omitempty"`
	Formality          string   `json:"formality,omitempty"`
	PreserveFormatting bool     `json:"preserve_formatting,omitempty"`
	TagHandling        string   `json:"tag_handling,omitempty"`
	GlossaryID         string   `json:"glossary_id,omitempty"`
	Context            string   `json:"context,omitempty"`
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

type deeplErrorBody struct {
	Message string `json:"message"`
}

// TranslateText implements interfaces.TranslationGateway.
func (d *DeepL) TranslateText(ctx context.Context, text, targetLocale, sourceLocale string, settings interfaces.TranslationSettings) (string, error) {
	failure := func(kind Kind, status int, msg string, err error) error {
		return &TranslationError{
			Kind:         kind,
			Provider:     ProviderDeepL,
			SourceLocale: sourceLocale,
			TargetLocale: targetLocale,
			StatusCode:   status,
			Message:      msg,
			Err:          err,
		}
	}

	target, ok := deeplTargetCode(targetLocale)
	if !ok {
		return "", failure(KindUnsupportedPair, 0, fmt.Sprintf("target locale %q not supported", targetLocale), nil)
	}
	source, ok := deeplSourceCode(sourceLocale)
	if !ok {
		return "", failure(KindUnsupportedPair, 0, fmt.Sprintf("source locale %q not supported", sourceLocale), nil)
	}

	body, err := json.Marshal(deeplRequest{
		Text:               []string{text},
		TargetLang:         target,
		SourceLang:         source,
		Formality:          deeplFormality(settings.Formality),
		PreserveFormatting: settings.PreserveFormatting,
		TagHandling:        settings.TagHandling,
		GlossaryID:         settings.GlossaryID,
		Context:            settings.Context,
	})
	if err != nil {
		return "", failure(KindRejected, 0, "encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+deeplTranslatePath, bytes.NewReader(body))
	if err != nil {
		return "", failure(KindNetwork, 0, "creating request", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", failure(KindNetwork, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", failure(kindForStatus(resp.StatusCode), resp.StatusCode, errorMessage(raw), nil)
	}

	var decoded deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", failure(KindNetwork, resp.StatusCode, "decoding response", err)
	}
	if len(decoded.Translations) == 0 || decoded.Translations[0].Text == "" {
		return "", failure(KindEmptyResult, resp.StatusCode, "no translations returned", nil)
	}
	return decoded.Translations[0].Text, nil
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests || status == 456:
		return KindQuota
	case status >= 500:
		return KindNetwork
	default:
		return KindRejected
	}
}

func errorMessage(raw []byte) string {
	var body deeplErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(raw))
}

func deeplFormality(value string) string {
	switch value = strings.ToLower(strings.TrimSpace(value)); value {
	case "", interfaces.FormalityDefault:
		return ""
	default:
		return value
	}
}
