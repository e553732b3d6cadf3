package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// JobTypeTranslateDocument runs the translation pipeline for one document.
const JobTypeTranslateDocument = "autotranslate.document"

const (
	payloadCollection = "collection"
	payloadDocumentID = "document_id"
	payloadLocale     = "source_locale"
	payloadFields     = "fields"
	payloadLocales    = "target_locales"
)

// TranslateDocumentKey is the idempotency key of a document translation job.
func TranslateDocumentKey(collection, id string) string {
	return "translate:" + strings.TrimSpace(collection) + ":" + strings.TrimSpace(id)
}

// TranslateDocumentPayload is the typed payload of JobTypeTranslateDocument.
type TranslateDocumentPayload struct {
	Collection    string
	DocumentID    string
	SourceLocale  string
	Fields        []string
	TargetLocales []string
}

// NewTranslateDocumentSpec builds the job spec for payload.
func NewTranslateDocumentSpec(payload TranslateDocumentPayload, runAt time.Time, maxAttempts int) interfaces.JobSpec {
	data := map[string]any{
		payloadCollection: payload.Collection,
		payloadDocumentID: payload.DocumentID,
	}
	if payload.SourceLocale != "" {
		data[payloadLocale] = payload.SourceLocale
	}
	if len(payload.Fields) > 0 {
		data[payloadFields] = append([]string(nil), payload.Fields...)
	}
	if len(payload.TargetLocales) > 0 {
		data[payloadLocales] = append([]string(nil), payload.TargetLocales...)
	}
	return interfaces.JobSpec{
		Key:         TranslateDocumentKey(payload.Collection, payload.DocumentID),
		Type:        JobTypeTranslateDocument,
		RunAt:       runAt,
		Payload:     data,
		MaxAttempts: maxAttempts,
	}
}

// ParseTranslateDocumentPayload decodes a job payload.
func ParseTranslateDocumentPayload(data map[string]any) (TranslateDocumentPayload, error) {
	if data == nil {
		return TranslateDocumentPayload{}, fmt.Errorf("scheduler: missing payload")
	}
	collection, _ := data[payloadCollection].(string)
	id, _ := data[payloadDocumentID].(string)
	if strings.TrimSpace(collection) == "" || strings.TrimSpace(id) == "" {
		return TranslateDocumentPayload{}, fmt.Errorf("scheduler: payload requires %s and %s", payloadCollection, payloadDocumentID)
	}
	locale, _ := data[payloadLocale].(string)
	return TranslateDocumentPayload{
		Collection:    collection,
		DocumentID:    id,
		SourceLocale:  locale,
		Fields:        stringSlice(data[payloadFields]),
		TargetLocales: stringSlice(data[payloadLocales]),
	}, nil
}

func stringSlice(value any) []string {
	switch typed := value.(type) {
	case []string:
		return append([]string(nil), typed...)
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
