package domain

// Reserved document keys.
const (
	FieldID             = "id"
	FieldCreatedAt      = "createdAt"
	FieldUpdatedAt      = "updatedAt"
	FieldStatus         = "_status"
	FieldSourceLanguage = "sourceLanguage"
)

// DefaultSourceLocale is used when neither the request, the document nor the
// configuration names a source locale.
const DefaultSourceLocale = "en"

// systemFields are store-managed and never copied into a synthesized locale
// instance.
var systemFields = map[string]struct{}{
	FieldID:        {},
	FieldCreatedAt: {},
	FieldUpdatedAt: {},
	FieldStatus:    {},
}

// IsSystemField reports whether key is managed by the document store.
func IsSystemField(key string) bool {
	_, ok := systemFields[key]
	return ok
}
