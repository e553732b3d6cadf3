package autotranslate

// LocaleSummary is the serialisable view of one Outcome.
type LocaleSummary struct {
	Locale     string `json:"locale"`
	State      string `json:"state"`
	Branch     string `json:"branch"`
	Written    bool   `json:"written"`
	Translated int    `json:"translated"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// Summary is the serialisable view of a Result.
type Summary struct {
	Collection   string          `json:"collection"`
	DocumentID   string          `json:"document_id"`
	SourceLocale string          `json:"source_locale"`
	Locales      []LocaleSummary `json:"locales"`
}

// Summarize flattens result for JSON output. A nil result yields an empty summary.
func Summarize(result *Result) Summary {
	if result == nil {
		return Summary{Locales: []LocaleSummary{}}
	}
	summary := Summary{
		Collection:   result.Collection,
		DocumentID:   result.DocumentID,
		SourceLocale: result.SourceLocale,
		Locales:      make([]LocaleSummary, 0, len(result.Outcomes)),
	}
	for _, outcome := range result.Outcomes {
		entry := LocaleSummary{
			Locale:     outcome.Locale,
			State:      outcome.State.String(),
			Branch:     outcome.Branch.String(),
			Written:    outcome.Written,
			Translated: outcome.Report.Translated(),
			Failed:     outcome.Report.Failed(),
		}
		if outcome.Err != nil {
			entry.Error = outcome.Err.Error()
		}
		summary.Locales = append(summary.Locales, entry)
	}
	return summary
}
