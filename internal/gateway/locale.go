package gateway

import (
	"strings"

	"golang.org/x/text/language"
)

var deeplTargets = map[string]bool{
	"AR": true, "BG": true, "CS": true, "DA": true, "DE": true, "EL": true,
	"ES": true, "ET": true, "FI": true, "FR": true, "HU": true, "ID": true,
	"IT": true, "JA": true, "KO": true, "LT": true, "LV": true, "NB": true,
	"NL": true, "PL": true, "RO": true, "RU": true, "SK": true, "SL": true,
	"SV": true, "TR": true, "UK": true,
	"EN-GB": true, "EN-US": true, "PT-BR": true, "PT-PT": true,
	"ZH-HANS": true, "ZH-HANT": true,
}

// deeplSourceCode returns the DeepL source language code for locale. Source
// codes never carry a region. An empty locale lets DeepL detect the source.
func deeplSourceCode(locale string) (string, bool) {
	if strings.TrimSpace(locale) == "" {
		return "", true
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	code := strings.ToUpper(base.String())
	switch code {
	case "EN", "PT", "ZH":
		return code, true
	}
	return code, deeplTargets[code]
}

// deeplTargetCode returns the DeepL target language code for locale.
// Regional variants are required by DeepL for English and Portuguese.
func deeplTargetCode(locale string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	region, regionConfidence := tag.Region()

	switch base.String() {
	case "en":
		if regionConfidence == language.Exact && (region.String() == "GB" || region.String() == "IE" || region.String() == "AU") {
			return "EN-GB", true
		}
		return "EN-US", true
	case "pt":
		if regionConfidence == language.Exact && region.String() != "BR" {
			return "PT-PT", true
		}
		return "PT-BR", true
	case "zh":
		script, _ := tag.Script()
		if script.String() == "Hant" {
			return "ZH-HANT", true
		}
		return "ZH-HANS", true
	}

	code := strings.ToUpper(base.String())
	return code, deeplTargets[code]
}
