package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// bibliographic ISO 639-2/B codes and English names that BCP 47 parsing does
// not accept.
var aliases = map[string]string{
	"fre":        "fr",
	"ger":        "de",
	"chi":        "zh",
	"dut":        "nl",
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
}

var names = display.English.Languages()

func parse(code string) (language.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return language.Base{}, false
	}
	if alias, ok := aliases[code]; ok {
		code = alias
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return language.Base{}, false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return language.Base{}, false
	}
	return base, true
}

// ToISO2 converts a language code, BCP 47 tag or English name to ISO 639-1.
// Unknown 2-letter codes pass through; anything else unknown returns "".
func ToISO2(code string) string {
	if base, ok := parse(code); ok {
		if s := base.String(); len(s) == 2 {
			return s
		}
		return ""
	}
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if len(trimmed) == 2 && isLetters(trimmed) {
		return trimmed
	}
	return ""
}

// ToISO3 converts any recognized language to ISO 639-2. Returns "und" when
// the language is unknown.
func ToISO3(code string) string {
	if base, ok := parse(code); ok {
		return base.ISO3()
	}
	return "und"
}

// DisplayName returns the English name of a language. Returns "Unknown" for
// empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if base, ok := parse(code); ok {
		if name := names.Name(base); name != "" {
			return name
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeList deduplicates and normalizes a list of language codes to ISO 639-1.
func NormalizeList(languages []string) []string {
	if len(languages) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(languages))
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		code := ToISO2(lang)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	return normalized
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
