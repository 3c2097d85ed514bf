package language

import (
	"errors"
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnknown reports an identifier that could not be mapped to a language.
var ErrUnknown = errors.New("unknown language")

// aliases maps English word forms and ISO 639-2/B codes to ISO 639-1.
// x/text parses terminology codes and tags but not names.
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
	"mandarin":   "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
	"indonesian": "id",
	"thai":       "th",
	"vietnamese": "vi",
	"turkish":    "tr",
}

func parseBase(code string) (xlanguage.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return xlanguage.Base{}, false
	}
	if mapped, ok := aliases[code]; ok {
		code = mapped
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return xlanguage.Base{}, false
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No || base.String() == "und" {
		return xlanguage.Base{}, false
	}
	return base, true
}

// Normalize reduces a language identifier to its ISO 639-1 base code
// ("ja-JP" and "Japanese" both become "ja"). Languages without a two-letter
// code keep their three-letter form.
func Normalize(code string) (string, error) {
	base, ok := parseBase(code)
	if !ok {
		if strings.TrimSpace(code) == "" {
			return "", fmt.Errorf("%w: empty identifier", ErrUnknown)
		}
		return "", fmt.Errorf("%w: %q", ErrUnknown, strings.TrimSpace(code))
	}
	return base.String(), nil
}

// ToISO2 converts any recognized language code or word to ISO 639-1.
// Returns empty string for unrecognized input.
// An unknown two-letter code passes through unchanged.
func ToISO2(code string) string {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" {
		return ""
	}
	if base, ok := parseBase(trimmed); ok {
		if value := base.String(); len(value) == 2 {
			return value
		}
		return ""
	}
	if len(trimmed) == 2 {
		return trimmed
	}
	return ""
}

// ToISO3 converts any recognized language code to ISO 639-2.
// Returns "und" for unrecognized input.
func ToISO3(code string) string {
	base, ok := parseBase(code)
	if !ok {
		return "und"
	}
	return base.ISO3()
}

// DisplayName returns the English name for a language identifier.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	base, ok := parseBase(code)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	tag, err := xlanguage.Compose(base)
	if err != nil {
		return strings.ToUpper(base.String())
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return strings.ToUpper(base.String())
	}
	return name
}

// Same reports whether two identifiers name the same base language.
func Same(a, b string) bool {
	left, okLeft := parseBase(a)
	right, okRight := parseBase(b)
	if !okLeft || !okRight {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return left == right
}
