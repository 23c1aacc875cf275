package langid

import (
	"strings"
	"unicode"
)

// Language identifies a natural language. Equality is by Code only; Name is
// display metadata.
type Language struct {
	Code string // short identifier, ISO-639-1 style ("en", "zh", ...)
	Name string
}

// Equal reports whether two languages carry the same code.
func (l Language) Equal(other Language) bool {
	return l.Code == other.Code
}

// Well-known languages recognized by the default detector.
var (
	English    = Language{Code: "en", Name: "English"}
	Chinese    = Language{Code: "zh", Name: "Chinese"}
	Japanese   = Language{Code: "ja", Name: "Japanese"}
	Korean     = Language{Code: "ko", Name: "Korean"}
	Russian    = Language{Code: "ru", Name: "Russian"}
	Arabic     = Language{Code: "ar", Name: "Arabic"}
	Hindi      = Language{Code: "hi", Name: "Hindi"}
	Thai       = Language{Code: "th", Name: "Thai"}
	Greek      = Language{Code: "el", Name: "Greek"}
	Hebrew     = Language{Code: "he", Name: "Hebrew"}
	Spanish    = Language{Code: "es", Name: "Spanish"}
	French     = Language{Code: "fr", Name: "French"}
	German     = Language{Code: "de", Name: "German"}
	Portuguese = Language{Code: "pt", Name: "Portuguese"}
	Italian    = Language{Code: "it", Name: "Italian"}
)

// ByCode returns the well-known language for a code, or a bare Language
// carrying just the code when it is not one we have a display name for.
func ByCode(code string) Language {
	code = normalizeCode(code)
	for _, l := range []Language{
		English, Chinese, Japanese, Korean, Russian, Arabic, Hindi,
		Thai, Greek, Hebrew, Spanish, French, German, Portuguese, Italian,
	} {
		if l.Code == code {
			return l
		}
	}
	return Language{Code: code, Name: code}
}

// normalizeCode lowercases a language tag and strips any BCP 47 region
// subtag ("en-US" -> "en").
func normalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexAny(code, "-_"); idx >= 0 {
		code = code[:idx]
	}
	return code
}

// DetectorFunc maps raw utterance text to a best-guess language. The second
// return value is false when no guess can be made. Implementations must be
// pure; the default is a character-range heuristic, not real language
// identification, and callers are expected to tolerate wrong guesses.
type DetectorFunc func(text string) (Language, bool)

// Detect is the default heuristic detector. Script-based languages are
// decided by Unicode ranges; Latin-script languages by diacritic sets and a
// handful of high-frequency words.
func Detect(text string) (Language, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Language{}, false
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			return Chinese, true
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			return Japanese, true
		case unicode.Is(unicode.Hangul, r):
			return Korean, true
		case unicode.Is(unicode.Cyrillic, r):
			return Russian, true
		case unicode.Is(unicode.Arabic, r):
			return Arabic, true
		case unicode.Is(unicode.Devanagari, r):
			return Hindi, true
		case unicode.Is(unicode.Thai, r):
			return Thai, true
		case unicode.Is(unicode.Greek, r):
			return Greek, true
		case unicode.Is(unicode.Hebrew, r):
			return Hebrew, true
		}
	}

	lower := strings.ToLower(text)
	if lang, ok := detectLatin(lower); ok {
		return lang, true
	}
	if containsAnyRune(lower, "abcdefghijklmnopqrstuvwxyz") {
		return English, true
	}
	return Language{}, false
}

func detectLatin(lower string) (Language, bool) {
	switch {
	case containsAnyRune(lower, "ñ¿¡"):
		return Spanish, true
	case containsAnyRune(lower, "àâæçèêëîïôœùûÿ"):
		return French, true
	case containsAnyRune(lower, "äöüß"):
		return German, true
	case containsAnyRune(lower, "ãõ"):
		return Portuguese, true
	}

	words := strings.Fields(lower)
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'")
		switch w {
		case "el", "la", "los", "las", "está", "qué", "hola", "gracias":
			return Spanish, true
		case "le", "les", "est", "bonjour", "merci", "oui", "je":
			return French, true
		case "der", "die", "das", "und", "ich", "nicht", "danke":
			return German, true
		case "você", "não", "obrigado", "isso":
			return Portuguese, true
		case "il", "gli", "sono", "grazie", "ciao", "perché":
			return Italian, true
		}
	}
	return Language{}, false
}

func containsAnyRune(s, set string) bool {
	return strings.ContainsAny(s, set)
}
