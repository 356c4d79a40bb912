package i18n

import "fmt"

// Language represents a supported language.
type Language string

const (
	// English is the English language.
	English Language = "en"
	// Finnish is the Finnish language.
	Finnish Language = "fi"
)

// DefaultLanguage is the fallback language.
const DefaultLanguage = Language(English)

// translations maps language codes to translation keys and their values.
//
// Values may contain fmt verbs that are filled in by [Translatef].
var translations = map[Language]map[string]string{
	English: {
		"rest.category.compound":    "Compound movement",
		"rest.category.isolation":   "Isolation movement",
		"rest.category.cardio":      "Cardio",
		"rest.category.flexibility": "Mobility work",
		"rest.category.isometric":   "Isometric hold",
		"rest.goal.strength":        "strength (%d reps or fewer)",
		"rest.goal.hypertrophy":     "hypertrophy (6-12 reps)",
		"rest.goal.endurance":       "muscular endurance (13+ reps)",
		"rest.reason.strength":      "%s for %s: %d s rest restores the phosphocreatine stores for heavy sets.",
		"rest.reason.hypertrophy":   "%s for %s: %d s rest balances recovery and metabolic stress.",
		"rest.reason.endurance":     "%s for %s: %d s rest keeps the density of the session high.",
		"rest.reason.compound":      "Multi-joint exercises get an extra %d s.",
		"rest.reason.isometric":     "%s: rest as long as the hold (%d s), at least %d s.",
		"rest.reason.flexibility":   "%s: a short %d s pause between stretches is enough.",
		"rest.reason.cardio":        "%s: %d s to recover between intervals, warm up for %d min first.",
		"language.name.en":          "English",
		"language.name.fi":          "Suomi",
	},
	Finnish: {
		"rest.category.compound":    "Moninivelliike",
		"rest.category.isolation":   "Eristävä liike",
		"rest.category.cardio":      "Kestävyysharjoitus",
		"rest.category.flexibility": "Liikkuvuusharjoitus",
		"rest.category.isometric":   "Staattinen pito",
		"rest.goal.strength":        "voima (enintään %d toistoa)",
		"rest.goal.hypertrophy":     "lihaskasvu (6-12 toistoa)",
		"rest.goal.endurance":       "lihaskestävyys (13+ toistoa)",
		"rest.reason.strength":      "%s, tavoite %s: %d s lepo palauttaa kreatiinifosfaattivarastot raskaisiin sarjoihin.",
		"rest.reason.hypertrophy":   "%s, tavoite %s: %d s lepo tasapainottaa palautumisen ja metabolisen kuormituksen.",
		"rest.reason.endurance":     "%s, tavoite %s: %d s lepo pitää harjoituksen tiiviinä.",
		"rest.reason.compound":      "Moninivelliikkeet saavat %d s lisää.",
		"rest.reason.isometric":     "%s: lepää pidon verran (%d s), vähintään %d s.",
		"rest.reason.flexibility":   "%s: lyhyt %d s tauko venytysten välillä riittää.",
		"rest.reason.cardio":        "%s: %d s palautumista intervallien välillä, lämmittele ensin %d min.",
		"language.name.en":          "English",
		"language.name.fi":          "Suomi",
	},
}

// SupportedLanguages returns a list of all supported languages.
func SupportedLanguages() []Language {
	return []Language{English, Finnish}
}

// IsSupported checks if a language is supported.
func IsSupported(lang Language) bool {
	_, ok := translations[lang]
	return ok
}

// Parse returns the supported language matching s, or DefaultLanguage.
func Parse(s string) Language {
	if lang := Language(s); IsSupported(lang) {
		return lang
	}
	return DefaultLanguage
}

// Translate returns the translation for the given key in the specified language.
// If the key is not found, it falls back to the default language.
// If still not found, it returns the key itself.
func Translate(lang Language, key string) string {
	if langTranslations, ok := translations[lang]; ok {
		if translation, ok := langTranslations[key]; ok {
			return translation
		}
	}

	if lang != DefaultLanguage {
		if translation, ok := translations[DefaultLanguage][key]; ok {
			return translation
		}
	}

	return key
}

// Translatef translates key and formats the result with args.
func Translatef(lang Language, key string, args ...any) string {
	return fmt.Sprintf(Translate(lang, key), args...)
}
