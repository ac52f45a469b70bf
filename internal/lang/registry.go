// Package lang provides the static language pair registry: the set of
// languages the translation service supports, keyed by their short ISO 639-1
// code, with display names and the BCP-47 locale tags the speech engines
// expect.
//
// The registry is immutable after process start. Lookups for unknown codes
// fail open: the raw code is returned as both name and speech locale so that
// an unrecognised language degrades to pass-through rather than an error.
package lang

// Language describes one supported conversation language.
type Language struct {
	// Code is the short ISO 639-1 identifier (e.g., "en", "es").
	Code string

	// Name is the English display name (e.g., "English", "Spanish").
	Name string

	// SpeechLocale is the BCP-47 tag handed to the transcription and
	// synthesis engines (e.g., "en-US", "zh-CN").
	SpeechLocale string
}

// supported is the fixed language table. Order matters only for [All].
var supported = []Language{
	{Code: "en", Name: "English", SpeechLocale: "en-US"},
	{Code: "es", Name: "Spanish", SpeechLocale: "es-ES"},
	{Code: "fr", Name: "French", SpeechLocale: "fr-FR"},
	{Code: "de", Name: "German", SpeechLocale: "de-DE"},
	{Code: "it", Name: "Italian", SpeechLocale: "it-IT"},
	{Code: "pt", Name: "Portuguese", SpeechLocale: "pt-PT"},
	{Code: "ru", Name: "Russian", SpeechLocale: "ru-RU"},
	{Code: "ja", Name: "Japanese", SpeechLocale: "ja-JP"},
	{Code: "ko", Name: "Korean", SpeechLocale: "ko-KR"},
	{Code: "zh", Name: "Chinese", SpeechLocale: "zh-CN"},
}

var byCode = func() map[string]Language {
	m := make(map[string]Language, len(supported))
	for _, l := range supported {
		m[l.Code] = l
	}
	return m
}()

// Lookup resolves code to a [Language]. Unknown codes fail open: the result
// carries the raw code as Code, Name, and SpeechLocale, and ok is false.
func Lookup(code string) (l Language, ok bool) {
	if l, ok = byCode[code]; ok {
		return l, true
	}
	return Language{Code: code, Name: code, SpeechLocale: code}, false
}

// DisplayName returns the display name for code, or the raw code when the
// language is not in the registry.
func DisplayName(code string) string {
	l, _ := Lookup(code)
	return l.Name
}

// SpeechLocale returns the BCP-47 speech-engine tag for code, or the raw
// code when the language is not in the registry.
func SpeechLocale(code string) string {
	l, _ := Lookup(code)
	return l.SpeechLocale
}

// IsSupported reports whether code is in the registry.
func IsSupported(code string) bool {
	_, ok := byCode[code]
	return ok
}

// All returns a copy of the full language table in registry order.
func All() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}
