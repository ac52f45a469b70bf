package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/linguafluent/linguafluent/internal/lang"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":       {"deepgram"},
	"translate": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq"},
	"tts":       {"elevenlabs"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation, warn for unknown provider names.
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("translate", cfg.Providers.Translate.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)

	if cfg.Providers.Translate.Name == "" {
		errs = append(errs, errors.New("providers.translate.name is required"))
	}

	// Session language pair
	if cfg.Session.SourceLanguage == "" {
		errs = append(errs, errors.New("session.source_language is required"))
	}
	if cfg.Session.TargetLanguage == "" {
		errs = append(errs, errors.New("session.target_language is required"))
	}
	if cfg.Session.SourceLanguage != "" && cfg.Session.SourceLanguage == cfg.Session.TargetLanguage {
		errs = append(errs, fmt.Errorf("session source and target language are both %q; the pair must differ", cfg.Session.SourceLanguage))
	}
	for _, code := range []string{cfg.Session.SourceLanguage, cfg.Session.TargetLanguage} {
		if code != "" && !lang.IsSupported(code) {
			slog.Warn("language code is not in the built-in registry; display names and speech locales fall back to the raw code",
				"code", code)
		}
	}
	if cfg.Session.TranslateTimeout < 0 {
		errs = append(errs, fmt.Errorf("session.translate_timeout %v is negative", cfg.Session.TranslateTimeout))
	}

	// Capture availability
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; voice capture will be unavailable and only typed input will work")
	}

	// Playback availability
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("no TTS provider configured; translations will be recorded but not spoken")
	}
	if cfg.Providers.TTS.Name != "" && cfg.Session.VoiceID == "" {
		slog.Warn("providers.tts is configured but session.voice_id is empty; synthesis requests may be rejected")
	}

	// Storage availability
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; sessions will not be persisted")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
