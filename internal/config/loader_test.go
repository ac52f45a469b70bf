package config

import (
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
providers:
  stt:
    name: deepgram
    api_key: dg-key
  translate:
    name: openai
    api_key: sk-key
    model: gpt-4o-mini
  tts:
    name: elevenlabs
    api_key: el-key
session:
  source_language: en
  target_language: es
  translate_timeout: 30s
  voice_id: voice-1
storage:
  postgres_dsn: "postgres://localhost/linguafluent"
identity:
  user_id: user-1
  display_name: Ada
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Providers.Translate.Name != "openai" {
		t.Errorf("translate provider = %q", cfg.Providers.Translate.Name)
	}
	if cfg.Session.SourceLanguage != "en" || cfg.Session.TargetLanguage != "es" {
		t.Errorf("language pair = %q/%q", cfg.Session.SourceLanguage, cfg.Session.TargetLanguage)
	}
	if cfg.Session.TranslateTimeout != 30*time.Second {
		t.Errorf("TranslateTimeout = %v, want 30s", cfg.Session.TranslateTimeout)
	}
	if cfg.Identity.UserID != "user-1" {
		t.Errorf("UserID = %q", cfg.Identity.UserID)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(validYAML + "\nbogus_key: true\n"))
	if err == nil {
		t.Fatal("unknown top-level field should fail strict decoding")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{LogLevel: "loud"},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		"server.log_level",
		"providers.translate.name is required",
		"session.source_language is required",
		"session.target_language is required",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidate_SamePairRejected(t *testing.T) {
	cfg := &Config{
		Providers: ProvidersConfig{Translate: ProviderEntry{Name: "openai"}},
		Session:   SessionConfig{SourceLanguage: "en", TargetLanguage: "en"},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "pair must differ") {
		t.Fatalf("err = %v, want identical-pair rejection", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
