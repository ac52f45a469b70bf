package elevenlabs

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") should return an error")
	}
}

func TestBuildURLForVoice(t *testing.T) {
	got := buildURLForVoice("voice-123", "eleven_flash_v2_5")
	want := "wss://api.elevenlabs.io/v1/text-to-speech/voice-123/stream-input?model_id=eleven_flash_v2_5"
	if got != want {
		t.Errorf("buildURLForVoice = %q, want %q", got, want)
	}
}

func TestBuildWSMessage(t *testing.T) {
	b, err := buildWSMessage("hola", &voiceSettings{Stability: 0.5, SimilarityBoost: 0.75})
	if err != nil {
		t.Fatalf("buildWSMessage: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded["text"] != "hola" {
		t.Errorf("text = %v, want %q", decoded["text"], "hola")
	}
	if _, ok := decoded["voice_settings"]; !ok {
		t.Error("voice_settings missing from payload")
	}
}

func TestBuildWSMessage_FlushOmitsVoiceSettings(t *testing.T) {
	b, err := buildWSMessage("", nil)
	if err != nil {
		t.Fatalf("buildWSMessage: %v", err)
	}
	if strings.Contains(string(b), "voice_settings") {
		t.Errorf("flush payload %s should omit voice_settings", b)
	}
}
