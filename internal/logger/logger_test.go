package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHelpersBeforeInit(t *testing.T) {
	if globalLogger != nil {
		t.Skip("logger already initialised")
	}
	Info("dropped", String("k", "v"))
	Sync()
}

func TestInitLogger_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wavpod.log")
	InitLogger(Config{Level: DebugLevel, OutputPath: path, MaxSize: 1})

	Debug("track opened", Int("index", 2), String("track", "bravo.wav"))
	Warn("open failed", ErrorField(errors.New("no such file")))
	Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d: %s", len(lines), raw)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "track opened" || rec["level"] != "debug" || rec["index"] != float64(2) {
		t.Errorf("unexpected record %v", rec)
	}
	if !strings.Contains(lines[1], `"error":"no such file"`) {
		t.Errorf("error field missing: %s", lines[1])
	}
}
