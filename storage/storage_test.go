package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestGetBaseDirXDG(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG_DATA_HOME only applies on Unix-like systems")
	}
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	Init("truchines-test")
	defer Init("truchines")

	base, err := GetBaseDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "truchines-test"); base != want {
		t.Errorf("GetBaseDir = %s, want %s", base, want)
	}

	if err := EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, sub := range []string{savesDir, screenshotDir} {
		if fi, err := os.Stat(filepath.Join(base, sub)); err != nil || !fi.IsDir() {
			t.Errorf("%s not created: %v", sub, err)
		}
	}

	saveDir, err := GetGameSaveDir("0badf00d")
	if err != nil || saveDir != filepath.Join(base, savesDir, "0badf00d") {
		t.Errorf("GetGameSaveDir = %s, %v", saveDir, err)
	}
}

func TestGameID(t *testing.T) {
	if got := GameID([]byte("hello")); got != "3610a686" {
		t.Errorf("GameID = %s, want 3610a686", got)
	}
	if got := GameID(nil); got != "00000000" {
		t.Errorf("GameID(nil) = %s", got)
	}
}

func TestAtomicWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.json")
	data := map[string]int{"frames": 60}

	if err := AtomicWriteJSON(path, data); err != nil {
		t.Fatalf("AtomicWriteJSON failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("temp file left behind")
	}

	var got map[string]int
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got["frames"] != 60 {
		t.Errorf("got %v", got)
	}
}

func TestReadJSONErrors(t *testing.T) {
	dir := t.TempDir()
	var v map[string]any
	if err := ReadJSON(filepath.Join(dir, "missing.json"), &v); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if err := ReadJSON(bad, &v); err == nil {
		t.Error("expected parse error")
	}
}

func TestFileKV(t *testing.T) {
	kv := NewFileKV(filepath.Join(t.TempDir(), "saves", "game"))

	if _, ok, err := kv.Get("nes_save_state"); ok || err != nil {
		t.Fatalf("Get on empty store = %v, %v", ok, err)
	}
	if err := kv.Set("nes_save_state", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set("nes_save_state", []byte{4, 5}); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, ok, err := kv.Get("nes_save_state")
	if err != nil || !ok || string(got) != string([]byte{4, 5}) {
		t.Fatalf("Get = %v, %v, %v", got, ok, err)
	}
	if _, err := os.Stat(filepath.Join(kv.Dir(), "nes_save_state.state")); err != nil {
		t.Errorf("state file missing: %v", err)
	}

}

func TestFileKVInvalidKeys(t *testing.T) {
	kv := NewFileKV(t.TempDir())
	for _, key := range []string{"", ".", "..", "../escape", `a\b`, "c:d"} {
		if err := kv.Set(key, nil); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Set(%q) = %v, want ErrInvalidKey", key, err)
		}
		if _, _, err := kv.Get(key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Get(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestNextSpeed(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.5, 1.0},
		{1.0, 1.5},
		{1.5, 2.0},
		{2.0, 0.5},
		{3.0, 1.0},
	}
	for _, tt := range tests {
		if got := NextSpeed(tt.in); got != tt.want {
			t.Errorf("NextSpeed(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfigFile(filepath.Join(dir, "absent.json"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.Speed != 1.0 || cfg.Audio.Volume != 0.5 {
		t.Errorf("missing file did not yield defaults: %+v", cfg)
	}

	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{"speed": 2, "audio": {"volume": 0}}`), 0644)
	cfg, err = loadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Speed != 2 {
		t.Errorf("speed = %v, want 2", cfg.Speed)
	}
	if cfg.Audio.Volume != 0 {
		t.Errorf("explicit zero volume replaced with %v", cfg.Audio.Volume)
	}
	if cfg.Pacing.MaxDeltaMS != 100 || cfg.Window.Width != 768 {
		t.Errorf("absent fields not defaulted: %+v", cfg)
	}

	os.WriteFile(path, []byte(`{broken`), 0644)
	if _, err := loadConfigFile(path); err == nil {
		t.Error("expected error for corrupt config")
	}
}

func TestSaveLoadConfig(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG_DATA_HOME only applies on Unix-like systems")
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Speed = 1.5
	cfg.Input.Keyboard = map[string]string{"A": "J"}
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, problems := LoadValidConfig()
	if len(problems) != 0 {
		t.Errorf("unexpected problems: %v", problems)
	}
	if got.Speed != 1.5 || got.Input.Keyboard["A"] != "J" {
		t.Errorf("round trip lost settings: %+v", got)
	}
}
