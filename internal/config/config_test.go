package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/lessons
log = release

[settings]
age = 11
pro_mode = true
lesson_type = Game

[canvas]
width = 800
height = 600
color = blue
line_width = 8

[ai]
endpoint = http://localhost:8080/v1beta/
timeout = 30s
api_key_env = MY_KEY

[history]
backend = redis
limit = 10
redis_addr = cache:6379
redis_db = 2

[notify]
capture = true
save = false
copy = true
notice = true

[theme.my_custom_theme]
Background = #111111
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" || cfg.SaveDir != "/tmp/lessons" || cfg.Log != "release" {
		t.Errorf("root fields = %q %q %q", cfg.Theme, cfg.SaveDir, cfg.Log)
	}
	if cfg.Settings != (Settings{Age: 11, ProMode: true, LessonType: "game"}) {
		t.Errorf("settings = %+v", cfg.Settings)
	}
	if cfg.Canvas != (Canvas{Width: 800, Height: 600, Color: "blue", LineWidth: 8}) {
		t.Errorf("canvas = %+v", cfg.Canvas)
	}
	if cfg.AI.Endpoint != "http://localhost:8080/v1beta" {
		t.Errorf("endpoint = %q", cfg.AI.Endpoint)
	}
	if cfg.AI.Timeout != 30*time.Second || cfg.AI.APIKeyEnv != "MY_KEY" {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if cfg.AI.Model != DefaultModel {
		t.Errorf("model default lost: %q", cfg.AI.Model)
	}
	if cfg.History.Backend != "redis" || cfg.History.Limit != 10 || cfg.History.RedisAddr != "cache:6379" || cfg.History.RedisDB != 2 {
		t.Errorf("history = %+v", cfg.History)
	}
	if cfg.Notify != (Notify{Capture: true, Copy: true, Notice: true}) {
		t.Errorf("notify = %+v", cfg.Notify)
	}

	th, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if th.Background.R != 0x11 || th.Background.G != 0x11 || th.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", th.Background)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad bool", "[notify]\nsave = maybe\n"},
		{"bad age", "[settings]\nage = -3\n"},
		{"bad timeout", "[ai]\ntimeout = soon\n"},
		{"bad backend", "[history]\nbackend = sqlite\n"},
		{"bad width", "[canvas]\nline_width = 0\n"},
		{"bad theme colour", "[theme.x]\nBackground: red\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tc.input)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.Settings.Age != 8 || cfg.Settings.LessonType != "svg" {
		t.Errorf("settings defaults = %+v", cfg.Settings)
	}
	if cfg.Canvas.Width != 1280 || cfg.Canvas.Height != 720 || cfg.Canvas.LineWidth != 4 {
		t.Errorf("canvas defaults = %+v", cfg.Canvas)
	}
	if cfg.History.Limit != 50 || cfg.History.Backend != "file" {
		t.Errorf("history defaults = %+v", cfg.History)
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/lessons

[settings]
age = 14
lesson_type = interactive

[ai]
timeout = 45s

[notify]
capture = true
save = true
copy = false

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
CropShade = #00000066
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	if cfg.Theme != cfg2.Theme || cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("root mismatch: %q/%q vs %q/%q", cfg.Theme, cfg.SaveDir, cfg2.Theme, cfg2.SaveDir)
	}
	if cfg.Settings != cfg2.Settings || cfg.Canvas != cfg2.Canvas || cfg.AI != cfg2.AI {
		t.Errorf("section mismatch: %+v vs %+v", cfg, cfg2)
	}
	if cfg.History != cfg2.History || cfg.Notify != cfg2.Notify {
		t.Errorf("history/notify mismatch: %+v %+v vs %+v %+v", cfg.History, cfg.Notify, cfg2.History, cfg2.Notify)
	}

	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestLoaderOverrideAndSave(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "nested", "config.rc")
	l := NewLoader("v1", path)

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	cfg.Settings.Age = 12
	written, err := l.Save(cfg)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if written != path {
		t.Fatalf("saved to %q, want %q", written, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Settings.Age != 12 {
		t.Fatalf("age = %d, want 12", got.Settings.Age)
	}
}
