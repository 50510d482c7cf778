package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/example/visionlearn/internal/theme"
)

// Settings holds learner preferences used when talking to the AI service.
type Settings struct {
	Age        int
	ProMode    bool
	LessonType string
}

// Canvas holds the logical canvas size and initial stroke.
type Canvas struct {
	Width     int
	Height    int
	Color     string
	LineWidth float64
}

// AI configures the Gemini client.
type AI struct {
	Endpoint      string
	Model         string
	ProModel      string
	ImageModel    string
	ProImageModel string
	Timeout       time.Duration
	APIKeyEnv     string
}

// History selects where generated lessons are kept.
type History struct {
	Backend   string
	Path      string
	Limit     int
	RedisAddr string
	RedisDB   int
	RedisKey  string
}

// Notify holds notification settings.
type Notify struct {
	Capture bool
	Save    bool
	Copy    bool
	Notice  bool
}

// Config holds the application configuration.
type Config struct {
	Theme    string
	SaveDir  string
	Log      string
	Settings Settings
	Canvas   Canvas
	AI       AI
	History  History
	Notify   Notify
	Themes   map[string]*theme.Theme
}

// Defaults used by New.
const (
	DefaultAge           = 8
	DefaultLessonType    = "svg"
	DefaultEndpoint      = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel         = "gemini-3-flash-preview"
	DefaultProModel      = "gemini-3-pro-preview"
	DefaultImageModel    = "gemini-2.5-flash-image"
	DefaultProImageModel = "gemini-3-pro-image-preview"
	DefaultAPIKeyEnv     = "GEMINI_API_KEY"
	DefaultHistoryLimit  = 50
	DefaultRedisKey      = "visionlearn:history"
)

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme: "", // Empty falls back to env and then the built in theme
		Settings: Settings{
			Age:        DefaultAge,
			LessonType: DefaultLessonType,
		},
		Canvas: Canvas{
			Width:     1280,
			Height:    720,
			Color:     "#EF4444",
			LineWidth: 4,
		},
		AI: AI{
			Endpoint:      DefaultEndpoint,
			Model:         DefaultModel,
			ProModel:      DefaultProModel,
			ImageModel:    DefaultImageModel,
			ProImageModel: DefaultProImageModel,
			Timeout:       2 * time.Minute,
			APIKeyEnv:     DefaultAPIKeyEnv,
		},
		History: History{
			Backend:   "file",
			Limit:     DefaultHistoryLimit,
			RedisAddr: "localhost:6379",
			RedisKey:  DefaultRedisKey,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// APIKey reads the Gemini key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.AI.APIKeyEnv)
}

// HistoryPath returns the file history location, defaulting to the user's
// config directory.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return defaultDataPath("history.json")
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	if c.Log != "" {
		fmt.Fprintf(&sb, "log = %s\n", c.Log)
	}
	sb.WriteString("\n")

	sb.WriteString("[settings]\n")
	fmt.Fprintf(&sb, "age = %d\n", c.Settings.Age)
	fmt.Fprintf(&sb, "pro_mode = %v\n", c.Settings.ProMode)
	fmt.Fprintf(&sb, "lesson_type = %s\n", c.Settings.LessonType)
	sb.WriteString("\n")

	sb.WriteString("[canvas]\n")
	fmt.Fprintf(&sb, "width = %d\n", c.Canvas.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.Canvas.Height)
	fmt.Fprintf(&sb, "color = %s\n", c.Canvas.Color)
	fmt.Fprintf(&sb, "line_width = %g\n", c.Canvas.LineWidth)
	sb.WriteString("\n")

	sb.WriteString("[ai]\n")
	fmt.Fprintf(&sb, "endpoint = %s\n", c.AI.Endpoint)
	fmt.Fprintf(&sb, "model = %s\n", c.AI.Model)
	fmt.Fprintf(&sb, "pro_model = %s\n", c.AI.ProModel)
	fmt.Fprintf(&sb, "image_model = %s\n", c.AI.ImageModel)
	fmt.Fprintf(&sb, "pro_image_model = %s\n", c.AI.ProImageModel)
	fmt.Fprintf(&sb, "timeout = %s\n", c.AI.Timeout)
	fmt.Fprintf(&sb, "api_key_env = %s\n", c.AI.APIKeyEnv)
	sb.WriteString("\n")

	sb.WriteString("[history]\n")
	fmt.Fprintf(&sb, "backend = %s\n", c.History.Backend)
	if c.History.Path != "" {
		fmt.Fprintf(&sb, "path = %s\n", c.History.Path)
	}
	fmt.Fprintf(&sb, "limit = %d\n", c.History.Limit)
	fmt.Fprintf(&sb, "redis_addr = %s\n", c.History.RedisAddr)
	fmt.Fprintf(&sb, "redis_db = %d\n", c.History.RedisDB)
	fmt.Fprintf(&sb, "redis_key = %s\n", c.History.RedisKey)
	sb.WriteString("\n")

	// Notify section
	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "capture = %v\n", c.Notify.Capture)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "notice = %v\n", c.Notify.Notice)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, theme.FormatColor(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
