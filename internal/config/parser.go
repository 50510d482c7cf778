package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/visionlearn/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := strings.TrimPrefix(currentSection, "theme.")
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value. Colour values contain neither.
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
			value = value[1 : len(value)-1]
		}

		var err error
		switch section := strings.ToLower(currentSection); {
		case currentTheme != nil:
			err = theme.SetField(currentTheme, key, value)
		case section == "":
			err = setRootField(cfg, key, value)
		case section == "settings":
			err = setSettingsField(&cfg.Settings, key, value)
		case section == "canvas":
			err = setCanvasField(&cfg.Canvas, key, value)
		case section == "ai":
			err = setAIField(&cfg.AI, key, value)
		case section == "history":
			err = setHistoryField(&cfg.History, key, value)
		case section == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch key {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	case "log":
		cfg.Log = value
	}
	return nil
}

func setSettingsField(s *Settings, key, value string) error {
	switch key {
	case "age":
		n, err := parsePositive(key, value)
		if err != nil {
			return err
		}
		s.Age = n
	case "pro_mode":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		s.ProMode = b
	case "lesson_type":
		s.LessonType = strings.ToLower(value)
	}
	return nil
}

func setCanvasField(c *Canvas, key, value string) error {
	switch key {
	case "width":
		n, err := parsePositive(key, value)
		if err != nil {
			return err
		}
		c.Width = n
	case "height":
		n, err := parsePositive(key, value)
		if err != nil {
			return err
		}
		c.Height = n
	case "color":
		c.Color = value
	case "line_width":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid line width %q", value)
		}
		c.LineWidth = f
	}
	return nil
}

func setAIField(a *AI, key, value string) error {
	switch key {
	case "endpoint":
		a.Endpoint = strings.TrimSuffix(value, "/")
	case "model":
		a.Model = value
	case "pro_model":
		a.ProModel = value
	case "image_model":
		a.ImageModel = value
	case "pro_image_model":
		a.ProImageModel = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for key %s: %w", key, err)
		}
		a.Timeout = d
	case "api_key_env":
		a.APIKeyEnv = value
	}
	return nil
}

func setHistoryField(h *History, key, value string) error {
	switch key {
	case "backend":
		v := strings.ToLower(value)
		if v != "file" && v != "redis" {
			return fmt.Errorf("unknown history backend %q", value)
		}
		h.Backend = v
	case "path":
		h.Path = value
	case "limit":
		n, err := parsePositive(key, value)
		if err != nil {
			return err
		}
		h.Limit = n
	case "redis_addr":
		h.RedisAddr = value
	case "redis_db":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid redis db %q", value)
		}
		h.RedisDB = n
	case "redis_key":
		h.RedisKey = value
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := parseBool(key, value)
	if err != nil {
		return err
	}
	switch key {
	case "capture":
		n.Capture = b
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	case "notice":
		n.Notice = b
	}
	return nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	return b, nil
}

func parsePositive(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid value for key %s: %q", key, value)
	}
	return n, nil
}
