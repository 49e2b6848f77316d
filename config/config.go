// Package config loads the settings of the map viewer daemon
// from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/benoitkugler/svgmap/hit"
	"github.com/benoitkugler/svgmap/mapview"
	"github.com/benoitkugler/svgmap/pointer"
	"github.com/benoitkugler/svgmap/svgstyle"
	"github.com/benoitkugler/svgmap/viewport"
)

// ErrInvalid is wrapped by the errors of Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level configuration.
type Config struct {
	Viewport      viewport.Config    `yaml:"viewport"`
	Pointer       pointer.Config     `yaml:"pointer"`
	Hover         HoverConfig        `yaml:"hover"`
	Notifications NotificationConfig `yaml:"notifications"`
	Server        ServerConfig       `yaml:"server"`
}

// HoverConfig is the feedback on the hovered element.
type HoverConfig struct {
	Highlight svgstyle.StyleMap `yaml:"highlight"`
}

// NotificationConfig controls the toasts.
type NotificationConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// ServerConfig controls the HTTP daemon.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	LogLevel       string `yaml:"log_level"` // debug | info | warn | error
}

// Default returns the configuration used without file nor environment.
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

// Load reads the YAML file at path, if not empty, fills the missing
// values with their default, then applies the SVGMAP_* environment
// variables, a .env file in the working directory being loaded first.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	cfg.applyDefaults()

	_ = godotenv.Load() // the .env file is optional
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := viewport.DefaultConfig()
	if c.Viewport.ScaleMin <= 0 {
		c.Viewport.ScaleMin = def.ScaleMin
	}
	if c.Viewport.ScaleMax <= 0 {
		c.Viewport.ScaleMax = def.ScaleMax
	}
	if c.Viewport.ZoomInFactor == 0 {
		c.Viewport.ZoomInFactor = def.ZoomInFactor
	}
	if c.Viewport.ZoomOutFactor == 0 {
		c.Viewport.ZoomOutFactor = def.ZoomOutFactor
	}
	if c.Viewport.WheelInFactor == 0 {
		c.Viewport.WheelInFactor = def.WheelInFactor
	}
	if c.Viewport.WheelOutFactor == 0 {
		c.Viewport.WheelOutFactor = def.WheelOutFactor
	}
	if c.Pointer.DragThreshold == 0 {
		c.Pointer.DragThreshold = pointer.DefaultConfig().DragThreshold
	}
	if c.Pointer.ClickDuration == 0 {
		c.Pointer.ClickDuration = pointer.DefaultConfig().ClickDuration
	}
	if c.Hover.Highlight == nil {
		c.Hover.Highlight = hit.DefaultHighlight()
	}
	if c.Notifications.TTL <= 0 {
		c.Notifications.TTL = 3 * time.Second
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 10 << 20
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
}

// applyEnv overrides the values with the environment variables found
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"SVGMAP_SCALE_MIN", &c.Viewport.ScaleMin},
		{"SVGMAP_SCALE_MAX", &c.Viewport.ScaleMax},
		{"SVGMAP_DRAG_THRESHOLD", &c.Pointer.DragThreshold},
	}
	for _, f := range floats {
		if v, ok := lookup(f.key); ok {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = x
		}
	}
	if v, ok := lookup("SVGMAP_CLICK_DURATION"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SVGMAP_CLICK_DURATION: %w", err)
		}
		c.Pointer.ClickDuration = d
	}
	if v, ok := lookup("SVGMAP_NOTIFICATION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SVGMAP_NOTIFICATION_TTL: %w", err)
		}
		c.Notifications.TTL = d
	}
	if v, ok := lookup("SVGMAP_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := lookup("SVGMAP_MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SVGMAP_MAX_UPLOAD_BYTES: %w", err)
		}
		c.Server.MaxUploadBytes = n
	}
	if v, ok := lookup("SVGMAP_LOG_LEVEL"); ok {
		c.Server.LogLevel = v
	}
	return nil
}

// Validate checks the consistency of the values.
func (c *Config) Validate() error {
	v := c.Viewport
	switch {
	case v.ScaleMin <= 0 || v.ScaleMax <= 0:
		return fmt.Errorf("%w: scale bounds must be positive", ErrInvalid)
	case v.ScaleMin > v.ScaleMax:
		return fmt.Errorf("%w: scale_min %g above scale_max %g", ErrInvalid, v.ScaleMin, v.ScaleMax)
	case v.ScaleMin > 1 || v.ScaleMax < 1:
		return fmt.Errorf("%w: the scale range must contain 1", ErrInvalid)
	case v.ZoomInFactor <= 1 || v.WheelInFactor <= 1:
		return fmt.Errorf("%w: zoom in factors must be above 1", ErrInvalid)
	case v.ZoomOutFactor <= 0 || v.ZoomOutFactor >= 1 || v.WheelOutFactor <= 0 || v.WheelOutFactor >= 1:
		return fmt.Errorf("%w: zoom out factors must be in (0, 1)", ErrInvalid)
	case c.Pointer.DragThreshold < 0:
		return fmt.Errorf("%w: negative drag_threshold", ErrInvalid)
	case c.Pointer.ClickDuration < 0:
		return fmt.Errorf("%w: negative click_duration", ErrInvalid)
	case c.Notifications.TTL <= 0:
		return fmt.Errorf("%w: notification ttl must be positive", ErrInvalid)
	case c.Server.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalid)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	return nil
}

// Level parses Server.LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.Server.LogLevel))
	return l, err
}

// SessionOptions returns the options of the viewer sessions.
func (c *Config) SessionOptions(logger *slog.Logger) mapview.Options {
	return mapview.Options{
		Viewport:        c.Viewport,
		Pointer:         c.Pointer,
		Highlight:       c.Hover.Highlight.Clone(),
		NotificationTTL: c.Notifications.TTL,
		MaxUploadBytes:  c.Server.MaxUploadBytes,
		Logger:          logger,
	}
}
