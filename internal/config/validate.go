package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Plugins.TimeoutMs <= 0 {
		return errors.New("plugins.timeout_ms must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Server.SessionIdleMinutes < 0 {
		return errors.New("server.session_idle_minutes must not be negative")
	}
	return nil
}

func (c *Config) validateCamera() error {
	if !c.Camera.Enabled {
		return nil
	}
	if c.Camera.FPS <= 0 || c.Camera.FPS > 60 {
		return fmt.Errorf("camera.fps must be between 1 and 60, got %d", c.Camera.FPS)
	}
	if c.Camera.DeviceID < 0 {
		return errors.New("camera.device_id must not be negative")
	}
	return nil
}

func (c *Config) validateRecognition() error {
	r := c.Recognition
	if r.HoldMs <= 0 {
		return errors.New("recognition.hold_ms must be positive")
	}
	if r.CooldownMs < 0 {
		return errors.New("recognition.cooldown_ms must not be negative")
	}
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return errors.New("recognition.min_confidence must be between 0 and 1")
	}
	if r.EmitConfidence < 0 || r.EmitConfidence > 1 {
		return errors.New("recognition.emit_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json; got %q", c.Logging.Format)
	}
	return nil
}
