package config

import (
	"errors"
	"strconv"
	"strings"
)

// EnvPrefix starts every environment variable the loader reads.
const EnvPrefix = "XIFRONT_"

// envSetters maps environment variables to the setting they override.
var envSetters = map[string]struct {
	field string
	set   func(c *Config, v string) error
}{
	EnvPrefix + "BACKEND": {"backend.command", func(c *Config, v string) error {
		c.Backend.Command = v
		return nil
	}},
	EnvPrefix + "BACKEND_ARGS": {"backend.args", func(c *Config, v string) error {
		c.Backend.Args = strings.Fields(v)
		return nil
	}},
	EnvPrefix + "DOCUMENT": {"document", func(c *Config, v string) error {
		c.Document = v
		return nil
	}},
	EnvPrefix + "QUEUE_CAPACITY": {"queue.capacity", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Queue.Capacity = n
		return err
	}},
	EnvPrefix + "LOG_LEVEL": {"logging.level", func(c *Config, v string) error {
		c.Logging.Level = strings.ToLower(v)
		return nil
	}},
	EnvPrefix + "LOG_FILE": {"logging.file", func(c *Config, v string) error {
		c.Logging.File = v
		return nil
	}},
	EnvPrefix + "LOG_TRAFFIC": {"logging.traffic", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.Logging.Traffic = b
		return err
	}},
	EnvPrefix + "SCRIPT": {"script.path", func(c *Config, v string) error {
		c.Script.Path = v
		return nil
	}},
}

// applyEnv overrides settings from the environment.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	for name, s := range envSetters {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := s.set(cfg, strings.TrimSpace(v)); err != nil {
			errs = append(errs, invalid(s.field, name, "%q: %v", v, err))
		}
	}
	return errors.Join(errs...)
}
