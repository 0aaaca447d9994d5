package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateDetector() error {
	if c.Detector.ModelPath == "" {
		return errors.New("detector.model_path must be set")
	}
	if c.Detector.SampleRate <= 0 {
		return fmt.Errorf("detector.sample_rate must be positive, got %d", c.Detector.SampleRate)
	}
	if c.Detector.BatchSize < c.Detector.SampleRate {
		return fmt.Errorf("detector.batch_size must be at least one second of samples (%d), got %d",
			c.Detector.SampleRate, c.Detector.BatchSize)
	}
	if c.Detector.Precision <= 0 {
		return fmt.Errorf("detector.precision must be positive, got %d", c.Detector.Precision)
	}
	if c.Detector.Threshold < 0 || c.Detector.Threshold > 100 {
		return fmt.Errorf("detector.threshold must be between 0 and 100, got %d", c.Detector.Threshold)
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.ConcurrentFragments < 0 {
		return errors.New("fetch.concurrent_fragments must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
