package config

import "strings"

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.WorkDir,
		&c.Paths.LogDir,
		&c.Detector.ModelPath,
		&c.Detector.LibraryPath,
		&c.Fetch.CookiesFile,
	} {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Fetch.AudioFormat = strings.TrimSpace(c.Fetch.AudioFormat)
	if c.Fetch.AudioFormat == "" {
		c.Fetch.AudioFormat = defaultAudioFormat
	}
	return nil
}
