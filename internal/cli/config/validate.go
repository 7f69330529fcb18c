package config

import (
	"errors"
	"fmt"
	"os"
)

var validOutputs = map[string]bool{"auto": true, "text": true, "json": true, "yaml": true}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.BankDir == "" {
		errs = append(errs, errors.New("bank_dir is required"))
	}
	if c.OutputFormat != "" && !validOutputs[c.OutputFormat] {
		errs = append(errs, fmt.Errorf("output must be one of auto, text, json, yaml; got %q", c.OutputFormat))
	}
	if c.Brand.Hue < 0 || c.Brand.Hue > 360 {
		errs = append(errs, fmt.Errorf("brand.hue must be within [0, 360], got %v", c.Brand.Hue))
	}
	if c.Brand.Saturation < 0 || c.Brand.Saturation > 100 {
		errs = append(errs, fmt.Errorf("brand.saturation must be within [0, 100], got %v", c.Brand.Saturation))
	}
	if c.Brand.Brightness < 0 || c.Brand.Brightness > 100 {
		errs = append(errs, fmt.Errorf("brand.brightness must be within [0, 100], got %v", c.Brand.Brightness))
	}
	if c.UI != nil && (c.UI.Port < 0 || c.UI.Port > 65535) {
		errs = append(errs, fmt.Errorf("ui.port out of range: %d", c.UI.Port))
	}
	if c.Fetch != nil && c.Fetch.MaxBytes < 0 {
		errs = append(errs, errors.New("fetch.max_bytes must not be negative"))
	}
	return errors.Join(errs...)
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.BankDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("bank directory does not exist: %s\nHint: Create the directory or use --bank-dir to specify a different path", c.BankDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("bank path is not a directory: %s", c.BankDir)
	}
	return nil
}
