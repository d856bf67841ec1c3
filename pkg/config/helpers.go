package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/wabbaget/pkg/errors"
)

// SetValue sets a configuration value by key.
// Supported keys are the yaml names of Settings plus hooks.pre_download
// and hooks.post_download.
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "download_dir":
		c.Settings.DownloadDir = value
	case "session_dir":
		c.Settings.SessionDir = value
	case "game_ids_file":
		c.Settings.GameIDsFile = value
	case "user_agent":
		c.Settings.UserAgent = value
	case "resolver_endpoint":
		c.Settings.ResolverEndpoint = value
	case "min_wabbajack_version":
		c.Settings.MinWabbajackVersion = value
	case "output_format":
		c.Settings.OutputFormat = value
	case "log_level":
		c.Settings.LogLevel = value
	case "hooks.pre_download":
		c.Hooks.PreDownload = value
	case "hooks.post_download":
		c.Hooks.PostDownload = value
	case "existing_policy":
		policy, err := ParseExistingPolicy(value)
		if err != nil {
			return err
		}
		c.Settings.ExistingPolicy = policy
	case "http_timeout", "retry_delay":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		if key == "http_timeout" {
			c.Settings.HTTPTimeout = d
		} else {
			c.Settings.RetryDelay = d
		}
	case "max_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		c.Settings.MaxAttempts = n
	case "bandwidth_limit":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		c.Settings.BandwidthLimit = n
	case "resolver_rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number value for %s: %s", key, value)
		}
		c.Settings.ResolverRate = f
	default:
		return errors.Wrapf(errors.ErrUnknownConfigKey, "%s", key)
	}
	return nil
}

// GetValue returns a configuration value by key as a string.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "hooks.pre_download":
		return c.Hooks.PreDownload, nil
	case "hooks.post_download":
		return c.Hooks.PostDownload, nil
	}
	if v, ok := c.ToMap()[key]; ok {
		return v, nil
	}
	return "", errors.Wrapf(errors.ErrUnknownConfigKey, "%s", key)
}

// ToMap flattens the settings into yaml key / string value pairs.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// Handle yaml tags with options (e.g., "session_dir,omitempty")
		yamlKey := strings.Split(yamlTag, ",")[0]

		fieldValue := settingsValue.Field(i)
		var strValue string

		switch v := fieldValue.Interface().(type) {
		case time.Duration:
			strValue = v.String()
		case fmt.Stringer:
			strValue = v.String()
		default:
			switch fieldValue.Kind() {
			case reflect.Bool:
				strValue = strconv.FormatBool(fieldValue.Bool())
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				strValue = strconv.FormatInt(fieldValue.Int(), 10)
			case reflect.Float32, reflect.Float64:
				strValue = strconv.FormatFloat(fieldValue.Float(), 'f', -1, 64)
			case reflect.String:
				strValue = fieldValue.String()
			default:
				strValue = fmt.Sprintf("%v", fieldValue.Interface())
			}
		}

		result[yamlKey] = strValue
	}

	result["hooks.pre_download"] = c.Hooks.PreDownload
	result["hooks.post_download"] = c.Hooks.PostDownload

	return result
}
