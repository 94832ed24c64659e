package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const (
	vendorName     = "jordanella"
	appName        = "autoclick"
	configFileName = "settings.yaml"
	iniSection     = "UserSettings"
	configEnvVar   = "AUTOCLICK_CONFIG"
)

var fs afero.Fs = afero.NewOsFs()

// Load reads, decodes and validates the settings file at path. Keys missing
// from the file keep their default values.
func Load(path string) (*Settings, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read from path %s", path)
	}

	settings := NewDefaultSettings()
	if err := unmarshal(path, data, settings); err != nil {
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, errors.Wrapf(err, "unable to validate %s", path)
	}

	return settings, nil
}

// LoadOrDefault behaves like Load but returns validated defaults when no
// file exists at path. The boolean reports whether a file was read.
func LoadOrDefault(path string) (*Settings, bool, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, false, errors.Wrapf(err, "unable to stat %s", path)
	}

	if !exists {
		settings := NewDefaultSettings()
		return settings, false, settings.Validate()
	}

	settings, err := Load(path)
	return settings, err == nil, err
}

// Resolve returns the settings file location: $AUTOCLICK_CONFIG when set,
// otherwise settings.yaml in the user config directory
func Resolve() (string, error) {
	configPath := os.Getenv(configEnvVar)
	if len(configPath) > 0 {
		return configPath, nil
	}

	configParentDir, err := userConfigDir()
	if err != nil {
		return "", errors.Wrapf(err, "unable to resolve %s location", configFileName)
	}

	return filepath.Join(
		configParentDir,
		vendorName,
		appName,
		configFileName), nil
}

// Save writes settings as YAML, INI or JSON depending on the extension
func Save(settings *Settings, path string) error {
	var (
		data []byte
		err  error
	)

	switch format(path) {
	case "yaml":
		data, err = yaml.Marshal(settings)
	case "ini":
		data, err = marshalINI(settings)
	case "json":
		data, err = json.MarshalIndent(settings, "", "  ")
	default:
		return errors.Errorf("unsupported settings format %q", filepath.Ext(path))
	}
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create settings directory")
		}
	}

	return afero.WriteFile(fs, path, data, 0644)
}

var readConfigFile = func(path string) ([]byte, error) {
	return afero.ReadFile(fs, path)
}

var userConfigDir = func() (string, error) {
	return os.UserConfigDir()
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".ini":
		return "ini"
	case ".json":
		return "json"
	default:
		return ""
	}
}

func unmarshal(path string, content []byte, settings *Settings) error {
	var err error

	switch format(path) {
	case "yaml":
		err = yaml.Unmarshal(content, settings)
	case "ini":
		err = unmarshalINI(content, settings)
	case "json":
		err = json.Unmarshal(content, settings)
	default:
		return errors.Errorf("unsupported settings format %q", filepath.Ext(path))
	}

	if err != nil {
		return errors.Errorf("parsing configuration error: %v", err)
	}
	return nil
}

// unmarshalINI reads the [UserSettings] section. Absent keys keep the value
// already held by settings.
func unmarshalINI(content []byte, settings *Settings) error {
	cfg, err := ini.Load(content)
	if err != nil {
		return err
	}

	section := cfg.Section(iniSection)

	// Matching
	settings.Tolerance = section.Key("tolerance").MustFloat64(settings.Tolerance)
	settings.IntervalMs = section.Key("interval_ms").MustInt(settings.IntervalMs)
	settings.MaxConsecutiveFailures = section.Key("max_consecutive_failures").MustInt(settings.MaxConsecutiveFailures)
	settings.TemplateSourcePath = section.Key("template_source_path").MustString(settings.TemplateSourcePath)
	settings.StartDelayMs = section.Key("start_delay_ms").MustInt(settings.StartDelayMs)

	// Backend
	settings.Backend = section.Key("backend").MustString(settings.Backend)
	settings.Display = section.Key("display").MustInt(settings.Display)
	settings.ADBPath = section.Key("adb_path").MustString(settings.ADBPath)
	settings.ADBDevice = section.Key("adb_device").MustString(settings.ADBDevice)

	// Control
	settings.StopKey = section.Key("stop_key").MustString(settings.StopKey)
	settings.LogLevel = section.Key("log_level").MustString(settings.LogLevel)
	settings.LogDir = section.Key("log_dir").MustString(settings.LogDir)
	settings.DryRun = section.Key("dry_run").MustBool(settings.DryRun)

	return nil
}

func marshalINI(settings *Settings) ([]byte, error) {
	cfg := ini.Empty()
	section := cfg.Section(iniSection)

	section.Key("tolerance").SetValue(fmt.Sprintf("%g", settings.Tolerance))
	section.Key("interval_ms").SetValue(fmt.Sprintf("%d", settings.IntervalMs))
	section.Key("max_consecutive_failures").SetValue(fmt.Sprintf("%d", settings.MaxConsecutiveFailures))
	section.Key("template_source_path").SetValue(settings.TemplateSourcePath)
	section.Key("start_delay_ms").SetValue(fmt.Sprintf("%d", settings.StartDelayMs))

	section.Key("backend").SetValue(settings.Backend)
	section.Key("display").SetValue(fmt.Sprintf("%d", settings.Display))
	section.Key("adb_path").SetValue(settings.ADBPath)
	section.Key("adb_device").SetValue(settings.ADBDevice)

	section.Key("stop_key").SetValue(settings.StopKey)
	section.Key("log_level").SetValue(settings.LogLevel)
	section.Key("log_dir").SetValue(settings.LogDir)
	section.Key("dry_run").SetValue(fmt.Sprintf("%t", settings.DryRun))

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
