package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/dealancer/validate.v2"
)

// Backend names accepted by the backend setting
const (
	BackendDesktop = "desktop"
	BackendADB     = "adb"
	BackendWin32   = "win32"
)

// ErrInvalidSettings is the cause of every validation failure
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds everything a run needs. Field order matches the order keys
// are written by Save.
type Settings struct {
	Tolerance              float64 `yaml:"tolerance" json:"tolerance" ini:"tolerance" validate:"gte=0 & lte=1"`
	IntervalMs             int     `yaml:"interval_ms" json:"interval_ms" ini:"interval_ms" validate:"gte=0"`
	MaxConsecutiveFailures int     `yaml:"max_consecutive_failures" json:"max_consecutive_failures" ini:"max_consecutive_failures" validate:"gte=0"`
	TemplateSourcePath     string  `yaml:"template_source_path" json:"template_source_path" ini:"template_source_path" validate:"empty=false"`
	StartDelayMs           int     `yaml:"start_delay_ms" json:"start_delay_ms" ini:"start_delay_ms" validate:"gte=0"`

	Backend   string `yaml:"backend" json:"backend" ini:"backend" validate:"one_of=desktop,adb,win32"`
	Display   int    `yaml:"display" json:"display" ini:"display" validate:"gte=0"`
	ADBPath   string `yaml:"adb_path" json:"adb_path" ini:"adb_path"`
	ADBDevice string `yaml:"adb_device" json:"adb_device" ini:"adb_device"`

	StopKey  string `yaml:"stop_key" json:"stop_key" ini:"stop_key"`
	LogLevel string `yaml:"log_level" json:"log_level" ini:"log_level" validate:"one_of=DEBUG,INFO,WARN,ERROR"`
	LogDir   string `yaml:"log_dir" json:"log_dir" ini:"log_dir"`
	DryRun   bool   `yaml:"dry_run" json:"dry_run" ini:"dry_run"`
}

// NewDefaultSettings creates settings with default values
func NewDefaultSettings() *Settings {
	return &Settings{
		Tolerance:              0.85,
		IntervalMs:             500,
		MaxConsecutiveFailures: 10,
		TemplateSourcePath:     "images",
		StartDelayMs:           2000,
		Backend:                BackendDesktop,
		Display:                0,
		ADBPath:                "",
		ADBDevice:              "127.0.0.1:5555",
		StopKey:                "c",
		LogLevel:               "INFO",
	}
}

// rules carries the Settings tags without its methods. validate.v2 calls a
// Validate method on the value it is given, which would recurse into ours.
type rules Settings

// Validate normalises case-insensitive fields and checks every constraint
func (s *Settings) Validate() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	s.LogLevel = strings.ToUpper(strings.TrimSpace(s.LogLevel))
	s.TemplateSourcePath = strings.TrimSpace(s.TemplateSourcePath)

	if err := validate.Validate((*rules)(s)); err != nil {
		return errors.Wrap(ErrInvalidSettings, err.Error())
	}

	if len([]rune(s.StopKey)) != 1 {
		return errors.Wrapf(ErrInvalidSettings, "stop_key must be a single character, got %q", s.StopKey)
	}

	if s.Backend == BackendADB && s.ADBDevice == "" {
		return errors.Wrap(ErrInvalidSettings, "adb_device is required for the adb backend")
	}

	return nil
}

// Interval returns the pause between ticks
func (s *Settings) Interval() time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

// StartDelay returns the wait before the first tick
func (s *Settings) StartDelay() time.Duration {
	return time.Duration(s.StartDelayMs) * time.Millisecond
}
