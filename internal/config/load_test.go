package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LoadSettingsTestSuite struct {
	suite.Suite
	fs                afero.Fs
	origFs            afero.Fs
	origUserConfigDir func() (string, error)
}

func (suite *LoadSettingsTestSuite) SetupTest() {
	suite.origFs = fs
	suite.origUserConfigDir = userConfigDir

	// use in memory FS in implementation for tests
	suite.fs = afero.NewMemMapFs()
	fs = suite.fs
	userConfigDir = func() (string, error) { return "/home/tester/.config", nil }
}

func (suite *LoadSettingsTestSuite) TearDownTest() {
	fs = suite.origFs
	userConfigDir = suite.origUserConfigDir
}

func (suite *LoadSettingsTestSuite) writeFile(path, content string) {
	require.NoError(suite.T(), afero.WriteFile(suite.fs, path, []byte(content), 0644))
}

func (suite *LoadSettingsTestSuite) TestLoadYAMLKeepsDefaultsForMissingKeys() {
	suite.writeFile("settings.yaml", `
tolerance: 0.9
interval_ms: 250
template_source_path: buttons
backend: ADB
log_level: debug
`)

	settings, err := Load("settings.yaml")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 0.9, settings.Tolerance)
	assert.Equal(suite.T(), 250, settings.IntervalMs)
	assert.Equal(suite.T(), "buttons", settings.TemplateSourcePath)
	assert.Equal(suite.T(), BackendADB, settings.Backend)
	assert.Equal(suite.T(), "DEBUG", settings.LogLevel)

	assert.Equal(suite.T(), 10, settings.MaxConsecutiveFailures)
	assert.Equal(suite.T(), 2000, settings.StartDelayMs)
	assert.Equal(suite.T(), "127.0.0.1:5555", settings.ADBDevice)
	assert.Equal(suite.T(), "c", settings.StopKey)
}

func (suite *LoadSettingsTestSuite) TestLoadINI() {
	suite.writeFile("Settings.ini", `
[UserSettings]
tolerance = 0.75
max_consecutive_failures = 3
template_source_path = C:\bot\images
adb_device = emulator-5554
dry_run = true
`)

	settings, err := Load("Settings.ini")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 0.75, settings.Tolerance)
	assert.Equal(suite.T(), 3, settings.MaxConsecutiveFailures)
	assert.Equal(suite.T(), `C:\bot\images`, settings.TemplateSourcePath)
	assert.Equal(suite.T(), "emulator-5554", settings.ADBDevice)
	assert.True(suite.T(), settings.DryRun)
	assert.Equal(suite.T(), 500, settings.IntervalMs)
}

func (suite *LoadSettingsTestSuite) TestLoadJSON() {
	suite.writeFile("settings.json", `{"tolerance": 1, "interval_ms": 0, "max_consecutive_failures": 0}`)

	settings, err := Load("settings.json")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 1.0, settings.Tolerance)
	assert.Equal(suite.T(), 0, settings.IntervalMs)
	assert.Equal(suite.T(), 0, settings.MaxConsecutiveFailures)
}

func (suite *LoadSettingsTestSuite) TestLoadRejectsInvalidValues() {
	tests := []struct {
		name    string
		content string
	}{
		{"tolerance above one", "tolerance: 1.5"},
		{"negative tolerance", "tolerance: -0.1"},
		{"negative interval", "interval_ms: -1"},
		{"negative failures", "max_consecutive_failures: -2"},
		{"unknown backend", "backend: vnc"},
		{"empty template path", `template_source_path: ""`},
		{"long stop key", "stop_key: quit"},
		{"unknown log level", "log_level: chatty"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.writeFile("bad.yaml", tt.content)

			_, err := Load("bad.yaml")
			require.Error(suite.T(), err)
			assert.Equal(suite.T(), ErrInvalidSettings, errors.Cause(err))
		})
	}
}

func (suite *LoadSettingsTestSuite) TestLoadParseError() {
	suite.writeFile("broken.yaml", "tolerance: [")

	_, err := Load("broken.yaml")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "parsing configuration error")
}

func (suite *LoadSettingsTestSuite) TestLoadUnsupportedExtension() {
	suite.writeFile("settings.toml", "tolerance = 0.5")

	_, err := Load("settings.toml")
	assert.Error(suite.T(), err)
}

func (suite *LoadSettingsTestSuite) TestLoadMissingFile() {
	_, err := Load("missing.yaml")
	assert.Error(suite.T(), err)
}

func (suite *LoadSettingsTestSuite) TestLoadOrDefault() {
	settings, found, err := LoadOrDefault("missing.yaml")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), found)
	assert.Equal(suite.T(), NewDefaultSettings(), settings)

	suite.writeFile("present.yaml", "interval_ms: 100")
	settings, found, err = LoadOrDefault("present.yaml")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), found)
	assert.Equal(suite.T(), 100, settings.IntervalMs)
}

func (suite *LoadSettingsTestSuite) TestSaveRoundTrip() {
	original := NewDefaultSettings()
	original.Tolerance = 0.6
	original.Backend = BackendWin32
	original.LogDir = "logs"

	for _, path := range []string{"out/settings.yaml", "out/Settings.ini", "out/settings.json"} {
		suite.Run(path, func() {
			require.NoError(suite.T(), Save(original, path))

			loaded, err := Load(path)
			require.NoError(suite.T(), err)
			assert.Equal(suite.T(), original, loaded)
		})
	}
}

func (suite *LoadSettingsTestSuite) TestResolveFromEnv() {
	existing, had := os.LookupEnv(configEnvVar)
	defer func() {
		if had {
			os.Setenv(configEnvVar, existing)
		} else {
			os.Unsetenv(configEnvVar)
		}
	}()

	require.NoError(suite.T(), os.Setenv(configEnvVar, "/tmp/custom.ini"))
	path, err := Resolve()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "/tmp/custom.ini", path)

	require.NoError(suite.T(), os.Unsetenv(configEnvVar))
	path, err = Resolve()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), filepath.Join("/home/tester/.config", "jordanella", "autoclick", "settings.yaml"), path)
}

func TestLoadSettingsTestSuite(t *testing.T) {
	suite.Run(t, new(LoadSettingsTestSuite))
}

func TestSettingsDurations(t *testing.T) {
	settings := NewDefaultSettings()
	assert.Equal(t, "500ms", settings.Interval().String())
	assert.Equal(t, "2s", settings.StartDelay().String())
}

func TestValidateDefaultSettings(t *testing.T) {
	settings := NewDefaultSettings()
	require.NoError(t, settings.Validate())

	settings.Tolerance = 1.5
	err := settings.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrInvalidSettings, errors.Cause(err))
}
