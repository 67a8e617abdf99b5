package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "provision.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettingsPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provision.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"control_ports: [19090]\nselector_names: [\"MyGroup\"]\n"), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, []int{19090}, s.ControlPorts)
	assert.Equal(t, []string{"MyGroup"}, s.SelectorNames)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultSettings().DataPorts, s.DataPorts)
	assert.Equal(t, DefaultSettings().RuntimePackages, s.RuntimePackages)
	assert.Equal(t, "hello", s.StatusMarker)
}

func TestLoadSettingsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provision.yaml")
	require.NoError(t, os.WriteFile(path, []byte("control_ports: [oops"), 0o644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}
