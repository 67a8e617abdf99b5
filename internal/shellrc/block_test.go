package shellrc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyBlockCreatesMissingFile(t *testing.T) {
	rc := filepath.Join(t.TempDir(), ".zshrc")

	require.NoError(t, ApplyBlock(rc, AliasBlock("/opt/venv/bin/python", "/opt/anyrouter")))

	data, err := os.ReadFile(rc)
	require.NoError(t, err)
	assert.Equal(t,
		BeginMarker+"\n"+
			"alias ccp='/opt/venv/bin/python /opt/anyrouter/strict_wrapper.py'\n"+
			EndMarker+"\n",
		string(data))
}

func TestApplyBlockTwiceLeavesExactlyOneRegion(t *testing.T) {
	rc := filepath.Join(t.TempDir(), ".zshrc")
	require.NoError(t, os.WriteFile(rc, []byte("export PATH=$PATH:/usr/local/bin\n"), 0o644))

	require.NoError(t, ApplyBlock(rc, AliasBlock("/old/python", "/old/root")))
	require.NoError(t, ApplyBlock(rc, AliasBlock("/new/python", "/new/root")))

	data, err := os.ReadFile(rc)
	require.NoError(t, err)
	content := string(data)

	assert.Equal(t, 1, strings.Count(content, BeginMarker))
	assert.Equal(t, 1, strings.Count(content, EndMarker))
	assert.NotContains(t, content, "/old/python", "second run's paths must win")
	assert.Contains(t, content, "alias ccp='/new/python /new/root/strict_wrapper.py'")
	assert.True(t, strings.HasPrefix(content, "export PATH=$PATH:/usr/local/bin\n"),
		"unmanaged content must be preserved")
}

func TestApplyBlockPreservesSurroundingLines(t *testing.T) {
	rc := filepath.Join(t.TempDir(), ".bashrc")
	orig := "# mine\nalias ll='ls -la'\n" +
		BeginMarker + "\nalias ccp='stale'\n" + EndMarker + "\n" +
		"export EDITOR=vim\n"
	require.NoError(t, os.WriteFile(rc, []byte(orig), 0o644))

	require.NoError(t, ApplyBlock(rc, AliasBlock("/p", "/r")))

	data, err := os.ReadFile(rc)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "alias ll='ls -la'")
	assert.Contains(t, content, "export EDITOR=vim")
	assert.NotContains(t, content, "stale")
	assert.Equal(t, 1, strings.Count(content, BeginMarker))
}

func TestDetectShell(t *testing.T) {
	assert.Equal(t, "bash", DetectShell("/bin/bash").Name())
	assert.Equal(t, "zsh", DetectShell("/usr/bin/zsh").Name())
	assert.Equal(t, "zsh", DetectShell("").Name())

	home := "/home/u"
	assert.Equal(t, filepath.Join(home, ".bashrc"), DetectShell("/bin/bash").RCFile(home))
	assert.Equal(t, filepath.Join(home, ".zshrc"), DetectShell("/bin/zsh").RCFile(home))
}
