package envfile

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aaroen/anyrouter-proxy/internal/model"
)

func testState(t *testing.T) *model.RunState {
	t.Helper()
	return &model.RunState{
		Config: model.RunConfig{InstallRoot: t.TempDir()},
		Tools: model.ToolchainPaths{
			Python:  "/opt/venv/bin/python",
			Uvicorn: "/opt/venv/bin/uvicorn",
			Claude:  "/usr/local/bin/claude",
		},
		Secrets: model.SecretsBundle{
			APIKeys:       []string{"sk-a", "sk-b"},
			CandidateURLs: []string{"https://one", "https://two"},
		},
		Clash: model.ClashState{
			Detected:   true,
			ControlAPI: "http://127.0.0.1:9090",
			ProxyAddr:  "http://127.0.0.1:7890",
		},
	}
}

func TestGenerateNeverPersistsAPIKeys(t *testing.T) {
	state := testState(t)

	wrote, err := Generate(state)
	require.NoError(t, err)
	require.True(t, wrote)

	data, err := os.ReadFile(EnvPath(state.Config.InstallRoot))
	require.NoError(t, err)
	content := string(data)

	assert.NotContains(t, content, "sk-a")
	assert.NotContains(t, content, "sk-b")
	assert.Contains(t, content, "API_KEYS=\n")
	assert.Contains(t, content, "CANDIDATE_URLS=https://one,https://two\n")
	assert.Contains(t, content, "ENABLE_CLASH_OPTIMIZATION=true\n")
	assert.Contains(t, content, "PYTHON_BIN=/opt/venv/bin/python\n")

	info, err := os.Stat(EnvPath(state.Config.InstallRoot))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGenerateSkipsExistingWithoutForce(t *testing.T) {
	state := testState(t)

	_, err := Generate(state)
	require.NoError(t, err)
	before, err := os.ReadFile(EnvPath(state.Config.InstallRoot))
	require.NoError(t, err)

	state.Clash.Detected = false
	wrote, err := Generate(state)
	require.NoError(t, err)
	assert.False(t, wrote)

	after, err := os.ReadFile(EnvPath(state.Config.InstallRoot))
	require.NoError(t, err)
	assert.Equal(t, before, after, "existing config must survive a re-run")
}

func TestGenerateForceOverwrites(t *testing.T) {
	state := testState(t)

	_, err := Generate(state)
	require.NoError(t, err)

	state.Config.ForceEnv = true
	state.Clash.Detected = false
	state.Clash.ControlAPI = ""
	wrote, err := Generate(state)
	require.NoError(t, err)
	require.True(t, wrote)

	data, err := os.ReadFile(EnvPath(state.Config.InstallRoot))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ENABLE_CLASH_OPTIMIZATION=false\n")
	assert.Contains(t, string(data), "CLASH_API=http://127.0.0.1:9090\n")
}

func TestGenerateSkipEnvTouchesNothing(t *testing.T) {
	state := testState(t)
	state.Config.SkipEnv = true

	wrote, err := Generate(state)
	require.NoError(t, err)
	assert.False(t, wrote)
	_, statErr := os.Stat(EnvPath(state.Config.InstallRoot))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateDefaultsWithoutClashOrSecrets(t *testing.T) {
	state := &model.RunState{
		Config: model.RunConfig{InstallRoot: t.TempDir()},
	}

	wrote, err := Generate(state)
	require.NoError(t, err)
	require.True(t, wrote)

	data, err := os.ReadFile(EnvPath(state.Config.InstallRoot))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "CANDIDATE_URLS=https://anyrouter.top\n")
	assert.Contains(t, content, "CLASH_API=http://127.0.0.1:9090\n")
	assert.Contains(t, content, "CLASH_PROXY_ADDR=http://127.0.0.1:7890\n")
	assert.Contains(t, content, "ENABLE_CLASH_OPTIMIZATION=false\n")
}
