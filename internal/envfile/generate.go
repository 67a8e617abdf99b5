package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Aaroen/anyrouter-proxy/internal/model"
)

const (
	defaultCandidateURL = "https://anyrouter.top"
	defaultControlAPI   = "http://127.0.0.1:9090"
	defaultProxyAddr    = "http://127.0.0.1:7890"

	systemPromptReplacement = "You are Claude Code, Anthropic's official CLI for Claude."
)

// EnvPath returns the config location under the install root.
func EnvPath(root string) string {
	return filepath.Join(root, "env", ".env")
}

// Generate writes the runtime config. Generation is skipped when an env
// file already exists, unless ForceEnv is set, so operator edits survive
// re-provisioning. API keys are never written: the emitted API_KEYS is
// always empty and the proxy sources keys from its own secret store.
func Generate(state *model.RunState) (wrote bool, err error) {
	if state.Config.SkipEnv {
		return false, nil
	}
	path := EnvPath(state.Config.InstallRoot)
	if _, statErr := os.Stat(path); statErr == nil && !state.Config.ForceEnv {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create env dir: %w", err)
	}

	root, err := filepath.Abs(state.Config.InstallRoot)
	if err != nil {
		root = state.Config.InstallRoot
	}

	candidates := state.Secrets.CandidateURLs
	if len(candidates) == 0 {
		candidates = []string{defaultCandidateURL}
	}
	controlAPI := state.Clash.ControlAPI
	if controlAPI == "" {
		controlAPI = defaultControlAPI
	}
	proxyAddr := state.Clash.ProxyAddr
	if proxyAddr == "" {
		proxyAddr = defaultProxyAddr
	}

	// Key order is fixed so repeated runs produce byte-identical files.
	var b strings.Builder
	b.WriteString("# Generated by anyrouter-provision. Re-run with --force-env to regenerate.\n")
	writeKV := func(k, v string) { fmt.Fprintf(&b, "%s=%s\n", k, v) }
	writeKV("CANDIDATE_URLS", strings.Join(candidates, ","))
	writeKV("API_KEYS", "")
	writeKV("PROXY_DIR", root)
	writeKV("PYTHON_BIN", state.Tools.Python)
	writeKV("UVICORN_BIN", state.Tools.Uvicorn)
	writeKV("CLAUDE_BIN", state.Tools.Claude)
	writeKV("CLASH_API", controlAPI)
	writeKV("CLASH_PROXY_ADDR", proxyAddr)
	writeKV("ENABLE_CLASH_OPTIMIZATION", strconv.FormatBool(state.Clash.Detected))
	writeKV("SYSTEM_PROMPT_REPLACEMENT", systemPromptReplacement)

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return false, fmt.Errorf("write env file: %w", err)
	}
	// WriteFile honors umask; force owner-only regardless.
	if err := os.Chmod(path, 0o600); err != nil {
		return true, fmt.Errorf("restrict env file mode: %w", err)
	}
	return true, nil
}
