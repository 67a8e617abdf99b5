package provision

import (
	"os"
	"os/exec"
)

// runCommand executes an external tool synchronously and returns its
// combined output. Installs and venv creation have no timeout: a slow
// mirror is not a failure. Swappable for tests.
var runCommand = func(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	// Force non-interactive behavior: package managers must never stop to
	// ask questions in a one-shot provisioning run.
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")
	cmd.Stdin = nil
	return cmd.CombinedOutput()
}

// lookPath resolves a name on PATH. Swappable for tests.
var lookPath = exec.LookPath
