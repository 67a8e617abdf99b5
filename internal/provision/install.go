package provision

import (
	"errors"
	"fmt"
	"os"
)

// ErrNoPrivilege means the process is unprivileged and no escalation
// mechanism is available. Package installation is best-effort, so callers
// warn and move on rather than aborting the run.
var ErrNoPrivilege = errors.New("no privilege for package installation")

// Swappable for tests.
var euid = os.Geteuid

// InstallPackages installs the named OS packages through the detected
// family, non-interactively. An unprivileged process tries `sudo -n`;
// if sudo is absent or a password would be required the install is
// reported as ErrNoPrivilege.
func InstallPackages(mgr *PkgManager, pkgs []string) error {
	if mgr == nil {
		return errors.New("no supported package manager detected")
	}
	if len(pkgs) == 0 {
		return nil
	}

	argv := append([]string{}, mgr.InstallArgs...)
	argv = append(argv, pkgs...)

	if euid() != 0 && mgr.Name != "brew" {
		if _, err := lookPath("sudo"); err != nil {
			return ErrNoPrivilege
		}
		// -n: fail instead of prompting; a provisioning run never blocks
		// on a password.
		argv = append([]string{"sudo", "-n"}, argv...)
	}

	out, err := runCommand(argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("%s install failed: %w: %s", mgr.Name, err, tail(out))
	}
	return nil
}

// tail keeps diagnostics short: the last chunk of output is where package
// managers put the actual error.
func tail(out []byte) string {
	const max = 300
	s := string(out)
	if len(s) > max {
		s = "..." + s[len(s)-max:]
	}
	return s
}
