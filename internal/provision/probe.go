package provision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrToolNotFound is returned when a mandatory executable cannot be
// resolved. Only the Python interpreter is mandatory; optional tools
// degrade to an empty path.
var ErrToolNotFound = errors.New("required tool not found")

// PkgManager describes one supported package-manager family.
type PkgManager struct {
	Name        string   // family name reported in the run state
	Client      string   // executable whose presence identifies the family
	InstallArgs []string // non-interactive install argv prefix
	VenvPkg     string   // distro package providing python venv support
}

// Families in fixed priority order; the first client found on PATH wins.
var families = []PkgManager{
	{Name: "apt", Client: "apt-get", InstallArgs: []string{"apt-get", "install", "-y"}, VenvPkg: "python3-venv"},
	{Name: "dnf", Client: "dnf", InstallArgs: []string{"dnf", "install", "-y"}, VenvPkg: "python3"},
	{Name: "yum", Client: "yum", InstallArgs: []string{"yum", "install", "-y"}, VenvPkg: "python3"},
	{Name: "pacman", Client: "pacman", InstallArgs: []string{"pacman", "-S", "--noconfirm"}, VenvPkg: "python"},
	{Name: "zypper", Client: "zypper", InstallArgs: []string{"zypper", "--non-interactive", "install"}, VenvPkg: "python3"},
	{Name: "brew", Client: "brew", InstallArgs: []string{"brew", "install"}, VenvPkg: "python"},
}

// DetectPkgManager returns the first family whose client resolves, or nil
// when the host uses something we do not know ("unknown" family).
func DetectPkgManager() *PkgManager {
	for i := range families {
		if _, err := lookPath(families[i].Client); err == nil {
			return &families[i]
		}
	}
	return nil
}

// Common installation directories probed when PATH lookup fails. The
// npm-global entry covers the default claude CLI install location.
var fallbackDirs = []string{
	"/usr/local/bin",
	"/usr/bin",
	"/bin",
	"/opt/homebrew/bin",
	"~/.local/bin",
	"~/.npm-global/bin",
}

// FindTool resolves an executable via PATH, then via the fixed fallback
// directories. Returns ErrToolNotFound when nothing matches; the caller
// decides whether that is fatal.
func FindTool(name string) (string, error) {
	if p, err := lookPath(name); err == nil {
		return p, nil
	}
	home, _ := os.UserHomeDir()
	for _, dir := range fallbackDirs {
		if len(dir) > 1 && dir[0] == '~' {
			if home == "" {
				continue
			}
			dir = filepath.Join(home, dir[2:])
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
