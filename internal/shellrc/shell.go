// Package shellrc manages the marker-bounded alias region inside the
// user's shell rc file.
package shellrc

import (
	"path/filepath"
	"strings"
)

// Shell defines the interface for shell-specific rc handling.
type Shell interface {
	RCFile(home string) string
	Name() string
}

// ZshShell implements Shell for Zsh.
type ZshShell struct{}

func (s *ZshShell) RCFile(home string) string {
	return filepath.Join(home, ".zshrc")
}

func (s *ZshShell) Name() string {
	return "zsh"
}

// BashShell implements Shell for Bash.
type BashShell struct{}

func (s *BashShell) RCFile(home string) string {
	return filepath.Join(home, ".bashrc")
}

func (s *BashShell) Name() string {
	return "bash"
}

// DetectShell attempts to identify the user's shell or defaults to Zsh.
func DetectShell(shellPath string) Shell {
	if strings.Contains(shellPath, "bash") {
		return &BashShell{}
	}
	// Default to Zsh, the macOS default.
	return &ZshShell{}
}
