package shellrc

import (
	"fmt"
	"os"
	"strings"
)

const (
	// BeginMarker and EndMarker bound the managed region. Everything
	// between them, inclusive, belongs to this tool and is rewritten on
	// every run.
	BeginMarker = "# >>> anyrouter-proxy >>>"
	EndMarker   = "# <<< anyrouter-proxy <<<"
)

// AliasBlock renders the managed region for the given interpreter and
// install root.
func AliasBlock(python, root string) string {
	var b strings.Builder
	b.WriteString(BeginMarker + "\n")
	fmt.Fprintf(&b, "alias ccp='%s %s/strict_wrapper.py'\n", python, root)
	b.WriteString(EndMarker + "\n")
	return b.String()
}

// ApplyBlock installs block into the rc file at path, replacing any
// previous managed region so repeated runs leave exactly one copy. The
// rest of the file is preserved byte for byte. A missing rc file is
// created.
func ApplyBlock(path, block string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read rc file: %w", err)
	}

	kept := stripRegion(string(content))
	if kept != "" && !strings.HasSuffix(kept, "\n") {
		kept += "\n"
	}
	out := kept + block

	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write rc file: %w", err)
	}
	return nil
}

// stripRegion drops every line from a begin marker through the next end
// marker, inclusive. An unterminated region swallows the rest of the
// file, which is the safe reading of a half-written block.
func stripRegion(content string) string {
	if content == "" {
		return ""
	}
	var out []string
	inRegion := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inRegion && trimmed == BeginMarker {
			inRegion = true
			continue
		}
		if inRegion {
			if trimmed == EndMarker {
				inRegion = false
			}
			continue
		}
		out = append(out, line)
	}
	joined := strings.Join(out, "\n")
	// Collapse the trailing blank run left behind by the removed region.
	return strings.TrimRight(joined, "\n") + newlineIf(joined)
}

func newlineIf(s string) string {
	if strings.TrimRight(s, "\n") == "" {
		return ""
	}
	return "\n"
}
