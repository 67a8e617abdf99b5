// Package verify checks that the install root carries the artifacts the
// provisioned service needs to start.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
)

// requiredArtifacts must exist before provisioning starts and still
// exist at the end of the run. They are shipped alongside the binary,
// never generated.
var requiredArtifacts = []string{"app.py", "strict_wrapper.py"}

// optionalArtifacts are synthesized with inert content when absent.
var optionalArtifacts = map[string]string{
	filepath.Join("env", ".env.headers.json"): "{}\n",
}

// CheckRequired fails on the first missing required artifact.
func CheckRequired(root string) error {
	for _, name := range requiredArtifacts {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("required artifact %s not found in %s", name, root)
		}
	}
	return nil
}

// EnsureOptional creates any missing optional artifact with its inert
// default and owner-only permissions. It returns the relative paths it
// created.
func EnsureOptional(root string) ([]string, error) {
	var created []string
	for rel, content := range optionalArtifacts {
		path := filepath.Join(root, rel)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return created, fmt.Errorf("create dir for %s: %w", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return created, fmt.Errorf("write %s: %w", rel, err)
		}
		created = append(created, rel)
	}
	return created, nil
}
