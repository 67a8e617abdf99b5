// Package envfile reads operator secrets and writes the runtime config
// consumed by the proxy and its wrapper.
package envfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Aaroen/anyrouter-proxy/internal/model"
)

// ParseSecrets reads KEY=VALUE pairs from path. Only API_KEYS and
// CANDIDATE_URLS are recognized; everything else, including comment and
// blank lines, is ignored. A missing file yields an empty bundle, since
// secrets are optional at provision time.
func ParseSecrets(path string) (model.SecretsBundle, error) {
	var bundle model.SecretsBundle

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return bundle, nil
		}
		return bundle, fmt.Errorf("open secrets: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))
		switch key {
		case "API_KEYS":
			bundle.APIKeys = splitList(value)
		case "CANDIDATE_URLS":
			bundle.CandidateURLs = splitList(value)
		}
	}
	if err := sc.Err(); err != nil {
		return bundle, fmt.Errorf("read secrets: %w", err)
	}
	return bundle, nil
}

// unquote strips exactly one pair of matching single or double quotes.
// Mismatched or nested quoting is left untouched.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
