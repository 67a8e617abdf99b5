package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings are the injectable candidate lists the pipeline probes against.
// The compiled defaults cover a stock mihomo/clash install driving the
// anyrouter wrapper; dropping a provision.yaml next to the install root
// overrides any field without touching core logic.
type Settings struct {
	ControlPorts    []int    `yaml:"control_ports"`    // clash control API candidates, in order
	StatusMarker    string   `yaml:"status_marker"`    // substring identifying the control API status body
	DataPorts       []int    `yaml:"data_ports"`       // data-plane ingress candidates, in order
	SelectorNames   []string `yaml:"selector_names"`   // display names tried for the switchable group
	MetaGroupTypes  []string `yaml:"meta_group_types"` // node types excluded from latency ranking
	RuntimePackages []string `yaml:"runtime_packages"` // pip manifest for the isolated runtime
	SmokeImports    []string `yaml:"smoke_imports"`    // python modules the smoke test must import
}

// DefaultSettings matches the companion proxy's expectations: mihomo's
// control API answers on 9090 with a {"hello": ...} body, the mixed
// ingress sits on 7890, and the wrapper needs the FastAPI stack.
func DefaultSettings() Settings {
	return Settings{
		ControlPorts:    []int{9090, 9091, 9097},
		StatusMarker:    "hello",
		DataPorts:       []int{7890, 7891},
		SelectorNames:   []string{"Proxy", "GLOBAL", "节点选择"},
		MetaGroupTypes:  []string{"Selector", "URLTest", "Fallback", "LoadBalance"},
		RuntimePackages: []string{"fastapi", "uvicorn", "httpx", "python-dotenv", "requests"},
		SmokeImports:    []string{"fastapi", "uvicorn", "httpx", "dotenv", "requests"},
	}
}

// LoadSettings merges an optional provision.yaml over the defaults.
// A missing file is not an error; a malformed one is.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}
	var over Settings
	if err := yaml.Unmarshal(data, &over); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if len(over.ControlPorts) > 0 {
		s.ControlPorts = over.ControlPorts
	}
	if over.StatusMarker != "" {
		s.StatusMarker = over.StatusMarker
	}
	if len(over.DataPorts) > 0 {
		s.DataPorts = over.DataPorts
	}
	if len(over.SelectorNames) > 0 {
		s.SelectorNames = over.SelectorNames
	}
	if len(over.MetaGroupTypes) > 0 {
		s.MetaGroupTypes = over.MetaGroupTypes
	}
	if len(over.RuntimePackages) > 0 {
		s.RuntimePackages = over.RuntimePackages
	}
	if len(over.SmokeImports) > 0 {
		s.SmokeImports = over.SmokeImports
	}
	return s, nil
}
