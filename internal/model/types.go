package model

// RunConfig holds the parsed deployment options. Immutable after parsing.
type RunConfig struct {
	InstallRoot  string // directory holding app.py and strict_wrapper.py
	VenvDir      string // isolated runtime location (default <root>/.venv)
	ForceEnv     bool   // overwrite an existing env/.env
	SkipEnv      bool   // never touch env/.env
	ManageAlias  bool   // maintain the shell alias block
	SystemPython bool   // skip venv isolation, use the ambient interpreter
}

// ToolchainPaths collects resolved executables. Only Python is mandatory;
// an empty optional path means the tool was not found on this host.
type ToolchainPaths struct {
	Python  string // interpreter the wrapper will run under (venv or system)
	Pip     string // package installer belonging to Python
	Uvicorn string // proxy runner
	Claude  string // downstream CLI
}

// NodeKind classifies a clash node as a real egress or a meta-group.
type NodeKind int

const (
	NodeLeaf NodeKind = iota
	NodeSelector
	NodeURLTest
)

// ProxyNode is one member of the selector group with its latest measured
// round-trip delay. DelayMs of 0 means no usable measurement.
type ProxyNode struct {
	Name    string
	Kind    NodeKind
	DelayMs int
}

// ClashState is the transient result of proxy-controller detection.
// Only the URLs and the detected flag survive into the generated config.
type ClashState struct {
	Detected   bool
	ControlAPI string // e.g. http://127.0.0.1:9090
	ProxyAddr  string // e.g. http://127.0.0.1:7890
	Nodes      []ProxyNode
}

// SecretsBundle lives in process memory only. APIKeys must never be
// written to the generated config file; only their count may be logged.
type SecretsBundle struct {
	APIKeys       []string
	CandidateURLs []string
}

// RunState is the record accumulated stage to stage along the pipeline.
// Stages only append; nothing is communicated through process env vars.
type RunState struct {
	Config     RunConfig
	Settings   Settings
	PkgManager string // detected family name, "unknown" when none matched
	Tools      ToolchainPaths
	Clash      ClashState
	Secrets    SecretsBundle
}
