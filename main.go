package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Aaroen/anyrouter-proxy/internal/clash"
	"github.com/Aaroen/anyrouter-proxy/internal/envfile"
	"github.com/Aaroen/anyrouter-proxy/internal/model"
	"github.com/Aaroen/anyrouter-proxy/internal/provision"
	"github.com/Aaroen/anyrouter-proxy/internal/shellrc"
	"github.com/Aaroen/anyrouter-proxy/internal/ui"
	"github.com/Aaroen/anyrouter-proxy/internal/verify"

	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "Aaroen",
		Repository: "anyrouter-proxy",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("👉 Download it from https://github.com/Aaroen/anyrouter-proxy/releases")
	} else if pflag.Lookup("update").Changed {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: anyrouter-provision [options]\n\n")
		fmt.Fprintf(os.Stderr, "anyrouter-provision prepares this host to run the anyrouter proxy and\n")
		fmt.Fprintf(os.Stderr, "its CLI wrapper: it probes the environment, builds an isolated Python\n")
		fmt.Fprintf(os.Stderr, "runtime, tunes a local clash controller to the fastest egress node,\n")
		fmt.Fprintf(os.Stderr, "writes env/.env and installs the ccp shell alias.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  anyrouter-provision                 # Provision the current directory\n")
		fmt.Fprintf(os.Stderr, "  anyrouter-provision -f              # Regenerate env/.env\n")
		fmt.Fprintf(os.Stderr, "  anyrouter-provision --system-python # Reuse the ambient interpreter\n")
		fmt.Fprintf(os.Stderr, "  anyrouter-provision --dir /opt/anyrouter --venv /opt/anyrouter/.venv\n")
	}

	forceEnvFlag := pflag.BoolP("force-env", "f", false, "Overwrite an existing env/.env")
	skipEnvFlag := pflag.Bool("skip-env", false, "Never generate or touch env/.env")
	noAliasFlag := pflag.Bool("no-alias", false, "Do not manage the ccp shell alias")
	systemPythonFlag := pflag.Bool("system-python", false, "Skip venv creation, use the system interpreter")
	venvFlag := pflag.String("venv", "", "Virtualenv location (default <dir>/.venv)")
	dirFlag := pflag.String("dir", ".", "Install root holding app.py and strict_wrapper.py")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for latest version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("anyrouter-provision version %s\n", model.Version)
		return
	}

	if *updateFlag {
		checkUpdate(model.Version)
		return
	}

	root, err := filepath.Abs(*dirFlag)
	if err != nil {
		ui.Failf("resolve install root: %v", err)
		os.Exit(1)
	}
	venvDir := *venvFlag
	if venvDir == "" {
		venvDir = filepath.Join(root, ".venv")
	}

	cfg := model.RunConfig{
		InstallRoot:  root,
		VenvDir:      venvDir,
		ForceEnv:     *forceEnvFlag,
		SkipEnv:      *skipEnvFlag,
		ManageAlias:  !*noAliasFlag,
		SystemPython: *systemPythonFlag,
	}

	if err := runPipeline(cfg); err != nil {
		ui.Failf("%v", err)
		// Carry the failing tool's status through when one exists.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

// runPipeline drives the stages in their fixed order. State flows only
// through the RunState record; stages append, never mutate earlier
// fields. Best-effort stages report through warnings and never return an
// error.
func runPipeline(cfg model.RunConfig) error {
	state := &model.RunState{Config: cfg}

	// Nothing is worth doing on a root that cannot run the proxy.
	ui.Stepf("[1/9] Checking install root %s", cfg.InstallRoot)
	if err := verify.CheckRequired(cfg.InstallRoot); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	set, err := model.LoadSettings(filepath.Join(cfg.InstallRoot, "provision.yaml"))
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	state.Settings = set

	ui.Stepf("[2/9] Probing environment")
	mgr := provision.DetectPkgManager()
	if mgr != nil {
		state.PkgManager = mgr.Name
		ui.Infof("package manager: %s", mgr.Name)
	} else {
		state.PkgManager = "unknown"
		ui.Warnf("no known package manager; system packages are up to you")
	}
	python, probeErr := provision.FindTool("python3")
	if claudePath, err := provision.FindTool("claude"); err == nil {
		state.Tools.Claude = claudePath
		ui.Dimf("claude: %s", claudePath)
	} else {
		ui.Warnf("claude CLI not found; the ccp alias will not work until it is installed")
	}

	ui.Stepf("[3/9] Installing system packages")
	if probeErr != nil {
		if mgr != nil {
			if err := provision.InstallPackages(mgr, []string{"python3"}); err != nil {
				ui.Warnf("install python3: %v", err)
			}
			python, probeErr = provision.FindTool("python3")
		}
		if probeErr != nil {
			return fmt.Errorf("probe: %w", probeErr)
		}
	} else {
		ui.Dimf("python3 present, nothing to install")
	}
	ui.Infof("python3: %s", python)

	ui.Stepf("[4/9] Provisioning runtime")
	tools, err := provision.ProvisionRuntime(cfg, set, python, mgr)
	if err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	tools.Claude = state.Tools.Claude
	state.Tools = tools
	ui.Successf("runtime ready (%s)", tools.Python)

	ui.Stepf("[5/9] Optimizing clash proxy")
	res := clash.New(set).Optimize()
	for _, w := range res.Warnings {
		ui.Warnf("%s", w)
	}
	state.Clash = res.State
	switch {
	case res.Switched:
		ui.Successf("switched %s: %s -> %s (%dms)", res.Selector, res.Previous, res.Best, res.BestDelay)
	case res.State.Detected && res.Best != "":
		ui.Infof("%s already on fastest node %s (%dms)", res.Selector, res.Best, res.BestDelay)
	case res.State.Detected:
		ui.Infof("controller at %s, no switch performed", res.State.ControlAPI)
	default:
		ui.Dimf("no controller detected, proxy optimization disabled")
	}

	ui.Stepf("[6/9] Loading secrets")
	secretsPath := filepath.Join(cfg.InstallRoot, ".secrets")
	if _, err := os.Stat(secretsPath); err != nil {
		ui.Warnf(".secrets not found; the proxy will start without API keys")
	}
	secrets, err := envfile.ParseSecrets(secretsPath)
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	state.Secrets = secrets
	// Counts only. Secret values never reach the terminal or the config.
	ui.Infof("%d API key(s), %d candidate URL(s)", len(secrets.APIKeys), len(secrets.CandidateURLs))

	ui.Stepf("[7/9] Generating config")
	wrote, err := envfile.Generate(state)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if wrote {
		ui.Successf("wrote %s", envfile.EnvPath(cfg.InstallRoot))
	} else {
		ui.Dimf("env/.env untouched")
	}
	if err := os.MkdirAll(filepath.Join(cfg.InstallRoot, "env"), 0o755); err != nil {
		return fmt.Errorf("config: create env dir: %w", err)
	}

	ui.Stepf("[8/9] Managing shell alias")
	if cfg.ManageAlias {
		shell := shellrc.DetectShell(os.Getenv("SHELL"))
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("alias: resolve home: %w", err)
		}
		rc := shell.RCFile(home)
		block := shellrc.AliasBlock(state.Tools.Python, cfg.InstallRoot)
		if err := shellrc.ApplyBlock(rc, block); err != nil {
			return fmt.Errorf("alias: %w", err)
		}
		ui.Successf("ccp alias installed in %s (%s)", rc, shell.Name())
	} else {
		ui.Dimf("alias management skipped")
	}

	ui.Stepf("[9/9] Verifying deployment")
	if err := verify.CheckRequired(cfg.InstallRoot); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	created, err := verify.EnsureOptional(cfg.InstallRoot)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	for _, rel := range created {
		ui.Warnf("%s was missing; wrote a minimal default", rel)
	}

	ui.Successf("provisioning complete, run the proxy with: ccp")
	return nil
}
