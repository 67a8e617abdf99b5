package provision

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Aaroen/anyrouter-proxy/internal/model"
	"github.com/Aaroen/anyrouter-proxy/internal/ui"
)

// ProvisionRuntime materializes the interpreter environment the proxy and
// wrapper run under and fills in the interpreter-side tool paths.
//
// Isolated mode (default): a venv at cfg.VenvDir, created once and reused
// on later runs. Creation gets exactly one retry, after a best-effort
// install of the distro's venv support package. The dependency manifest
// is installed and then smoke-imported; a runtime that cannot import its
// libraries aborts the run instead of limping on.
//
// System mode (--system-python): never touches the filesystem, resolves
// pip/uvicorn from the ambient PATH and only warns when optional tools
// are missing.
func ProvisionRuntime(cfg model.RunConfig, set model.Settings, systemPython string, mgr *PkgManager) (model.ToolchainPaths, error) {
	tools := model.ToolchainPaths{Python: systemPython}

	if cfg.SystemPython {
		if p, err := FindTool("pip3"); err == nil {
			tools.Pip = p
		} else {
			ui.Warnf("pip3 not found on PATH; dependency installs are up to you")
		}
		if p, err := FindTool("uvicorn"); err == nil {
			tools.Uvicorn = p
		} else {
			ui.Warnf("uvicorn not found on PATH; the proxy will not start until it is installed")
		}
		return tools, nil
	}

	if err := ensureVenv(systemPython, cfg.VenvDir, mgr); err != nil {
		return tools, err
	}

	bin := filepath.Join(cfg.VenvDir, "bin")
	tools.Python = filepath.Join(bin, "python")
	tools.Pip = filepath.Join(bin, "pip")
	tools.Uvicorn = filepath.Join(bin, "uvicorn")

	if out, err := runCommand(tools.Python, "-m", "pip", "install", "--upgrade", "pip"); err != nil {
		// An old pip still installs the manifest; not worth failing over.
		ui.Warnf("pip self-upgrade failed: %v: %s", err, tail(out))
	}

	ui.Infof("installing %d runtime packages", len(set.RuntimePackages))
	args := append([]string{"-m", "pip", "install"}, set.RuntimePackages...)
	if out, err := runCommand(tools.Python, args...); err != nil {
		return tools, fmt.Errorf("install runtime packages: %w: %s", err, tail(out))
	}

	if err := smokeTest(tools.Python, set.SmokeImports); err != nil {
		return tools, err
	}
	return tools, nil
}

// ensureVenv creates the venv unless a valid interpreter already exists
// there. One failure triggers one support-package install and one retry.
func ensureVenv(systemPython, dir string, mgr *PkgManager) error {
	if isExecutable(filepath.Join(dir, "bin", "python")) {
		ui.Dimf("venv already present at %s", dir)
		return nil
	}

	out, err := runCommand(systemPython, "-m", "venv", dir)
	if err == nil {
		return nil
	}
	ui.Warnf("venv creation failed, attempting to install venv support: %s", tail(out))

	if mgr != nil {
		if ierr := InstallPackages(mgr, []string{mgr.VenvPkg}); ierr != nil {
			ui.Warnf("venv support install: %v", ierr)
		}
	}
	if out, err = runCommand(systemPython, "-m", "venv", dir); err != nil {
		return fmt.Errorf("create venv at %s: %w: %s", dir, err, tail(out))
	}
	return nil
}

// smokeTest imports every required library in one interpreter invocation.
// A runtime that cannot import what the proxy needs is treated as broken.
func smokeTest(python string, imports []string) error {
	if len(imports) == 0 {
		return nil
	}
	stmt := "import " + strings.Join(imports, ", ")
	if out, err := runCommand(python, "-c", stmt); err != nil {
		return fmt.Errorf("runtime smoke test (%s): %w: %s", stmt, err, tail(out))
	}
	return nil
}
