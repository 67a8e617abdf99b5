package provision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubEuid(t *testing.T, id int) {
	t.Helper()
	orig := euid
	euid = func() int { return id }
	t.Cleanup(func() { euid = orig })
}

func TestInstallPackagesAsRoot(t *testing.T) {
	stubEuid(t, 0)
	stubLookPath(t, map[string]string{"apt-get": "/usr/bin/apt-get"})
	calls := stubRunCommand(t, func(string, ...string) ([]byte, error) { return nil, nil })

	mgr := DetectPkgManager()
	require.NoError(t, InstallPackages(mgr, []string{"python3-venv"}))

	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"apt-get", "install", "-y", "python3-venv"}, (*calls)[0])
}

func TestInstallPackagesUnprivilegedUsesSudo(t *testing.T) {
	stubEuid(t, 1000)
	stubLookPath(t, map[string]string{"apt-get": "/usr/bin/apt-get", "sudo": "/usr/bin/sudo"})
	calls := stubRunCommand(t, func(string, ...string) ([]byte, error) { return nil, nil })

	mgr := DetectPkgManager()
	require.NoError(t, InstallPackages(mgr, []string{"python3"}))

	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"sudo", "-n", "apt-get", "install", "-y", "python3"}, (*calls)[0])
}

func TestInstallPackagesUnprivilegedWithoutSudo(t *testing.T) {
	stubEuid(t, 1000)
	stubLookPath(t, map[string]string{"dnf": "/usr/bin/dnf"})
	calls := stubRunCommand(t, func(string, ...string) ([]byte, error) { return nil, nil })

	mgr := DetectPkgManager()
	err := InstallPackages(mgr, []string{"python3"})

	assert.ErrorIs(t, err, ErrNoPrivilege)
	assert.Empty(t, *calls)
}

func TestInstallPackagesBrewNeverEscalates(t *testing.T) {
	stubEuid(t, 501)
	stubLookPath(t, map[string]string{"brew": "/opt/homebrew/bin/brew"})
	calls := stubRunCommand(t, func(string, ...string) ([]byte, error) { return nil, nil })

	mgr := DetectPkgManager()
	require.NoError(t, InstallPackages(mgr, []string{"python"}))

	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"brew", "install", "python"}, (*calls)[0])
}

func TestInstallPackagesCommandFailure(t *testing.T) {
	stubEuid(t, 0)
	stubLookPath(t, map[string]string{"pacman": "/usr/bin/pacman"})
	stubRunCommand(t, func(string, ...string) ([]byte, error) {
		return []byte("error: target not found"), errors.New("exit status 1")
	})

	mgr := DetectPkgManager()
	err := InstallPackages(mgr, []string{"nope"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "target not found")
}

func TestInstallPackagesNilManager(t *testing.T) {
	assert.Error(t, InstallPackages(nil, []string{"python3"}))
}

func TestInstallPackagesNothingToDo(t *testing.T) {
	calls := stubRunCommand(t, func(string, ...string) ([]byte, error) { return nil, nil })
	assert.NoError(t, InstallPackages(&families[0], nil))
	assert.Empty(t, *calls)
}
