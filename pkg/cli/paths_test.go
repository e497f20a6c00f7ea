package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathsLayout(t *testing.T) {
	p := &Paths{AppName: "rtckit", HomeDir: "/home/u"}

	if got, want := p.BaseDir(), filepath.Join("/home/u", DefaultBaseDir); got != want {
		t.Errorf("BaseDir = %q, want %q", got, want)
	}
	if got, want := p.AppDir(), filepath.Join("/home/u", DefaultBaseDir, "rtckit"); got != want {
		t.Errorf("AppDir = %q, want %q", got, want)
	}
	if got, want := p.ConfigFile(), filepath.Join(p.AppDir(), DefaultConfigFile); got != want {
		t.Errorf("ConfigFile = %q, want %q", got, want)
	}
	if got, want := p.LogPath("session.log"), filepath.Join(p.AppDir(), "logs", "session.log"); got != want {
		t.Errorf("LogPath = %q, want %q", got, want)
	}
	if got, want := p.DataPath("out.pcm"), filepath.Join(p.AppDir(), "data", "out.pcm"); got != want {
		t.Errorf("DataPath = %q, want %q", got, want)
	}
}

func TestPathsEnsureDirs(t *testing.T) {
	p := &Paths{AppName: "rtckit", HomeDir: t.TempDir()}

	if err := p.EnsureAppDir(); err != nil {
		t.Fatalf("EnsureAppDir: %v", err)
	}
	if err := p.EnsureLogDir(); err != nil {
		t.Fatalf("EnsureLogDir: %v", err)
	}
	if err := p.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
	for _, dir := range []string{p.AppDir(), p.LogDir(), p.DataDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("stat %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestNewPaths(t *testing.T) {
	p, err := NewPaths("rtckit")
	if err != nil {
		t.Fatalf("NewPaths: %v", err)
	}
	if p.AppName != "rtckit" || p.HomeDir == "" {
		t.Errorf("paths = %+v", p)
	}
}
