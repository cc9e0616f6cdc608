package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestNewRootCommand_RegistersSubcommands(t *testing.T) {
	root := NewRootCommand()

	want := map[string]bool{
		"up": false, "down": false, "logs": false, "status": false,
		"wait": false, "run": false, "stub": false,
	}
	for _, sub := range root.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %s not registered", name)
		}
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	viper.Reset()

	root := NewRootCommand()
	err := root.ParseFlags([]string{
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--project", "ci-42",
		"--sudo",
		"--unique-project",
		"--timeout", "300s",
		"--interval", "2s",
		"--compose-file", "compose.ci.yml",
	})
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Compose.ProjectName != "ci-42" {
		t.Errorf("expected project ci-42, got %s", cfg.Compose.ProjectName)
	}
	if !cfg.Compose.Sudo {
		t.Error("expected sudo override to apply")
	}
	if !cfg.Compose.UniqueName {
		t.Error("expected unique-project override to apply")
	}
	if cfg.Health.Timeout != 300*time.Second {
		t.Errorf("expected timeout 300s, got %s", cfg.Health.Timeout)
	}
	if cfg.Health.Interval != 2*time.Second {
		t.Errorf("expected interval 2s, got %s", cfg.Health.Interval)
	}
	if cfg.Compose.File != "compose.ci.yml" {
		t.Errorf("expected compose file override, got %s", cfg.Compose.File)
	}
}

func TestLoadConfig_DefaultsWithoutFlags(t *testing.T) {
	viper.Reset()

	root := NewRootCommand()
	if err := root.ParseFlags([]string{
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
	}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Compose.ProjectName != "template-test" {
		t.Errorf("expected default project name, got %s", cfg.Compose.ProjectName)
	}
	if cfg.Compose.File != "docker-compose.yml" {
		t.Errorf("expected default compose file, got %s", cfg.Compose.File)
	}
}
