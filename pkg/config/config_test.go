package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return os.ErrInvalid
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_TOKEN", "s3cret")
	path := writeFile(t, "name: vault\nport: 4321\ntoken: ${SAMPLE_TOKEN}\n")

	var cfg sample
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "vault" || cfg.Port != 4321 || cfg.Token != "s3cret" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_KeepsUnsetFields(t *testing.T) {
	path := writeFile(t, "name: override\n")

	cfg := sample{Name: "default", Port: 8080}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "override" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	path := writeFile(t, "name: vault\nport: 1\nprot: 2\n")

	var cfg sample
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "prot") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	path := writeFile(t, "name: vault\n")

	var cfg sample
	if err := Load(path, &cfg); err == nil {
		t.Fatal("expected validation error for zero port")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "")

	cfg := sample{Port: 1}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("empty file should keep defaults: %v", err)
	}
}

func TestLoadWithDefaults_MissingFile(t *testing.T) {
	cfg := sample{Name: "default", Port: 8080}
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.Name != "default" {
		t.Errorf("defaults overwritten: %+v", cfg)
	}

	bad := sample{}
	if err := LoadWithDefaults("", &bad); err == nil {
		t.Error("defaults should still be validated")
	}
}
