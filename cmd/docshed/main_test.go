package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[paths]\nshed_dir = %q\n\n[import]\nworkers = 2\n", filepath.Join(base, "shed"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCommand()
	want := []string{
		"init", "import", "status", "show",
		"promote", "discard", "reinstate",
		"seal", "verify", "clean", "restore",
		"export", "serve", "config", "version",
	}
	registered := make(map[string]bool)
	for _, cmd := range root.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestInitAndStatus(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", cfgPath, "init")
	if err != nil {
		t.Fatalf("init: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Shed initialized") {
		t.Fatalf("unexpected init output: %s", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	var status struct {
		Documents struct {
			Total int `json:"total"`
		} `json:"documents"`
		Bundles int `json:"bundles"`
	}
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("parsing status output: %v\n%s", err, out)
	}
	if status.Documents.Total != 0 || status.Bundles != 0 {
		t.Fatalf("fresh shed should be empty: %s", out)
	}
}

func TestImportStatusExportFlow(t *testing.T) {
	cfgPath := writeTestConfig(t)

	corpus := t.TempDir()
	long := "The catalogue of the national library holds several million authority records describing persons and institutions.\n"
	if err := os.WriteFile(filepath.Join(corpus, "good.txt"), []byte(long), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(corpus, "short.txt"), []byte("tiny\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "--config", cfgPath, "import", corpus)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported:        2") {
		t.Fatalf("unexpected import output: %s", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	var status struct {
		Documents struct {
			Ready     int `json:"ready"`
			Discarded int `json:"discarded"`
		} `json:"documents"`
	}
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("parsing status output: %v\n%s", err, out)
	}
	if status.Documents.Ready != 1 || status.Documents.Discarded != 1 {
		t.Fatalf("unexpected counts: %s", out)
	}

	exportPath := filepath.Join(t.TempDir(), "ledger.csv")
	out, err = runCommand(t, "--config", cfgPath, "export", "--output", exportPath)
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	raw, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %d lines:\n%s", len(lines), raw)
	}
}

func TestConfigValidateWithDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	out, err := runCommand(t, "config", "validate", "--config", missing)
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "defaults were used") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "docshed") {
		t.Fatalf("unexpected output: %q", out)
	}
}
