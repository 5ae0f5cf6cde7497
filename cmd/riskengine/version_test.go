package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := buf.String()
	expectedStrings := []string{
		"riskengine " + Version,
		"Git Commit: " + GitCommit,
		"Build Date: " + BuildDate,
		"Go Version: " + runtime.Version(),
		"OS/Arch: " + runtime.GOOS + "/" + runtime.GOARCH,
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("version output missing %q\nGot: %s", expected, output)
		}
	}
}

func TestRootCommandFlags(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"config", "env-file", "tenant", "output"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}

	want := map[string]bool{
		"serve": false, "migrate": false, "seed": false, "run": false,
		"replay": false, "models": false, "validate": false, "version": false,
	}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}
