package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"strategos-hq/riskengine/pkg/cli"
	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/pipeline"
)

const testTenant = "acme"

var criticalArgs = []string{
	"--set", "revenue=850",
	"--set", "cost=700",
	"--set", "margin=0.1",
	"--set", "technical_debt=80",
}

// useTempStore points the storage configuration at a fresh SQLite file.
func useTempStore(t *testing.T) {
	t.Helper()
	t.Setenv("RISKENGINE_STORAGE_DSN", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("RISKENGINE_STORAGE_RETRY_BACKOFF", "1ms")
	t.Setenv(TenantEnv, "")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, "", args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

// assertContains fails when out lacks any of want.
func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\nGot: %s", w, out)
		}
	}
}

func decode(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decode %T: %v\n%s", v, err, out)
	}
}

// assertExit fails unless err maps to the given exit code.
func assertExit(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("command succeeded, want exit code %d", want)
	}
	if got := cli.ExitCode(err); got != want {
		t.Errorf("exit code = %d, want %d (%v)", got, want, err)
	}
}

func TestMigrateAndSeed(t *testing.T) {
	useTempStore(t)

	out := mustExecute(t, "migrate")
	assertContains(t, out, "Schema applied (sqlite)")

	out = mustExecute(t, "seed", "--tenant", testTenant)
	assertContains(t, out, "deterministic-baseline", "created for tenant acme", "Activated")

	var mv model.ModelVersion
	decode(t, mustExecute(t, "-o", "json", "seed", "--tenant", testTenant, "--name", "draft", "--no-activate"), &mv)
	if mv.Name != "draft" || mv.IsActive {
		t.Errorf("seeded version = %+v, want inactive draft", mv)
	}
}

func TestRunAndReplay(t *testing.T) {
	useTempStore(t)
	mustExecute(t, "seed", "--tenant", testTenant)

	var res pipeline.Result
	decode(t, mustExecute(t, append([]string{"-o", "json", "run", "--tenant", testTenant}, criticalArgs...)...), &res)
	if res.State != "CRITICAL_ZONE" || len(res.RestructuringActions) != 2 {
		t.Errorf("run = %s with %d directives, want CRITICAL_ZONE with 2", res.State, len(res.RestructuringActions))
	}
	if res.AuditLogID == "" {
		t.Fatal("run returned no audit log id")
	}

	out := mustExecute(t, "replay", "--tenant", testTenant, res.AuditLogID)
	assertContains(t, out, "Match:           true", "Byte identical:  true")

	out = mustExecute(t, "replay", "verify", "--window", "1h")
	assertContains(t, out, "Checked 1, matched 1, mismatched 0, failed 0")

	_, err := execute(t, "", "replay", "--tenant", "other", res.AuditLogID)
	assertExit(t, err, cli.ExitNotFound)
}

func TestRun_TextOutput(t *testing.T) {
	useTempStore(t)
	t.Setenv(TenantEnv, testTenant)
	mustExecute(t, "seed")

	out := mustExecute(t, append([]string{"run"}, criticalArgs...)...)
	assertContains(t, out, "State:      CRITICAL_ZONE", "Model:      deterministic-baseline", "Directive:  ", "Audit log:  ")
}

func TestRun_StdinAndDryRun(t *testing.T) {
	useTempStore(t)
	mustExecute(t, "seed", "--tenant", testTenant)

	stdin := `{"revenue": 1200, "cost": 150, "margin": 0.35, "technical_debt": 20}`
	out, err := execute(t, stdin, "-o", "json", "run", "--tenant", testTenant, "--input", "-", "--dry-run")
	if err != nil {
		t.Fatalf("dry run: %v\n%s", err, out)
	}

	var payload model.SnapshotPayload
	decode(t, out, &payload)
	if payload.State != "NORMAL" {
		t.Errorf("State = %s, want NORMAL", payload.State)
	}
	if strings.Contains(out, "audit_log_id") {
		t.Error("dry run output carries an audit log id")
	}

	out = mustExecute(t, "replay", "verify")
	assertContains(t, out, "Checked 0")
}

func TestRun_Errors(t *testing.T) {
	useTempStore(t)
	mustExecute(t, "migrate")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing tenant", []string{"run", "--set", "revenue=1"}, cli.ExitUsage},
		{"bad pair", []string{"run", "--tenant", testTenant, "--set", "revenue"}, cli.ExitUsage},
		{"bad number", []string{"run", "--tenant", testTenant, "--set", "revenue=lots"}, cli.ExitUsage},
		{"no active model", []string{"run", "--tenant", testTenant, "--set", "revenue=1"}, cli.ExitConflict},
		{"bad output", []string{"-o", "yaml", "run", "--tenant", testTenant}, cli.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assertExit(t, err, tt.want)
		})
	}
}

func TestModels(t *testing.T) {
	useTempStore(t)
	mustExecute(t, "seed", "--tenant", testTenant)

	out := mustExecute(t, "models", "list", "--tenant", testTenant)
	assertContains(t, out, "LOCKED", "deterministic-baseline")

	var rows []modelRow
	decode(t, mustExecute(t, "-o", "json", "models", "list", "--tenant", testTenant), &rows)
	if len(rows) != 1 {
		t.Fatalf("listed %d versions, want 1", len(rows))
	}
	baseID := rows[0].ID

	var clone model.ModelVersion
	decode(t, mustExecute(t, "-o", "json", "models", "clone", "--tenant", testTenant, baseID, "--name", "v2"), &clone)
	if clone.IsActive {
		t.Error("clone is active")
	}

	out = mustExecute(t, "models", "activate", "--tenant", testTenant, clone.ID)
	assertContains(t, out, "v2")

	var cfg model.ResolvedConfig
	decode(t, mustExecute(t, "models", "show", "--tenant", testTenant), &cfg)
	if cfg.ModelVersion.ID != clone.ID {
		t.Errorf("shown version = %s, want %s", cfg.ModelVersion.ID, clone.ID)
	}

	if _, err := execute(t, "", "models", "clone", "--tenant", testTenant, baseID); err == nil {
		t.Error("clone without --name succeeded")
	}

	_, err := execute(t, "", "models", "activate", "--tenant", testTenant, "missing")
	assertExit(t, err, cli.ExitNotFound)
}

func TestValidateExpr(t *testing.T) {
	out := mustExecute(t, "validate", "expr", "cost > (revenue * 0.78)")
	assertContains(t, out, "valid, identifiers: cost, revenue")

	out, err := execute(t, "", "-o", "json", "validate", "expr", "cost >")
	assertExit(t, err, cli.ExitUsage)

	var res exprResult
	decode(t, out, &res)
	if res.Valid || res.Code == "" {
		t.Errorf("result = %+v, want invalid with a code", res)
	}
}

func TestValidateBundle(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte(`
model_version:
  name: small
metrics:
  - name: revenue
coefficients:
  - name: revenue
    mode: scalar
    weight: 0.1
rules:
  - name: low_revenue
    conditions: ["revenue < 100"]
    impacts: [{mode: scalar, value: 20}]
states:
  - name: NORMAL
    rank: 0
    thresholds: [{value: 0}]
  - name: HOT
    rank: 1
    thresholds: [{value: 30}]
`), 0o600); err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "validate", "bundle", good)
	assertContains(t, out, "Bundle small is valid")

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte(`
model_version:
  name: broken
rules:
  - name: r
    conditions: ["revenue >"]
    impacts: [{mode: scalar, value: 1}]
`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "", "validate", "bundle", bad)
	assertExit(t, err, cli.ExitUsage)

	_, err = execute(t, "", "validate", "bundle", filepath.Join(dir, "missing.yaml"))
	assertExit(t, err, cli.ExitUsage)
}

func TestReadInput(t *testing.T) {
	in, err := readInput(strings.NewReader(`{"revenue": 10, "cost": 5}`), "-", []string{"cost=7", " margin = 0.5"})
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	if want := map[string]float64{"revenue": 10, "cost": 7, "margin": 0.5}; !reflect.DeepEqual(in, want) {
		t.Errorf("readInput() = %v, want %v", in, want)
	}

	_, err = readInput(strings.NewReader(`[1, 2]`), "-", nil)
	var invalid *model.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Errorf("readInput(array) error = %v, want *model.InvalidInputError", err)
	}
}
