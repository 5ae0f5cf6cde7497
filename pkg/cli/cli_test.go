package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
	"time"

	"strategos-hq/riskengine/pkg/bundle"
	"strategos-hq/riskengine/pkg/model"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("storage.driver", "unsupported driver")
	expected := "config error in storage.driver: unsupported driver"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}

	if got := NewConfigError("", "failed to load").Error(); got != "config error: failed to load" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlying := model.NewNotFoundError("audit_log", "abc")
	err := NewCommandError("replay", underlying)

	if err.Error() != "command replay failed: audit_log not found: abc" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !model.IsNotFound(err) {
		t.Error("errors.As should see through CommandError")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"generic", errors.New("boom"), ExitFailure},
		{"config", NewConfigError("output", "bad"), ExitUsage},
		{"invalid input", model.NewInvalidInputError("input", "bad"), ExitUsage},
		{"bundle", &bundle.ValidationError{}, ExitUsage},
		{"not found", NewCommandError("replay", model.NewNotFoundError("audit_log", "x")), ExitNotFound},
		{"conflict", model.NewConflictError("model_version", "m", "locked"), ExitConflict},
		{"no active model", &model.NoActiveModelError{TenantID: "t"}, ExitConflict},
		{"drift", fmt.Errorf("audit x: %w", ErrReplayDrift), ExitReplayDrift},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatText, "text": FormatText, "JSON": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("ParseFormat(csv) should fail")
	}
}

type versions []string

func (v versions) Header() []string { return []string{"ID", "NAME"} }

func (v versions) Rows() [][]string {
	rows := make([][]string, 0, len(v))
	for i, name := range v {
		rows = append(rows, []string{fmt.Sprint(i + 1), name})
	}
	return rows
}

func TestPrinter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinter(buf, FormatText)

	if err := p.Print(versions{"baseline", "candidate"}); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID  NAME") {
		t.Errorf("header = %q", lines[0])
	}

	buf.Reset()
	p.Status("seeded %d tenants", 2)
	if buf.String() != "✓ seeded 2 tenants\n" {
		t.Errorf("Status() = %q", buf.String())
	}
}

func TestPrinter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinter(buf, FormatJSON)

	if err := p.Print(versions{"baseline"}); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[\n  \"baseline\"\n]" {
		t.Errorf("Print() = %q", buf.String())
	}

	buf.Reset()
	p.Status("ignored")
	if buf.Len() != 0 {
		t.Errorf("Status() should be silent in JSON mode, got %q", buf.String())
	}
}

func TestSetupSignalHandler(t *testing.T) {
	ctx, stop := SetupSignalHandler(context.Background())
	defer stop()

	select {
	case <-ctx.Done():
		t.Fatal("context cancelled too early")
	default:
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}
