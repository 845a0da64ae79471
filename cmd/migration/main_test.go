package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
)

func TestRun_UnknownCommandIsUsage(t *testing.T) {
	t.Parallel()

	logger := logging.NewNop()
	for _, args := range [][]string{nil, {"sideways"}} {
		if err := run(args, logger); !errors.Is(err, errUsage) {
			t.Fatalf("run(%v): expected usage error, got %v", args, err)
		}
	}
}

func TestParseSteps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{args: nil, want: 1},
		{args: []string{" 3 "}, want: 3},
		{args: []string{"0"}, wantErr: true},
		{args: []string{"two"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseSteps(tt.args)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseSteps(%v): expected error", tt.args)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("parseSteps(%v) = %d, %v; want %d", tt.args, got, err, tt.want)
		}
	}
}

func TestParseVersionAndTarget(t *testing.T) {
	t.Parallel()

	if v, err := parseVersion("1772000000"); err != nil || v != 1772000000 {
		t.Fatalf("unexpected version %d err=%v", v, err)
	}
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected negative version error")
	}
	if v, err := parseTarget("42"); err != nil || v != 42 {
		t.Fatalf("unexpected target %d err=%v", v, err)
	}
	if _, err := parseTarget("-42"); err == nil {
		t.Fatalf("expected negative target error")
	}
}

func TestMigrationsDir_PrefersOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	got, err := migrationsDir("", filepath.Join(dir, "missing"), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %s, got %s", dir, got)
	}

	file := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, err = migrationsDir(file)
	if err == nil && got == file {
		t.Fatalf("files must not be accepted as migration dirs")
	}
}

func TestWithBinaryResultsDisabled(t *testing.T) {
	t.Parallel()

	raw := "postgres://u:p@localhost:5432/inhouse?sslmode=disable"
	if got := withBinaryResultsDisabled(raw, false); got != raw {
		t.Fatalf("expected untouched url, got %s", got)
	}
	got := withBinaryResultsDisabled(raw, true)
	if !strings.Contains(got, "disable_prepared_binary_result=yes") {
		t.Fatalf("expected flag appended, got %s", got)
	}
	explicit := raw + "&disable_prepared_binary_result=no"
	if got := withBinaryResultsDisabled(explicit, true); !strings.Contains(got, "disable_prepared_binary_result=no") {
		t.Fatalf("explicit value should win, got %s", got)
	}
}
