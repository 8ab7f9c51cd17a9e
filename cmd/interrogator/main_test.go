package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/interrogator/internal/config"
	"github.com/hamed0406/interrogator/internal/domain"
)

func writeSQL(t *testing.T, dir, sql string) string {
	t.Helper()
	p := filepath.Join(dir, "probe.sql")
	if err := os.WriteFile(p, []byte(sql), 0o644); err != nil {
		t.Fatalf("write sql: %v", err)
	}
	return p
}

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Driver = "sqlite"
	cfg.ConnectString = ":memory:"
	cfg.Username = "probe"
	cfg.Password = "unused"
	cfg.File = writeSQL(t, dir, "SELECT 1 UNION ALL SELECT 2;\n")
	cfg.Output = filepath.Join(dir, "out.csv")
	cfg.LogDir = filepath.Join(dir, "logs")
	cfg.Period = 20 * time.Millisecond
	cfg.Immediate = true
	return cfg
}

func countLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n
}

func TestRunProbe_SQLiteEndToEnd(t *testing.T) {
	cfg := sqliteConfig(t)
	var console bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- runProbe(ctx, cfg, &console) }()

	deadline := time.Now().Add(5 * time.Second)
	for countLines(cfg.Output) < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("runProbe: %v", err)
	}

	b, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("want at least 3 records, got %d", len(lines))
	}
	for _, l := range lines {
		rec, err := domain.ParseRecord(l)
		if err != nil {
			t.Fatalf("bad line %q: %v", l, err)
		}
		if rec.End.Sub(rec.Start).Milliseconds() != rec.DurationMS {
			t.Fatalf("duration does not match timestamps in %q", l)
		}
	}
}

func TestRunProbe_MissingSQLFileFailsBeforeConnecting(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.File = filepath.Join(t.TempDir(), "nope.sql")
	var console bytes.Buffer

	err := runProbe(context.Background(), cfg, &console)
	if err == nil {
		t.Fatalf("want error for missing SQL file")
	}
	if _, statErr := os.Stat(cfg.Output); !os.IsNotExist(statErr) {
		t.Fatalf("output must not be created, stat err=%v", statErr)
	}
	if strings.Contains(console.String(), "db_connecting") {
		t.Fatalf("no connection should be attempted:\n%s", console.String())
	}
}

func TestRunProbe_ConnectFailure(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Driver = "postgres"
	cfg.ConnectString = "127.0.0.1:1/none"
	if err := runProbe(context.Background(), cfg, nil); err == nil {
		t.Fatalf("want connect error")
	}
	if _, statErr := os.Stat(cfg.Output); !os.IsNotExist(statErr) {
		t.Fatalf("output must not be created on connect failure")
	}
}

func TestRoot_MissingRequiredParameters(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--log-dir", t.TempDir()})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	if err == nil {
		t.Fatalf("want error without required parameters")
	}
	for _, want := range []string{"connect string is required", "username is required", "password is required", "SQL file is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}

func TestResolve_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "interrogator.yaml")
	yaml := "connect_string: file-host:1521/FILE\nusername: fileuser\npassword: filepw\nfile: file.sql\nperiod: 30\noutput: file.csv\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("INTERROGATOR_USERNAME", "envuser")
	t.Setenv("INTERROGATOR_OUTPUT", "env.csv")

	var f probeFlags
	cmd := &cobra.Command{Run: func(cmd *cobra.Command, args []string) {}}
	f.AddFlags(cmd)
	cmd.SetArgs([]string{"--config", cfgPath, "-o", "flag.csv", "-i", "5", "--query-timeout", "2s"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	cfg, err := f.Resolve(cmd)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.ConnectString != "file-host:1521/FILE" || cfg.Password != "filepw" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Username != "envuser" {
		t.Fatalf("env should override file, got %q", cfg.Username)
	}
	if cfg.Output != "flag.csv" {
		t.Fatalf("flag should override env, got %q", cfg.Output)
	}
	if cfg.Period != 5*time.Second || cfg.QueryTimeout != 2*time.Second {
		t.Fatalf("period/timeout wrong: %s %s", cfg.Period, cfg.QueryTimeout)
	}
	if cfg.Driver != "oracle" {
		t.Fatalf("unset driver flag must keep default, got %q", cfg.Driver)
	}
}

func TestPreflight_SQLite(t *testing.T) {
	cfg := sqliteConfig(t)
	var out bytes.Buffer
	if err := preflight(context.Background(), cfg, &out); err != nil {
		t.Fatalf("preflight: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "returned 2 row(s)") || !strings.Contains(out.String(), "preflight passed") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if _, err := os.Stat(cfg.Output); !os.IsNotExist(err) {
		t.Fatalf("preflight must not create the output file")
	}
}

func TestPreflight_BadQuery(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.File = writeSQL(t, t.TempDir(), "SELECT * FROM no_such_table")
	var out bytes.Buffer
	if err := preflight(context.Background(), cfg, &out); err == nil {
		t.Fatalf("want error for failing probe query")
	}
}
