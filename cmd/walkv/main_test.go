package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"walkv/pkg/config"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func fileConfig(path string) config.Config {
	cfg := config.Default()
	cfg.WAL = config.WALConfig{Backend: config.BackendFile, Path: path}
	return cfg
}

func TestServe_Session(t *testing.T) {
	cfg := fileConfig(filepath.Join(t.TempDir(), "wal.txt"))

	in := strings.NewReader("SET my_key 3\nGET my_key\nGET other\nhello there\n\n.replay\n.state\n")
	var out bytes.Buffer
	if err := serve(context.Background(), cfg, quietLogger, in, &out); err != nil {
		t.Fatalf("serve failed: %v", err)
	}

	want := `OK
3
(nil)
(nop)
REPLAY: 0 SET my_key 3
REPLAY: 1 GET my_key
REPLAY: 2 GET other
REPLAY: 3 NOP
my_key = 3
`
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestServe_RecoversOnRestart(t *testing.T) {
	cfg := fileConfig(filepath.Join(t.TempDir(), "wal.txt"))

	var out bytes.Buffer
	if err := serve(context.Background(), cfg, quietLogger, strings.NewReader("SET a 1\nSET b 2\n"), &out); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := serve(context.Background(), cfg, quietLogger, strings.NewReader("GET a\nSET a 3\n.state\n.quit\nGET b\n"), &out); err != nil {
		t.Fatal(err)
	}
	want := "1\nOK\na = 3\nb = 2\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestServe_WithoutRecovery(t *testing.T) {
	cfg := fileConfig(filepath.Join(t.TempDir(), "wal.txt"))

	var out bytes.Buffer
	if err := serve(context.Background(), cfg, quietLogger, strings.NewReader("SET a 1\n"), &out); err != nil {
		t.Fatal(err)
	}

	cfg.Server.RecoverOnStart = false
	out.Reset()
	if err := serve(context.Background(), cfg, quietLogger, strings.NewReader("GET a\n"), &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "(nil)\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestServe_CorruptLogFailsStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.txt")
	if err := os.WriteFile(path, []byte("{not json\n"), 0600); err != nil {
		t.Fatal(err)
	}

	err := serve(context.Background(), fileConfig(path), quietLogger, strings.NewReader(""), io.Discard)
	if err == nil || !strings.Contains(err.Error(), "recovery failed") {
		t.Fatalf("expected recovery failure, got %v", err)
	}
}

func TestServe_Metrics(t *testing.T) {
	cfg := config.Default()
	cfg.WAL = config.WALConfig{Backend: config.BackendMemory}

	var out bytes.Buffer
	if err := serve(context.Background(), cfg, quietLogger, strings.NewReader("SET a 1\n.metrics\n"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `walkv_transactions_total{command="Set"} 1`) {
		t.Fatalf("expected transaction counter in output:\n%s", out.String())
	}
}

func TestRun_LoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	walPath := filepath.Join(dir, "data", "wal.txt")
	cfgPath := filepath.Join(dir, "walkv.yaml")
	body := "logger:\n  level: error\nwal:\n  backend: file\n  path: " + walPath + "\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), cfgPath, strings.NewReader("SET k v\n"), &out, io.Discard); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, err := os.Stat(walPath); err != nil {
		t.Fatalf("expected WAL file at %s: %v", walPath, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"Error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
