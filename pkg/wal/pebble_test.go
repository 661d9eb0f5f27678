package wal

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cockroachdb/pebble"

	"walkv/pkg/dberrors"
	"walkv/pkg/types"
)

func TestPebbleLog_SurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pebble")

	w, err := OpenPebble(dir)
	if err != nil {
		t.Fatalf("OpenPebble failed: %v", err)
	}
	first := sampleTransactions(5)
	for _, tx := range first {
		if err := w.Append(tx); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	w, err = OpenPebble(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer w.Close()

	if w.next != uint64(len(first)) {
		t.Fatalf("expected next position %d after reopen, got %d", len(first), w.next)
	}

	next := types.Transaction{ID: 5, Command: types.Set("after", "reopen")}
	if err := w.Append(next); err != nil {
		t.Fatal(err)
	}

	got, err := collect(t, w.Replay())
	if err != nil {
		t.Fatal(err)
	}
	want := append(first, next)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("replay mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestPebbleLog_DuplicateIDsAreKept(t *testing.T) {
	w, err := OpenPebble(filepath.Join(t.TempDir(), "pebble"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	a := types.Transaction{ID: 0, Command: types.Set("k", "a")}
	b := types.Transaction{ID: 0, Command: types.Set("k", "b")}
	_ = w.Append(a)
	_ = w.Append(b)

	got, err := collect(t, w.Replay())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []types.Transaction{a, b}) {
		t.Fatalf("expected both records in append order, got %v", got)
	}
}

func TestPebbleLog_CorruptValue(t *testing.T) {
	w, err := OpenPebble(filepath.Join(t.TempDir(), "pebble"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	_ = w.Append(types.Transaction{ID: 0, Command: types.Nop()})
	if err := w.db.Set(keyFor(1), []byte(`{"id":1,"comm`), pebble.Sync); err != nil {
		t.Fatal(err)
	}
	if err := w.db.Set(keyFor(2), []byte(`{"id":2,"command":"Nop"}`), pebble.Sync); err != nil {
		t.Fatal(err)
	}

	txs, err := collect(t, w.Replay())
	if len(txs) != 1 || !errors.Is(err, dberrors.ErrDecode) {
		t.Fatalf("expected one transaction then ErrDecode, got %v, %v", txs, err)
	}
}

func TestPebbleKeys_SortByPosition(t *testing.T) {
	for _, pos := range []uint64{0, 1, 255, 256, 1 << 40} {
		got, err := parseKey(keyFor(pos))
		if err != nil || got != pos {
			t.Fatalf("parseKey(keyFor(%d)) = %d, %v", pos, got, err)
		}
	}
	if string(keyFor(255)) >= string(keyFor(256)) {
		t.Fatal("keys must sort by position")
	}
	if _, err := parseKey([]byte("other/1")); !errors.Is(err, dberrors.ErrDecode) {
		t.Fatalf("expected ErrDecode for foreign key, got %v", err)
	}
}

func TestPebbleLog_UsesGivenLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pebble")

	w, err := OpenPebble(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, tx := range sampleTransactions(3) {
		if err := w.Append(tx); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	w, err = OpenPebble(dir, WithPebbleLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.logger != logger {
		t.Fatal("expected the given logger to be kept")
	}
	if out := buf.String(); !strings.Contains(out, "pebble WAL opened") || !strings.Contains(out, "next_position=3") {
		t.Fatalf("expected open to be logged with next_position=3, got %q", out)
	}
}
