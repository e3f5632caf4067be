package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/memmgr/heap"
	"github.com/joshuapare/memmgr/heap/chunk"
)

// resetFlags restores every global flag to its default for the duration of
// the test.
func resetFlags(t *testing.T) {
	t.Helper()
	def := chunk.DefaultConfig()
	set := func() {
		verbose, quiet, jsonOut, logFile = false, false, false, ""
		alignment, minPayload, guardSize = def.Alignment, def.MinPayload, def.GuardSize
		replaySize, replayMmap, replayAnon, replayImage = heap.DefaultHeapSize, "", false, ""
	}
	set()
	t.Cleanup(set)
}

// writeScript writes a replay script into a temp dir and returns its path.
func writeScript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}

// decodeJSON unmarshals output into v and fails the test on invalid JSON.
func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := jsonConfig.UnmarshalFromString(output, v); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
