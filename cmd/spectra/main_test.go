package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spectra/internal/models"
	"spectra/internal/tableio"
	"spectra/pkg/metadata"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}

	if !strings.Contains(out, "spectra version dev") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestStandardizeCommand(t *testing.T) {
	dir := t.TempDir()

	reddit := filepath.Join(dir, "reddit.csv")
	if err := os.WriteFile(reddit, []byte("self_text,created_time,author\nThis is great,2024-01-02,alice\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	news := filepath.Join(dir, "news.csv")
	if err := os.WriteFile(news, []byte("lead_paragraph,pub_date\nTerrible news,2024-02-03T10:00:00Z\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(dir, "merged.csv")

	out, err := execute(t, "standardize", reddit, news,
		"--source", "Reddit,NYT", "--annotate", "--log-level", "error", "-o", output)
	if err != nil {
		t.Fatalf("standardize failed: %v", err)
	}

	if !strings.Contains(out, "Saved 2 records") {
		t.Errorf("unexpected output %q", out)
	}

	merged, err := tableio.ReadFile(output, "")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	for _, col := range []string{models.ColumnText, models.ColumnDate, models.ColumnSource, models.ColumnSentiment} {
		if !merged.Has(col) {
			t.Errorf("missing column %q in %v", col, merged.Columns())
		}
	}

	if got := models.AsString(merged.Value(1, models.ColumnSource)); got != "NYT" {
		t.Errorf("source = %q, want NYT", got)
	}
}

func TestStandardizeCommand_SourceCountMismatch(t *testing.T) {
	_, err := execute(t, "standardize", "a.csv", "b.csv", "--source", "Only")
	if err == nil || !strings.Contains(err.Error(), "--source") {
		t.Fatalf("expected --source mismatch error, got %v", err)
	}
}

func TestRunCommand_InvalidInterval(t *testing.T) {
	_, err := execute(t, "run", "--interval", "Q", "--log-level", "error")
	if err == nil {
		t.Fatal("expected an error for an unknown interval")
	}
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()

	signed := metadata.Sign("# Report\n\nbody", metadata.Metadata{RunID: "run-1", Records: 3, Sources: []string{"NYT"}})

	good := filepath.Join(dir, "good.md")
	if err := os.WriteFile(good, []byte(signed), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "verify", good)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if !strings.Contains(out, "run run-1, 3 records from NYT") {
		t.Errorf("unexpected output %q", out)
	}

	tampered := filepath.Join(dir, "tampered.md")
	if err := os.WriteFile(tampered, []byte(strings.Replace(signed, "body", "edited", 1)), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err = execute(t, "verify", good, tampered)
	if err == nil {
		t.Fatal("expected tampered report to fail")
	}

	if !strings.Contains(out, "hash mismatch") {
		t.Errorf("expected hash mismatch in %q", out)
	}
}
