package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fenilsonani/devcache/internal/history"
	"github.com/fenilsonani/devcache/internal/testutil"
)

// execute runs a fresh command tree and returns its stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type scanOutput struct {
	TotalItems int   `json:"total_items"`
	TotalSize  int64 `json:"total_size"`
	Matches    []struct {
		Path     string `json:"path"`
		Category string `json:"category"`
	} `json:"matches"`
	Clean *struct {
		DryRun    bool  `json:"dry_run"`
		Deleted   int   `json:"deleted"`
		WouldFree int64 `json:"would_free"`
	} `json:"clean"`
}

func TestScanDryRunJSON(t *testing.T) {
	f := testutil.NewFixture(t)
	nodeModules, _ := f.PopulateProject()
	configDir := t.TempDir()

	out, err := execute(t, "scan", f.Path("project"), "--config", configDir, "--output", "json")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	var got scanOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.TotalItems != 2 {
		t.Fatalf("expected 2 items, got %d", got.TotalItems)
	}
	if got.Matches[0].Path != nodeModules || got.Matches[0].Category != "node" {
		t.Errorf("unexpected first match %+v", got.Matches[0])
	}
	if got.Clean == nil || !got.Clean.DryRun || got.Clean.WouldFree != got.TotalSize {
		t.Errorf("unexpected clean summary %+v", got.Clean)
	}
	f.AssertFileExists(nodeModules)

	records := history.NewStore(configDir, nil).LoadAll()
	if len(records) != 1 || !records[0].DryRun || records[0].Items != 2 {
		t.Errorf("unexpected history %+v", records)
	}
}

func TestScanExecuteWithYes(t *testing.T) {
	f := testutil.NewFixture(t)
	nodeModules, pycache := f.PopulateProject()
	configDir := t.TempDir()

	_, err := execute(t, "scan", f.Path("project"), "--config", configDir, "-x", "-y", "-c", "python")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	f.AssertFileNotExists(pycache)
	f.AssertFileExists(nodeModules)

	stats := history.NewStore(configDir, nil).Stats()
	if stats.Executed != 1 || stats.Freed != 2*1024*1024 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestScanSymlinkedRootRecordsResolvedPath(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := testutil.NewFixture(t)
	f.PopulateProject()
	link := f.CreateSymlink(f.Path("project"), "link")
	configDir := t.TempDir()

	if _, err := execute(t, "scan", link, "--config", configDir, "--output", "json"); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	records := history.NewStore(configDir, nil).LoadAll()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Path != f.Path("project") {
		t.Errorf("recorded path = %s, want %s", records[0].Path, f.Path("project"))
	}
}

func TestScanErrors(t *testing.T) {
	f := testutil.NewFixture(t)
	configDir := t.TempDir()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing path", []string{"scan", f.Path("nope")}, "path does not exist"},
		{"unknown category", []string{"scan", f.RootDir, "-c", "cobol"}, "valid: node, python, rust"},
		{"bad min size", []string{"scan", f.RootDir, "--min-size", "lots"}, "invalid --min-size"},
		{"overflowing min size", []string{"scan", f.RootDir, "--min-size", "9000000000GB"}, "too large"},
		{"negative depth", []string{"scan", f.RootDir, "--max-depth", "-1"}, "--max-depth"},
		{"bad output", []string{"scan", f.RootDir, "--output", "xml"}, "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--config", configDir)
			_, err := execute(t, args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestHistoryAndStats(t *testing.T) {
	configDir := t.TempDir()
	store := history.NewStore(configDir, nil)
	if err := store.Record("/a", 100, 1, true); err != nil {
		t.Fatal(err)
	}
	if err := store.Record("/b", 200, 2, false); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "history", "--config", configDir, "--output", "json", "-n", "1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var records []history.SessionRecord
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(records) != 1 || records[0].Path != "/b" {
		t.Errorf("expected newest record only, got %+v", records)
	}

	out, err = execute(t, "stats", "--config", configDir)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out, "Sessions: 2") || !strings.Contains(out, "Actually cleaned: 1") {
		t.Errorf("unexpected stats output:\n%s", out)
	}
}

func TestTypes(t *testing.T) {
	out, err := execute(t, "types", "--output", "json")
	if err != nil {
		t.Fatalf("types failed: %v", err)
	}
	if !strings.Contains(out, `"node_modules"`) || !strings.Contains(out, `"dotnet"`) {
		t.Errorf("types output missing entries:\n%s", out)
	}
}

func TestConfigInit(t *testing.T) {
	configDir := t.TempDir()

	out, err := execute(t, "config", "--config", configDir)
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(out, "does not exist") || !strings.Contains(out, "min_size: 1MB") {
		t.Errorf("unexpected config output:\n%s", out)
	}
	if !strings.Contains(out, "Protected paths:") || !strings.Contains(out, "  "+configDir+"\n") {
		t.Errorf("config dir missing from protected paths:\n%s", out)
	}

	out, err = execute(t, "config", "--config", configDir, "--init")
	if err != nil {
		t.Fatalf("config --init failed: %v", err)
	}
	if strings.Contains(out, "does not exist") {
		t.Errorf("config file not created:\n%s", out)
	}
}
