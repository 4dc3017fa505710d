package cleaner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/devcache/internal/history"
	"github.com/fenilsonani/devcache/internal/logging"
	"github.com/fenilsonani/devcache/internal/scanner"
	"github.com/fenilsonani/devcache/internal/security"
	"github.com/fenilsonani/devcache/internal/testutil"
	"github.com/fenilsonani/devcache/pkg/utils"
)

// =============================================================================
// Fakes
// =============================================================================

type recordCall struct {
	path   string
	size   int64
	items  int
	dryRun bool
}

type fakeRecorder struct {
	calls []recordCall
	err   error
}

func (r *fakeRecorder) Record(path string, size int64, items int, dryRun bool) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, recordCall{path, size, items, dryRun})
	return nil
}

type fakeConfirmer struct {
	answer bool
	err    error
	asked  int
	count  int
	size   int64
}

func (c *fakeConfirmer) Confirm(count int, size int64) (bool, error) {
	c.asked++
	c.count, c.size = count, size
	return c.answer, c.err
}

// failingRemover fails for the listed paths and delegates the rest to the OS
type failingRemover struct {
	fail map[string]error
}

func (r *failingRemover) Remove(path string, isDir bool) error {
	if err, ok := r.fail[path]; ok {
		return err
	}
	return osRemover{}.Remove(path, isDir)
}

func scanFixture(t *testing.T, f *testutil.TestFixture) []scanner.Match {
	t.Helper()
	matches, err := scanner.New(nil, logging.Nop()).Scan(f.RootDir, scanner.DefaultOptions())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	return matches
}

// =============================================================================
// Clean
// =============================================================================

func TestCleanDryRun(t *testing.T) {
	f := testutil.NewFixture(t)
	nodeModules, pycache := f.PopulateProject()
	matches := scanFixture(t, f)

	rec := &fakeRecorder{}
	c := New(rec, logging.Nop())

	result, err := c.Clean(matches, Mode{DryRun: true}, f.RootDir)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	f.AssertFileExists(nodeModules)
	f.AssertFileExists(pycache)

	if !result.DryRun || result.DeletedCount != 0 || result.FreedBytes != 0 {
		t.Errorf("dry run result = %+v, want nothing deleted", result)
	}
	if result.WouldFree != 42*utils.MB {
		t.Errorf("WouldFree = %d, want %d", result.WouldFree, 42*utils.MB)
	}
	if !result.Recorded {
		t.Error("dry run should be recorded")
	}

	want := recordCall{f.RootDir, 42 * utils.MB, 2, true}
	if len(rec.calls) != 1 || rec.calls[0] != want {
		t.Errorf("recorder calls = %+v, want [%+v]", rec.calls, want)
	}
}

func TestCleanExecute(t *testing.T) {
	f := testutil.NewFixture(t)
	nodeModules, pycache := f.PopulateProject()
	matches := scanFixture(t, f)

	rec := &fakeRecorder{}
	confirmer := &fakeConfirmer{answer: true}
	c := New(rec, logging.Nop())
	c.SetConfirmer(confirmer)

	result, err := c.Clean(matches, Mode{}, f.RootDir)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if confirmer.asked != 1 || confirmer.count != 2 || confirmer.size != 42*utils.MB {
		t.Errorf("confirmer asked %d times with (%d, %d)", confirmer.asked, confirmer.count, confirmer.size)
	}

	f.AssertFileNotExists(nodeModules)
	f.AssertFileNotExists(pycache)
	f.AssertFileExists(f.Path("project/src/app.py"))

	if result.DeletedCount != 2 || result.FreedBytes != 42*utils.MB {
		t.Errorf("result = %+v, want 2 deleted and 42 MB freed", result)
	}
	if len(result.DeletedPaths) != 2 || result.DeletedPaths[0] != nodeModules {
		t.Errorf("DeletedPaths = %v", result.DeletedPaths)
	}

	want := recordCall{f.RootDir, 42 * utils.MB, 2, false}
	if len(rec.calls) != 1 || rec.calls[0] != want {
		t.Errorf("recorder calls = %+v, want [%+v]", rec.calls, want)
	}
}

func TestCleanSkipConfirm(t *testing.T) {
	f := testutil.NewFixture(t)
	f.PopulateProject()
	matches := scanFixture(t, f)

	confirmer := &fakeConfirmer{answer: false}
	c := New(nil, logging.Nop())
	c.SetConfirmer(confirmer)

	result, err := c.Clean(matches, Mode{SkipConfirm: true}, f.RootDir)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if confirmer.asked != 0 {
		t.Error("confirmer must not be asked when confirmation is skipped")
	}
	if result.DeletedCount != 2 {
		t.Errorf("DeletedCount = %d, want 2", result.DeletedCount)
	}
	if result.Recorded {
		t.Error("nil recorder should leave Recorded false")
	}
}

func TestCleanDeclined(t *testing.T) {
	tests := []struct {
		name      string
		confirmer Confirmer
	}{
		{"user says no", &fakeConfirmer{answer: false}},
		{"no prompt available", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testutil.NewFixture(t)
			nodeModules, pycache := f.PopulateProject()
			matches := scanFixture(t, f)

			rec := &fakeRecorder{}
			c := New(rec, logging.Nop())
			if tt.confirmer != nil {
				c.SetConfirmer(tt.confirmer)
			}

			result, err := c.Clean(matches, Mode{}, f.RootDir)
			if err != nil {
				t.Fatalf("Clean failed: %v", err)
			}

			if !result.Declined || result.DeletedCount != 0 {
				t.Errorf("result = %+v, want declined with nothing deleted", result)
			}
			f.AssertFileExists(nodeModules)
			f.AssertFileExists(pycache)
			if len(rec.calls) != 0 {
				t.Errorf("declined clean must not be recorded, got %+v", rec.calls)
			}
		})
	}
}

func TestCleanConfirmError(t *testing.T) {
	f := testutil.NewFixture(t)
	nodeModules, _ := f.PopulateProject()
	matches := scanFixture(t, f)

	c := New(&fakeRecorder{}, logging.Nop())
	c.SetConfirmer(&fakeConfirmer{err: errors.New("tty gone")})

	result, err := c.Clean(matches, Mode{}, f.RootDir)
	if err == nil {
		t.Fatal("expected confirmation error")
	}
	if !result.Declined {
		t.Error("failed confirmation should be treated as declined")
	}
	f.AssertFileExists(nodeModules)
}

func TestCleanPartialFailure(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.CreateSizedFile("one/node_modules/a.js", 3*utils.MB)
	f.CreateSizedFile("two/node_modules/b.js", 2*utils.MB)
	f.CreateSizedFile("three/node_modules/c.js", 1*utils.MB)
	matches := scanFixture(t, f)
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}

	locked := f.Path("two/node_modules")
	rec := &fakeRecorder{}
	c := New(rec, logging.Nop())
	c.SetRemover(&failingRemover{fail: map[string]error{locked: os.ErrPermission}})

	result, err := c.Clean(matches, Mode{SkipConfirm: true}, f.RootDir)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if result.DeletedCount != 2 || result.Total != 3 {
		t.Errorf("deleted %d/%d, want 2/3", result.DeletedCount, result.Total)
	}
	if result.FreedBytes != 4*utils.MB {
		t.Errorf("FreedBytes = %d, want %d", result.FreedBytes, 4*utils.MB)
	}
	if len(result.Errors) != 1 || result.Errors[0].Path != locked || result.Errors[0].Reason != ErrorPermissionDenied {
		t.Errorf("Errors = %+v, want one permission error for %s", result.Errors, locked)
	}

	f.AssertFileNotExists(filepath.Dir(a))
	f.AssertFileExists(locked)

	want := recordCall{f.RootDir, 4 * utils.MB, 2, false}
	if len(rec.calls) != 1 || rec.calls[0] != want {
		t.Errorf("recorder calls = %+v, want [%+v]", rec.calls, want)
	}
}

func TestCleanEmpty(t *testing.T) {
	rec := &fakeRecorder{}
	confirmer := &fakeConfirmer{answer: true}
	c := New(rec, logging.Nop())
	c.SetConfirmer(confirmer)

	for _, mode := range []Mode{{DryRun: true}, {}} {
		result, err := c.Clean(nil, mode, "/nowhere")
		if err != nil {
			t.Fatalf("Clean failed: %v", err)
		}
		if result.Total != 0 || result.Recorded {
			t.Errorf("empty clean result = %+v", result)
		}
	}
	if len(rec.calls) != 0 || confirmer.asked != 0 {
		t.Errorf("empty clean must be a no-op, got %d records and %d prompts", len(rec.calls), confirmer.asked)
	}
}

func TestCleanProtectedPath(t *testing.T) {
	f := testutil.NewFixture(t)
	nodeModules, pycache := f.PopulateProject()
	matches := scanFixture(t, f)

	pv := security.NewPathValidator()
	pv.AddProtectedPath(nodeModules)

	c := New(nil, logging.Nop())
	c.SetPathValidator(pv)

	result, err := c.Clean(matches, Mode{SkipConfirm: true}, f.RootDir)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	f.AssertFileExists(nodeModules)
	f.AssertFileNotExists(pycache)
	if len(result.Errors) != 1 || result.Errors[0].Reason != ErrorProtectedPath {
		t.Errorf("Errors = %+v, want one protected path error", result.Errors)
	}
}

func TestCleanAlreadyGone(t *testing.T) {
	f := testutil.NewFixture(t)
	nodeModules, _ := f.PopulateProject()
	matches := scanFixture(t, f)

	if err := os.RemoveAll(nodeModules); err != nil {
		t.Fatal(err)
	}

	c := New(nil, logging.Nop())
	result, err := c.Clean(matches, Mode{SkipConfirm: true}, f.RootDir)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if result.DeletedCount != 1 || len(result.Errors) != 1 || result.Errors[0].Reason != ErrorFileNotFound {
		t.Errorf("result = %+v, want 1 deleted and 1 not-found error", result)
	}
}

func TestCleanSymlinkMatchRemovesLinkOnly(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := testutil.NewFixture(t)
	target := f.CreateSizedFile("shared/store/pkg.js", 2*utils.MB)
	link := f.CreateSymlink(f.Path("shared/store"), "app/node_modules")

	matches := []scanner.Match{{Path: link, Category: "node", CacheType: "node_modules", Size: 2 * utils.MB}}

	c := New(nil, logging.Nop())
	result, err := c.Clean(matches, Mode{SkipConfirm: true}, f.RootDir)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if result.DeletedCount != 1 {
		t.Errorf("DeletedCount = %d, want 1", result.DeletedCount)
	}
	f.AssertFileNotExists(link)
	f.AssertFileExists(target)
}

func TestCleanRecorderFailure(t *testing.T) {
	f := testutil.NewFixture(t)
	nodeModules, _ := f.PopulateProject()
	matches := scanFixture(t, f)

	c := New(&fakeRecorder{err: errors.New("disk full")}, logging.Nop())

	result, err := c.Clean(matches, Mode{SkipConfirm: true}, f.RootDir)
	if err == nil {
		t.Fatal("expected history write error")
	}
	if result == nil || result.DeletedCount != 2 || result.Recorded {
		t.Errorf("result = %+v, want deletions reported without a record", result)
	}
	f.AssertFileNotExists(nodeModules)
}

func TestCleanWithHistoryStore(t *testing.T) {
	f := testutil.NewFixture(t)
	f.PopulateProject()
	matches := scanFixture(t, f)

	store := history.NewStore(f.Path("config"), logging.Nop())
	c := New(store, logging.Nop())

	if _, err := c.Clean(matches, Mode{DryRun: true}, f.RootDir); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Clean(matches, Mode{SkipConfirm: true}, f.RootDir); err != nil {
		t.Fatal(err)
	}

	stats := store.Stats()
	if stats.Sessions != 2 || stats.Executed != 1 || stats.Freed != 42*utils.MB {
		t.Errorf("Stats = %+v, want 2 sessions, 1 executed, 42 MB freed", stats)
	}

	recent := store.Recent(1)
	if len(recent) != 1 || recent[0].DryRun || recent[0].Items != 2 || recent[0].Path != f.RootDir {
		t.Errorf("Recent(1) = %+v", recent)
	}
}
