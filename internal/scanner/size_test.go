package scanner

import (
	"testing"

	"github.com/fenilsonani/devcache/internal/testutil"
)

func TestDirSizeMissingPath(t *testing.T) {
	f := testutil.NewFixture(t)

	size, err := DirSize(f.Path("does/not/exist"))
	if err != nil {
		t.Fatalf("DirSize on missing path returned error: %v", err)
	}
	if size != 0 {
		t.Errorf("size = %d, want 0", size)
	}
}

func TestDirSizeFile(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateFile("a.txt", []byte("hello"))

	size, err := DirSize(path)
	if err != nil {
		t.Fatalf("DirSize failed: %v", err)
	}
	if size != 5 {
		t.Errorf("size = %d, want 5", size)
	}
}

func TestDirSizeRecursive(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("tree/a.bin", 1000)
	f.CreateSizedFile("tree/sub/b.bin", 2000)
	f.CreateSizedFile("tree/sub/deeper/c.bin", 3000)
	f.CreateDir("tree/empty")

	size, err := DirSize(f.Path("tree"))
	if err != nil {
		t.Fatalf("DirSize failed: %v", err)
	}
	if size != 6000 {
		t.Errorf("size = %d, want 6000", size)
	}
}

func TestDirSizeSymlinks(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := testutil.NewFixture(t)
	f.CreateSizedFile("real/data.bin", 4096)
	f.CreateSizedFile("outside/big.bin", 1<<20)

	// A symlinked root is followed
	link := f.CreateSymlink(f.Path("real"), "link")
	size, err := DirSize(link)
	if err != nil {
		t.Fatalf("DirSize failed: %v", err)
	}
	if size != 4096 {
		t.Errorf("symlinked root size = %d, want 4096", size)
	}

	// Symlinks inside the tree are not
	f.CreateSymlink(f.Path("outside"), "real/escape")
	size, _ = DirSize(f.Path("real"))
	if size != 4096 {
		t.Errorf("size with inner symlink = %d, want 4096", size)
	}
}

func TestDirSizePartialOnUnreadableSubdir(t *testing.T) {
	testutil.SkipOnWindows(t)
	testutil.SkipIfRoot(t)
	f := testutil.NewFixture(t)
	f.CreateSizedFile("mixed/ok.bin", 1500)
	f.CreateSizedFile("mixed/locked/hidden.bin", 9000)
	f.CreateUnreadableDir("mixed/locked")

	size, err := DirSize(f.Path("mixed"))
	if err == nil {
		t.Error("expected an error describing the unreadable directory")
	}
	if size != 1500 {
		t.Errorf("partial size = %d, want 1500", size)
	}
}
