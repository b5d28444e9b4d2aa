package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pagefold/readercore/internal/store"
)

func writeShelfFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func testShelf(t *testing.T) (*Shelf, string) {
	t.Helper()
	dir := t.TempDir()
	writeShelfFile(t, dir, "novel.txt", "A long opening paragraph with enough words to keep.\n\nAnd a second paragraph that follows it.")
	writeShelfFile(t, dir, "notes.csv", "not,a,book")

	multi := filepath.Join(dir, "anthology")
	if err := os.Mkdir(multi, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeShelfFile(t, multi, "01-first.txt", "First story text with several sentences in it.")
	writeShelfFile(t, multi, "02-second.md", "# Second\n\nSecond story text with several sentences in it.")

	return NewShelf(dir, store.NewMemory(), 120, testOptions()), dir
}

func TestShelf_ListSupportedBooksSorted(t *testing.T) {
	shelf, _ := testShelf(t)

	ids, err := shelf.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []string{"anthology", "novel"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("expected %v, got %v", want, ids)
			break
		}
	}
}

func TestShelf_OpenIsIdempotent(t *testing.T) {
	shelf, _ := testShelf(t)

	first, err := shelf.Open("novel")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	second, err := shelf.Open("novel")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if first != second {
		t.Errorf("expected the same session on repeated open")
	}

	got, ok := shelf.Get("novel")
	if !ok || got != first {
		t.Errorf("expected Get to return the open session")
	}
	shelf.CloseAll()
}

func TestShelf_OpenDirectoryBook(t *testing.T) {
	shelf, _ := testShelf(t)

	sess, err := shelf.Open("anthology")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer shelf.CloseAll()

	sections := sess.Book().Sections()
	if len(sections) != 2 {
		t.Fatalf("expected 2 spine sections, got %d", len(sections))
	}
	if sections[0].SpineIndex != 0 || sections[1].SpineIndex != 1 {
		t.Errorf("expected spine order by file name, got %+v", sections)
	}
}

func TestShelf_OpenRejectsUnknownAndTraversal(t *testing.T) {
	shelf, _ := testShelf(t)

	if _, err := shelf.Open("missing"); err == nil {
		t.Errorf("expected error for unknown book")
	}
	if _, err := shelf.Open("notes"); err == nil {
		t.Errorf("expected error for unsupported file")
	}
	for _, id := range []string{"", ".", "..", "../etc", `a\b`} {
		if _, err := shelf.Open(id); err == nil {
			t.Errorf("expected %q rejected", id)
		}
	}
}

func TestShelf_CloseTearsDownSession(t *testing.T) {
	shelf, _ := testShelf(t)

	if _, err := shelf.Open("novel"); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if !shelf.Close("novel") {
		t.Fatalf("expected close to report the book was open")
	}
	if shelf.Close("novel") {
		t.Errorf("expected second close to report not open")
	}
	if _, ok := shelf.Get("novel"); ok {
		t.Errorf("expected closed book removed from shelf")
	}
}
