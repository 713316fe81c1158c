package corpus

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLoadDir(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "docs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(c.Documents))
	}
	if c.Documents[0].Name != "doc-a" || c.Documents[1].Name != "doc-b" {
		t.Errorf("names = %q, %q, want doc-a, doc-b",
			c.Documents[0].Name, c.Documents[1].Name)
	}

	a := c.Documents[0]
	key := a.Set("key")
	if len(key) != 1 || key[0].Start != 0 || key[0].End != 5 || key[0].Type != "Mention" {
		t.Errorf("doc-a key set = %+v", key)
	}
	if got := key[0].Features["id"]; got != "widget" {
		t.Errorf("doc-a key feature id = %v, want widget", got)
	}
	sys := a.Set("system")
	if len(sys) != 1 {
		t.Fatalf("doc-a system set = %+v", sys)
	}
	if conf, ok := sys[0].Features["conf"].(float64); !ok || conf != 0.9 {
		t.Errorf("doc-a system conf = %v", sys[0].Features["conf"])
	}

	if got := c.Documents[1].Set("system"); len(got) != 0 {
		t.Errorf("doc-b system set = %+v, want empty", got)
	}
	if got := c.Documents[1].Set("no-such-set"); got != nil {
		t.Errorf("missing set = %+v, want nil", got)
	}
}

func TestLoadMultiDocumentFile(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "multi.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(c.Documents))
	}
	if c.Documents[0].Name != "first" {
		t.Errorf("first name = %q", c.Documents[0].Name)
	}
	// The second document carries no name and gets one from the file.
	if c.Documents[1].Name != "multi#1" {
		t.Errorf("second name = %q, want multi#1", c.Documents[1].Name)
	}
}

func TestLoadInvalidSpan(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "bad.yaml"))
	if err == nil {
		t.Fatal("expected an error for a span ending before it starts")
	}
}

func TestLoadMissingPath(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "no-such-thing")); err == nil {
		t.Fatal("expected an error for a missing path")
	}
}

func TestLoadEmptyDir(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}
