package classify

import (
	"testing"
)

// TestNew tests extension list normalization.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("accepts dotted, bare, and mixed-case forms identically", func(t *testing.T) {
		t.Parallel()

		specs := []string{".PDF", "pdf", ".pdf", " pdf ", "PDF"}
		for _, spec := range specs {
			set := New(spec)
			if !set.Match("http://example.org/file.pdf") {
				t.Errorf("New(%q) should match file.pdf", spec)
			}
			if !set.Match("http://example.org/FILE.PDF") {
				t.Errorf("New(%q) should match FILE.PDF", spec)
			}
		}
	})

	t.Run("accepts pipe and comma separators", func(t *testing.T) {
		t.Parallel()

		for _, spec := range []string{".pdf|.zip", ".pdf,.zip", "pdf, zip", "pdf|zip,"} {
			set := New(spec)
			if set.Len() != 2 {
				t.Errorf("New(%q).Len() = %d, want 2", spec, set.Len())
			}
			if !set.Match("http://example.org/a.zip") {
				t.Errorf("New(%q) should match a.zip", spec)
			}
		}
	})

	t.Run("normalized extensions are sorted and dotted", func(t *testing.T) {
		t.Parallel()

		set := New("ZIP|.pdf")
		got := set.Extensions()
		want := []string{".pdf", ".zip"}
		if len(got) != len(want) {
			t.Fatalf("Extensions() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Extensions()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("empty spec matches nothing", func(t *testing.T) {
		t.Parallel()

		set := New("")
		if set.Match("http://example.org/file.pdf") {
			t.Error("empty set should not match anything")
		}
	})
}

// TestSetMatch tests URL classification.
func TestSetMatch(t *testing.T) {
	t.Parallel()

	set := New(DefaultExtensions)

	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.org/report.pdf", true},
		{"http://example.org/archive.ZIP", true},
		{"http://example.org/dir/deck.pptx", true},
		{"http://example.org/report.pdf?v=2", true},
		{"http://example.org/report.pdf#section", true},
		{"http://example.org/page.html", false},
		{"http://example.org/", false},
		{"http://example.org/pdf", false},
		{"http://example.org/archive.tar.gz", false},
		{"://not-a-url.pdf", false},
	}

	for _, tt := range tests {
		if got := set.Match(tt.url); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

// TestZeroSet tests that the zero value is safe to use.
func TestZeroSet(t *testing.T) {
	t.Parallel()

	var set Set
	if set.Match("http://example.org/file.pdf") {
		t.Error("zero Set should match nothing")
	}
	if set.Len() != 0 {
		t.Errorf("zero Set Len() = %d, want 0", set.Len())
	}
}
