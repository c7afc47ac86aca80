package content

import (
	"strings"
	"testing"
)

func TestPrepareInfoStripsMarkup(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>Fellowship</title><script>alert("x")</script></head>
<body><article><h1>Research Fellowship</h1>
<p>The fellowship funds graduate scholarship work for two years.</p>
<p>Applications close on March 1.</p></article></body></html>`

	got := PrepareInfo(html, "https://example.com/fellowship")
	if got == "" {
		t.Fatal("PrepareInfo() returned empty text")
	}
	if !strings.Contains(got, "fellowship funds graduate scholarship") {
		t.Fatalf("PrepareInfo() lost article text: %q", got)
	}
	if strings.ContainsAny(got, "<>") {
		t.Fatalf("PrepareInfo() left markup in output: %q", got)
	}
	if strings.Contains(got, "alert(") {
		t.Fatalf("PrepareInfo() kept script content: %q", got)
	}
}

func TestPrepareInfoEmpty(t *testing.T) {
	t.Parallel()

	if got := PrepareInfo("   ", "https://example.com"); got != "" {
		t.Fatalf("PrepareInfo(blank) got %q, want empty", got)
	}
}

func TestPrepareInfoCapsLength(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body><article>")
	for i := 0; i < 600; i++ {
		b.WriteString("<p>Paragraph with enough words to matter for extraction.</p>")
	}
	b.WriteString("</article></body></html>")

	got := PrepareInfo(b.String(), "https://example.com/long")
	if len(got) > MaxPageChars {
		t.Fatalf("PrepareInfo() length = %d, want <= %d", len(got), MaxPageChars)
	}
}

func TestPrepareFormKeepsFirstForm(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<nav>Site navigation</nav>
<script>tracker()</script>
<form action="/apply" method="post">
  <label for="full_name">Full name</label>
  <input type="text" name="full_name" required>
  <select name="degree"><option value="phd">PhD</option></select>
</form>
<form action="/newsletter"><input type="email" name="second_only"></form>
</body></html>`

	got := PrepareForm(html)
	if !strings.Contains(got, `name="full_name"`) {
		t.Fatalf("PrepareForm() dropped first form field: %q", got)
	}
	if !strings.Contains(got, `name="degree"`) {
		t.Fatalf("PrepareForm() dropped select field: %q", got)
	}
	if strings.Contains(got, "second_only") {
		t.Fatalf("PrepareForm() kept fields from a later form: %q", got)
	}
	if strings.Contains(got, "tracker()") {
		t.Fatalf("PrepareForm() kept script content: %q", got)
	}
}

func TestPrepareFormWithoutFormUsesBody(t *testing.T) {
	t.Parallel()

	html := `<html><body><div><h2>Apply by email</h2>
<p>Send your statement of purpose to apply@example.com.</p></div></body></html>`

	got := PrepareForm(html)
	if !strings.Contains(got, "statement of purpose") {
		t.Fatalf("PrepareForm() lost body text: %q", got)
	}
}

func TestPrepareFormDropsEventHandlers(t *testing.T) {
	t.Parallel()

	html := `<form><input type="text" name="email" onfocus="steal()"><button onclick="go()">Submit</button></form>`

	got := PrepareForm(html)
	if strings.Contains(got, "onfocus") || strings.Contains(got, "onclick") {
		t.Fatalf("PrepareForm() kept event handlers: %q", got)
	}
	if !strings.Contains(got, `name="email"`) {
		t.Fatalf("PrepareForm() dropped the input name: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"plain cut", "hello world", 5, "hello"},
		{"no limit", "hello", 0, "hello"},
		{"dangling tag dropped", "0123456789 <input name=\"q\">", 15, "0123456789"},
		{"complete tag kept", "<p>ok</p> tail text", 10, "<p>ok</p>"},
		{"multibyte boundary", "aaaé", 4, "aaa"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Fatalf("Truncate(%q, %d) got %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestChunkParagraphAware(t *testing.T) {
	t.Parallel()

	text := "para one\n\npara two\n\npara three"
	got := Chunk(text, 20)
	want := []string{"para one\n\npara two", "para three"}
	if len(got) != len(want) {
		t.Fatalf("Chunk() got %d chunks, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Chunk()[%d] got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkHardSplitsLongParagraph(t *testing.T) {
	t.Parallel()

	got := Chunk(strings.Repeat("x", 25), 10)
	if len(got) != 3 {
		t.Fatalf("Chunk() got %d chunks, want 3: %v", len(got), got)
	}
	if got[0] != strings.Repeat("x", 10) || got[2] != strings.Repeat("x", 5) {
		t.Fatalf("Chunk() split incorrectly: %v", got)
	}
}

func TestChunkSmallInput(t *testing.T) {
	t.Parallel()

	if got := Chunk("", 100); got != nil {
		t.Fatalf("Chunk(empty) got %v, want nil", got)
	}
	got := Chunk("fits", 100)
	if len(got) != 1 || got[0] != "fits" {
		t.Fatalf("Chunk(small) got %v, want [fits]", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	if got := CollapseWhitespace("  a\n\n\tb   c  "); got != "a b c" {
		t.Fatalf("CollapseWhitespace() got %q, want %q", got, "a b c")
	}
}
