package importer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/nikbrunner/linkshelf/internal/importer"
)

func TestParseHTML_SingleLink(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1234567890" ICON_URI="https://example.com/favicon.ico">Example Site</A>
</DL><p>`

	collections, links, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(collections) != 0 {
		t.Errorf("expected 0 collections, got %d", len(collections))
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}

	l := links[0]
	if l.Title != "Example Site" {
		t.Errorf("expected title 'Example Site', got %q", l.Title)
	}
	if l.URL != "https://example.com" {
		t.Errorf("expected URL 'https://example.com', got %q", l.URL)
	}
	if l.Image != "https://example.com/favicon.ico" {
		t.Errorf("expected icon as image, got %q", l.Image)
	}
	if l.CollectionID != "" {
		t.Errorf("expected no collection at root, got %q", l.CollectionID)
	}
	if !l.CreatedAt.Equal(time.Unix(1234567890, 0)) {
		t.Errorf("expected ADD_DATE to be parsed, got %v", l.CreatedAt)
	}
	if l.ID == "" {
		t.Error("expected non-empty ID")
	}
}

func TestParseHTML_NestedFoldersFlatten(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 ADD_DATE="1234567890">Development</H3>
    <DL><p>
        <DT><H3 ADD_DATE="1234567890">React</H3>
        <DL><p>
            <DT><A HREF="https://react.dev" ADD_DATE="1234567890">React Docs</A>
        </DL><p>
        <DT><A HREF="https://github.com" ADD_DATE="1234567890">GitHub</A>
    </DL><p>
    <DT><A HREF="https://google.com" ADD_DATE="1234567890">Google</A>
</DL><p>`

	collections, links, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(collections) != 2 {
		t.Fatalf("expected 2 collections, got %d", len(collections))
	}
	ids := map[string]string{}
	for _, c := range collections {
		ids[c.Name] = c.ID
	}

	want := map[string]string{
		"React Docs": ids["React"],
		"GitHub":     ids["Development"],
		"Google":     "",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d", len(want), len(links))
	}
	for _, l := range links {
		if l.CollectionID != want[l.Title] {
			t.Errorf("%s: expected collection %q, got %q", l.Title, want[l.Title], l.CollectionID)
		}
	}
}

func TestParseHTML_SkipsLinksWithoutHref(t *testing.T) {
	html := `<DL><p>
    <DT><A>No href</A>
    <DT><A HREF="https://go.dev"></A>
</DL><p>`

	_, links, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].Title != "https://go.dev" {
		t.Errorf("expected URL as fallback title, got %q", links[0].Title)
	}
}
