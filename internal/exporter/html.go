package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/linkshelf/internal/model"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/links-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("links-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML exports the store to Netscape bookmark HTML format.
// Each collection becomes a folder; links in Recent are written at the
// root level.
func ExportHTML(store *model.Store) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	for _, c := range store.Collections() {
		if c.IsRecent() {
			continue
		}
		fmt.Fprintf(&b, "    <DT><H3>%s</H3>\n", html.EscapeString(c.Name))
		b.WriteString("    <DL><p>\n")
		writeLinks(&b, store.LinksInCollection(c.ID), 2)
		b.WriteString("    </DL><p>\n")
	}

	writeLinks(&b, store.LinksInCollection(model.RecentCollectionID), 1)

	b.WriteString("</DL><p>\n")

	return b.String()
}

func writeLinks(b *strings.Builder, links []model.Link, indent int) {
	prefix := strings.Repeat("    ", indent)

	for _, l := range links {
		icon := ""
		if l.Image != "" {
			icon = fmt.Sprintf(" ICON_URI=\"%s\"", html.EscapeString(l.Image))
		}
		fmt.Fprintf(b,
			"%s<DT><A HREF=\"%s\" ADD_DATE=\"%d\"%s>%s</A>\n",
			prefix,
			html.EscapeString(l.URL),
			l.CreatedAt.Unix(),
			icon,
			html.EscapeString(l.Title),
		)
	}
}
