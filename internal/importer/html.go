package importer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nikbrunner/linkshelf/internal/model"
	"golang.org/x/net/html"
)

// ParseHTMLBookmarks parses Netscape bookmark HTML and returns collections + links.
// Every folder becomes a collection named after the folder; nesting is
// flattened and links belong to their innermost folder. Links outside any
// folder have no collection.
func ParseHTMLBookmarks(r io.Reader) ([]model.Collection, []model.Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, err
	}

	var collections []model.Collection
	var links []model.Link

	var folderStack []string  // collection IDs, innermost last
	var pendingFolder *string // folder waiting to be pushed on next DL

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				name := getTextContent(n)
				if name != "" {
					c := model.NewCollection(name)
					collections = append(collections, c)
					pendingFolder = &c.ID
				}
				return

			case "a":
				href := getAttr(n, "href")
				if href == "" {
					return
				}

				title := getTextContent(n)
				if title == "" {
					title = href // fallback to URL as title
				}

				var collectionID string
				if len(folderStack) > 0 {
					collectionID = folderStack[len(folderStack)-1]
				}

				createdAt := time.Now()
				if addDate := getAttr(n, "add_date"); addDate != "" {
					if ts, err := strconv.ParseInt(addDate, 10, 64); err == nil {
						createdAt = time.Unix(ts, 0)
					}
				}

				links = append(links, model.Link{
					ID:           model.GenerateUUID(),
					Title:        title,
					URL:          href,
					Image:        getAttr(n, "icon_uri"),
					CollectionID: collectionID,
					CreatedAt:    createdAt,
				})
				return

			case "dl":
				pushed := false
				if pendingFolder != nil {
					folderStack = append(folderStack, *pendingFolder)
					pendingFolder = nil
					pushed = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushed {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return collections, links, nil
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
