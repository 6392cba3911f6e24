package kind

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/bobmcallan/stockinfo/internal/models"
)

// Column headers of the KIND download.
const (
	nameColumn = "회사명"
	codeColumn = "종목코드"
	codeWidth  = 6
)

var errNoTable = errors.New("listing table not found")

// parseListing extracts (name, code) rows from the first table of the document.
func parseListing(r io.Reader) ([]models.ListingRow, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := findFirst(doc, atom.Table)
	if table == nil {
		return nil, errNoTable
	}

	nameIdx, codeIdx := -1, -1
	var rows []models.ListingRow
	for _, tr := range findAll(table, atom.Tr) {
		cells := rowCells(tr)
		if len(cells) == 0 {
			continue
		}

		if nameIdx < 0 || codeIdx < 0 {
			for i, cell := range cells {
				switch cell {
				case nameColumn:
					nameIdx = i
				case codeColumn:
					codeIdx = i
				}
			}
			if nameIdx < 0 || codeIdx < 0 {
				return nil, fmt.Errorf("listing header missing %q or %q: %v", nameColumn, codeColumn, cells)
			}
			continue
		}

		if nameIdx >= len(cells) || codeIdx >= len(cells) {
			continue
		}
		name, code := cells[nameIdx], normalizeCode(cells[codeIdx])
		if name == "" || code == "" {
			continue
		}
		rows = append(rows, models.ListingRow{Name: name, Code: code})
	}

	if nameIdx < 0 {
		return nil, fmt.Errorf("listing table has no header row")
	}

	return rows, nil
}

// normalizeCode left-pads a code with zeros to the fixed 6-character width.
func normalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || len(s) >= codeWidth {
		return s
	}
	return strings.Repeat("0", codeWidth-len(s)) + s
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, cellText(c))
		}
	}
	return cells
}

func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(strings.ReplaceAll(sb.String(), "\u00a0", " "))
}
