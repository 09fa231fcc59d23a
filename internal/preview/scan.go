package preview

import (
	"strings"

	"golang.org/x/net/html"
)

// LocalScriptRefs parses a markup document and returns the normalized
// "./"-prefixed paths of every script tag referencing a local file.
// The pipeline uses this to flag entry documents whose script references
// cannot be satisfied by the module map before the sandbox ever runs.
func LocalScriptRefs(doc string) []string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		// A document the parser rejects outright has no references worth
		// reporting; the sandbox will surface whatever the browser does.
		return nil
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, attr := range n.Attr {
				if attr.Key != "src" {
					continue
				}
				src := strings.TrimSpace(attr.Val)
				if src == "" || isRemoteRef(src) {
					continue
				}
				if !strings.HasPrefix(src, "./") {
					src = "./" + src
				}
				refs = append(refs, src)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return refs
}

func isRemoteRef(src string) bool {
	return strings.HasPrefix(src, "http:") ||
		strings.HasPrefix(src, "https:") ||
		strings.HasPrefix(src, "//") ||
		strings.HasPrefix(src, "data:")
}
