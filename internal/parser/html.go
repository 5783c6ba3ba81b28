package parser

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ParseImageList reads an HTML directory index and returns every linked
// image as filename -> absolute URL, resolved against base.
func ParseImageList(body []byte, base *url.URL) (map[string]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, parseErr("image list", err)
	}

	images := make(map[string]string)
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}
		href := attr(n, "href")
		if href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := ref
		if base != nil {
			abs = base.ResolveReference(ref)
		}
		name := path.Base(abs.Path)
		if !imageExts[strings.ToLower(path.Ext(name))] {
			return true
		}
		images[name] = abs.String()
		return true
	})
	return images, nil
}

// ParseAbout extracts the text of the element with id "about", falling
// back to <body>. Whitespace is collapsed and paragraphs are separated by
// blank lines.
func ParseAbout(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", parseErr("about page", err)
	}

	root := find(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == "about"
	})
	if root == nil {
		root = find(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.DataAtom == atom.Body
		})
	}
	if root == nil {
		return "", parseErrf("about page", "no body")
	}

	var paragraphs []string
	var cur strings.Builder
	flush := func() {
		if text := strings.Join(strings.Fields(cur.String()), " "); text != "" {
			paragraphs = append(paragraphs, text)
		}
		cur.Reset()
	}

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.P, atom.Div, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.Br, atom.Section:
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
	flush()

	if len(paragraphs) == 0 {
		return "", parseErrf("about page", "no text")
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

// walk visits n and its descendants depth first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(x *html.Node) bool {
		if match(x) {
			found = x
			return false
		}
		return true
	})
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
