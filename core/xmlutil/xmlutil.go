// Package xmlutil provides hardened XML parsing and XPath queries for
// UPF v2 documents. Entity expansion is disabled before a document is
// handed to xmlquery, so crafted inputs cannot trigger XXE or expansion
// blowup (CWE-611).
package xmlutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Parse parses XML data and returns the document node.
func Parse(data []byte) (*xmlquery.Node, error) {
	if err := checkWellFormed(data); err != nil {
		return nil, err
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return root, nil
}

// checkWellFormed walks the token stream with entity expansion disabled.
// Go's xml.Decoder never fetches external entities; clearing the Entity
// table rejects internal ones too.
func checkWellFormed(data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = map[string]string{}
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("malformed XML: %w", err)
		}
	}
}

// Root returns the first element child of the document node.
func Root(doc *xmlquery.Node) *xmlquery.Node {
	if doc == nil {
		return nil
	}
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}
	return nil
}

// Query executes an XPath query and returns the matching nodes.
func Query(doc *xmlquery.Node, expr string) ([]*xmlquery.Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	nodes, err := xmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	return nodes, nil
}

// QueryFirst executes an XPath query and returns the first match, or nil.
func QueryFirst(doc *xmlquery.Node, expr string) (*xmlquery.Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	node, err := xmlquery.Query(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	return node, nil
}

// ElementChildren returns the element children of n in document order.
func ElementChildren(n *xmlquery.Node) []*xmlquery.Node {
	var children []*xmlquery.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, child)
		}
	}
	return children
}
