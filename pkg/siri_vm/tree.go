package siri_vm

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// element is a generic XML element. The whole document is read into a tree of
// these and then walked with the lookup helpers below.
type element struct {
	XMLName  xml.Name
	Text     string     `xml:",chardata"`
	Children []*element `xml:",any"`
}

// node is an element together with its location in the document.
type node struct {
	element *element
	path    string
}

func decodeDocument(data []byte) (node, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel

	var root element
	if err := d.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("no root element")
		}
		return node{}, malformedDocument(err)
	}

	// Only whitespace, comments and processing instructions may follow the root
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return node{}, malformedDocument(err)
		}

		switch ty := tok.(type) {
		case xml.StartElement:
			return node{}, malformedDocument(fmt.Errorf("unexpected element <%s> after document root", ty.Name.Local))
		case xml.CharData:
			if len(bytes.TrimSpace(ty)) > 0 {
				return node{}, malformedDocument(errors.New("unexpected text after document root"))
			}
		}
	}

	return node{element: &root, path: root.XMLName.Local}, nil
}

func (n node) childPath(local string) string {
	return n.path + "/" + local
}

// optionalChild returns the first child with the given name.
func (n node) optionalChild(local string) (node, bool) {
	name := qualifiedName(local)

	for _, child := range n.element.Children {
		if child.XMLName == name {
			return node{element: child, path: n.childPath(local)}, true
		}
	}

	return node{}, false
}

// mandatoryChild returns the first child with the given name or fails with
// ErrMissingContainer.
func (n node) mandatoryChild(local string) (node, error) {
	child, ok := n.optionalChild(local)
	if !ok {
		return node{}, missingContainer(local, n.childPath(local))
	}

	return child, nil
}

// children returns every direct child with the given name in document order.
func (n node) children(local string) []node {
	name := qualifiedName(local)

	var matched []node
	for _, child := range n.element.Children {
		if child.XMLName == name {
			matched = append(matched, node{
				element: child,
				path:    fmt.Sprintf("%s[%d]", n.childPath(local), len(matched)+1),
			})
		}
	}

	return matched
}

// optionalText returns the trimmed text of a child, or "" when it is absent.
func (n node) optionalText(local string) string {
	text, _ := n.lookupText(local)
	return text
}

// mandatoryText returns the trimmed text of a child or fails with
// ErrMissingField.
func (n node) mandatoryText(local string) (string, error) {
	text, ok := n.lookupText(local)
	if !ok {
		return "", missingField(local, n.childPath(local))
	}

	return text, nil
}

func (n node) lookupText(local string) (string, bool) {
	child, ok := n.optionalChild(local)
	if !ok {
		return "", false
	}

	return strings.TrimSpace(child.element.Text), true
}
