package siri_vm

import (
	"fmt"
	"io"
)

// ParseXMLFile reads a whole document from reader and decodes it with Parse.
func ParseXMLFile(reader io.Reader) (*Siri, error) {
	byteValue, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading siri-vm document: %w", err)
	}

	return Parse(byteValue)
}
