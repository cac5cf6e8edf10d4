package util

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/kr/pretty"
)

const (
	OutputJSON   = "json"
	OutputCSV    = "csv"
	OutputPretty = "pretty"
)

var OutputFormats = []string{OutputJSON, OutputCSV, OutputPretty}

// WriteOutput renders value in the given format. CSV output needs value to be
// a slice of structs with csv tags.
func WriteOutput(writer io.Writer, format string, value any) error {
	switch format {
	case OutputJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case OutputCSV:
		return gocsv.Marshal(value, writer)
	case OutputPretty:
		_, err := pretty.Fprintf(writer, "%# v\n", value)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
