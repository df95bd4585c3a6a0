package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/format"
)

var outputJSON bool

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fatal("Failed to encode JSON", err)
	}
}

func printDocument(doc core.Document) {
	if outputJSON {
		printJSON(doc)
		return
	}
	data, err := format.EncodeDocument(doc)
	if err != nil {
		fatal("Failed to encode document", err)
	}
	os.Stdout.Write(data)
}

// readDocument parses YAML (or JSON, a YAML subset) from a file or stdin ("-").
func readDocument(path string) core.Document {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		fatal("Failed to read input", err)
	}
	doc, err := format.DecodeDocument(data)
	if err != nil {
		fatal("Failed to parse input", err)
	}
	return doc
}
