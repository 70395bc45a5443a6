package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bookpublish/internal/entity"

	"gopkg.in/yaml.v3"
)

// loadBook reads a book bundle. Files ending in .json are JSON; anything
// else is YAML.
func loadBook(path string) (entity.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Book{}, fmt.Errorf("read book: %w", err)
	}

	var book entity.Book
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &book)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&book)
	}
	if err != nil {
		return entity.Book{}, &entity.InvalidInputError{Field: "input", Reason: fmt.Sprintf("%s: %v", path, err)}
	}
	return book, nil
}

// writeOutput prints v as json or yaml. YAML keys follow the json tags.
func writeOutput(w io.Writer, v any, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return err
		}
		blockStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (want yaml or json)", format)
	}
}

// blockStyle drops the flow style the JSON source gave every node.
func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	for _, c := range n.Content {
		blockStyle(c)
	}
}
