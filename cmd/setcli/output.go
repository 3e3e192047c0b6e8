package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WithMessage(err, "encode output")
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

// readInput returns the contents of path; "-" reads stdin.
func readInput(path string, stdin io.Reader) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "read %s", path)
	}
	return b, nil
}

func readJSON(path string, stdin io.Reader, v any) error {
	b, err := readInput(path, stdin)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.WithMessagef(err, "decode %s", path)
	}
	return nil
}
