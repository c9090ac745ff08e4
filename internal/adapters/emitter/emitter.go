// Package emitter writes the generated CI document to disk.
package emitter

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/cigen/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	header         = "# This file is generated by cigen. Do not edit.\n"
	checksumPrefix = "# checksum: "
	indent         = 2
)

// Emitter implements ports.Emitter for YAML documents.
// Every file starts with a header carrying the checksum of the body, so
// hand edits and outdated files can be told apart.
type Emitter struct{}

// New creates a new Emitter.
func New() *Emitter {
	return &Emitter{}
}

// Encode returns the YAML body of document.
func Encode(document any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(document); err != nil {
		return nil, zerr.Wrap(err, "failed to encode document")
	}
	if err := enc.Close(); err != nil {
		return nil, zerr.Wrap(err, "failed to encode document")
	}
	return buf.Bytes(), nil
}

// Checksum returns the checksum recorded for body.
func Checksum(body []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(body))
}

func render(body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString(checksumPrefix + Checksum(body) + "\n")
	buf.Write(body)
	return buf.Bytes()
}

// parse splits a generated file into its recorded checksum and body.
func parse(content []byte) (sum string, body []byte, ok bool) {
	rest := content
	for len(rest) > 0 && rest[0] == '#' {
		line, tail, _ := bytes.Cut(rest, []byte("\n"))
		rest = tail
		if s, found := strings.CutPrefix(string(line), checksumPrefix); found {
			return strings.TrimSpace(s), rest, true
		}
	}
	return "", nil, false
}

// Emit writes document to path unless the file already holds it.
func (e *Emitter) Emit(path string, document any) (bool, error) {
	body, err := Encode(document)
	if err != nil {
		return false, err
	}
	content := render(body)

	existing, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}

	if err := os.WriteFile(path, content, 0o644); err != nil { //nolint:gosec // generated document is public
		return false, zerr.With(zerr.Wrap(err, "failed to write document"), "path", path)
	}
	return true, nil
}

// Check verifies that path holds document.
func (e *Emitter) Check(path string, document any) error {
	body, err := Encode(document)
	if err != nil {
		return err
	}
	want := Checksum(body)

	existing, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrOutputStale, "cannot read "+path+": "+err.Error()), "path", path)
	}

	recorded, existingBody, ok := parse(existing)
	switch {
	case !ok:
		return zerr.With(zerr.Wrap(domain.ErrOutputStale, path+" has no checksum header"), "path", path)
	case Checksum(existingBody) != recorded:
		return zerr.With(zerr.Wrap(domain.ErrOutputStale, path+" was edited by hand"), "path", path)
	case recorded != want:
		err := zerr.Wrap(domain.ErrOutputStale, path+" does not match the pipeline, regenerate it")
		err = zerr.With(err, "path", path)
		return zerr.With(err, "checksum", recorded)
	}
	return nil
}
