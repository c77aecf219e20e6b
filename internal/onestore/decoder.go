// Package onestore reads text out of OneNote section files. Decoding the
// binary property tree is delegated to a Decoder; this package only filters
// the records it yields.
package onestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const (
	// TextKey holds a record's Unicode text payload.
	TextKey = "RichEditTextUnicode"
	// TitleNode is the type tag of page title records.
	TitleNode = "jcidTitleNode"
)

// Record is one decoded property set.
type Record struct {
	Type  string `json:"type"`
	Value any    `json:"val"`
}

// Text returns the trimmed text payload, or "" when the record carries none.
func (r Record) Text() string {
	m, ok := r.Value.(map[string]any)
	if !ok {
		return ""
	}
	s, ok := m[TextKey].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Decoder turns the bytes of one section file into its property records.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) ([]Record, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, r io.Reader) ([]Record, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, r io.Reader) ([]Record, error) {
	return f(ctx, r)
}

// CommandDecoder runs an external helper that reads a section file on stdin
// and writes a JSON array of {"type": ..., "val": {...}} objects to stdout.
type CommandDecoder struct {
	Command []string
	Timeout time.Duration
}

// NewCommandDecoder returns a CommandDecoder for argv.
func NewCommandDecoder(argv []string, timeout time.Duration) *CommandDecoder {
	return &CommandDecoder{Command: argv, Timeout: timeout}
}

// Decode runs the helper with r as its stdin.
func (d *CommandDecoder) Decode(ctx context.Context, r io.Reader) ([]Record, error) {
	if len(d.Command) == 0 {
		return nil, errors.New("onestore: decoder command is empty")
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.Command[0], d.Command[1:]...)
	cmd.Stdin = r
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("onestore: decoder timed out: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("onestore: decoder failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("onestore: decoder failed: %w", err)
	}
	return ParseRecords(stdout.Bytes())
}

// ParseRecords decodes the helper's JSON output. A leading UTF-8 BOM is ignored.
func ParseRecords(data []byte) ([]Record, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("onestore: parse records: %w", err)
	}
	return recs, nil
}
