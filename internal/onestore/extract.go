package onestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Extractor pulls text fragments and page titles out of section files.
// Decode failures are logged and yield an empty result, so an empty slice
// means "no content or unreadable".
type Extractor struct {
	dec    Decoder
	logger *slog.Logger
}

// NewExtractor returns an Extractor backed by dec.
func NewExtractor(dec Decoder, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{dec: dec, logger: logger}
}

// ExtractText returns every non-empty text payload in decoder order.
func (e *Extractor) ExtractText(ctx context.Context, path string) []string {
	recs, err := e.records(ctx, path)
	if err != nil {
		e.logger.Warn("failed to parse section file", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	var out []string
	for _, r := range recs {
		if t := r.Text(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ExtractTitles returns the text of title-node records in decoder order.
func (e *Extractor) ExtractTitles(ctx context.Context, path string) []string {
	recs, err := e.records(ctx, path)
	if err != nil {
		e.logger.Warn("failed to extract titles", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	var out []string
	for _, r := range recs {
		if r.Type != TitleNode {
			continue
		}
		if t := r.Text(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (e *Extractor) records(ctx context.Context, path string) (recs []Record, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	defer func() {
		if r := recover(); r != nil {
			recs, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return e.dec.Decode(ctx, f)
}
