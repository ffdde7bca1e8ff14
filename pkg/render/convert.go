package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ErrNoRsvg is returned when rsvg-convert is not on PATH.
var ErrNoRsvg = errors.New("rsvg-convert not found; install librsvg (brew install librsvg / apt install librsvg2-bin)")

func rsvgConvert(ctx context.Context, svg []byte, format string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, fmt.Errorf("%s export: %w", format, ErrNoRsvg)
	}

	cmd := exec.CommandContext(ctx, "rsvg-convert", "-f", format)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %w: %s", err, errBuf.String())
	}
	return out.Bytes(), nil
}
