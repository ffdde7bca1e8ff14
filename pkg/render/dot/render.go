package dot

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/bigpicture/pkg/render"
)

// Output formats understood by [Render].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatJPG = "jpg"
	FormatPDF = "pdf"
)

// Formats lists every supported output format.
var Formats = []string{FormatDOT, FormatSVG, FormatPNG, FormatJPG, FormatPDF}

var graphvizFormats = map[string]graphviz.Format{
	FormatSVG: graphviz.SVG,
	FormatPNG: graphviz.PNG,
	FormatJPG: graphviz.JPG,
}

// ValidFormat reports whether format is one of [Formats].
func ValidFormat(format string) bool { return slices.Contains(Formats, format) }

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJPG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}

// Render lays out DOT source with Graphviz and encodes it in format.
//
// FormatDOT returns the source unchanged. FormatPDF renders SVG first and
// converts it with rsvg-convert (see [render.ToPDF]).
func Render(ctx context.Context, src, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatDOT:
		return []byte(src), nil
	case FormatPDF:
		svg, err := renderGraphviz(ctx, src, graphviz.SVG)
		if err != nil {
			return nil, err
		}
		return render.ToPDF(ctx, svg)
	}

	gf, ok := graphvizFormats[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unknown format: %q", format)
	}
	return renderGraphviz(ctx, src, gf)
}

func renderGraphviz(ctx context.Context, src string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
