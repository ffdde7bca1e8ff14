// Package render holds output helpers shared by the graph renderers.
//
// The DOT serializer lives in the [dot] subpackage. This package only provides
// format conversion of already-rendered SVG through the external rsvg-convert
// tool (from librsvg):
//
//	svg, _ := dot.Render(ctx, src, dot.FormatSVG)
//	pdf, err := render.ToPDF(ctx, svg)
package render
