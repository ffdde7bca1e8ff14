// Package dot serializes commit graphs as Graphviz DOT source.
//
// # Output
//
// [Lines] returns one statement per line:
//
//	digraph {
//		"<id>"[label="v1.0\nmain", color="/pastel13/3", style=filled];
//		"<id>"[label="..."];
//		"<id>"[label="1a2b3c4"];
//		"<child>" -> "<parent>";
//	}
//
// Referenced commits are filled with a pastel13 color: 1 for tags only, 2 for
// branches only, 3 for both. Edges point from a commit to its parent.
//
// Plain commits only get an explicit node while ids are abbreviated
// ([Options.Digits]); otherwise Graphviz draws them as anonymous nodes named by
// their full id.
//
// # Images
//
// [Render] hands DOT source to Graphviz (in-process, via
// [github.com/goccy/go-graphviz]) and returns SVG, PNG or JPG bytes. PDF goes
// through SVG and rsvg-convert.
package dot
