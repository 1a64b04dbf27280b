package svgtrim

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/geoproc/bccbar/diag"
)

// Meta is written in the metadata block of the output.
type Meta struct {
	Title string
	Date  time.Time // zero means now
}

const header = `<?xml version="1.0" encoding="utf-8" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN"
  "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">
<!-- Created with bcCBar from matplotlib (https://matplotlib.org/) -->
<svg
   xmlns:dc="http://purl.org/dc/elements/1.1/"
   xmlns:cc="http://creativecommons.org/ns#"
   xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
   xmlns:xlink="http://www.w3.org/1999/xlink"
   xmlns:svg="http://www.w3.org/2000/svg"
   xmlns="http://www.w3.org/2000/svg"
   height="%[1]spt" width="%[2]spt" viewBox="0 0 %[2]s %[1]s" version="1.1">
  <metadata id="metadata2">
    <rdf:RDF>
      <rdf:Description>
        <dc:description>Colour scalebar generated from a one-band raster in QGIS V3.x processing framework. SVG file to be used in QGIS Composer as a legend item to inform the raster it relates to.</dc:description>
        <dc:date>%[3]s</dc:date>
        <dc:creator>GeoProc.com</dc:creator>
        <dc:publisher rdf:resource="https://github.com/BC-Consulting/bccscbar3"/>
      </rdf:Description>
      <cc:Work rdf:about="">
        <dc:format>image/svg+xml</dc:format>
        <dc:type rdf:resource="http://purl.org/dc/dcmitype/StillImage"/>
        <dc:title>%[4]s</dc:title>
      </cc:Work>
    </rdf:RDF>
  </metadata>
`

func formatNumber(v float64) string {
	if v == 0 {
		v = 0 // no "-0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escape(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// naturalCompare orders strings by their digit runs compared as
// integers, and the rest compared case insensitively.
func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		ca, ra := chunk(a)
		cb, rb := chunk(b)
		da, db := isDigit(ca[0]), isDigit(cb[0])
		var c int
		switch {
		case da && db:
			na, nb := strings.TrimLeft(ca, "0"), strings.TrimLeft(cb, "0")
			if c = len(na) - len(nb); c == 0 {
				c = strings.Compare(na, nb)
			}
		case da:
			c = -1
		case db:
			c = 1
		default:
			c = strings.Compare(strings.ToLower(ca), strings.ToLower(cb))
		}
		if c != 0 {
			return c
		}
		a, b = ra, rb
	}
	return len(a) - len(b)
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// chunk splits the leading run of digits, or of non digits, from s.
func chunk(s string) (string, string) {
	d := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == d {
		i++
	}
	return s[:i], s[i:]
}

// extractDefs detaches every <defs> from the document and returns
// their reusable children, clip paths excepted, sorted by id.
func extractDefs(doc *Document) []*Node {
	var out []*Node
	for _, defs := range doc.Root.FindAll("defs") {
		for _, c := range defs.Children {
			if c.IsText() || c.Name == "clipPath" {
				continue
			}
			out = append(out, c)
		}
		defs.Remove()
	}
	slices.SortStableFunc(out, func(a, b *Node) int { return naturalCompare(a.ID(), b.ID()) })
	return out
}

// Write emits doc cropped to b: a fresh header sized to b, the sorted
// definitions, then the drawing translated to the origin. Clip paths,
// the old metadata and the defs blocks are removed from doc in the process.
func Write(w io.Writer, doc *Document, b Bounds, meta Meta) error {
	if b.Empty() {
		return diag.New(diag.ParseFailure, "nothing to draw")
	}
	date := meta.Date
	if date.IsZero() {
		date = time.Now()
	}
	defs := extractDefs(doc)
	doc.Root.Walk(func(n *Node) bool {
		n.RemoveAttr("clip-path")
		return true
	})

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, header, formatNumber(b.Height()), formatNumber(b.Width()),
		date.Format("2006-01-02"), escape(meta.Title))
	bw.WriteString("  <defs>\n")
	for _, d := range defs {
		d.RemoveAttr("clip-path")
		writeNode(bw, d, 4, true)
	}
	bw.WriteString("  </defs>\n")
	fmt.Fprintf(bw, "  <g id=\"bcCBar\" transform=\"translate(%s %s)\">\n", formatNumber(-b.XMin), formatNumber(-b.YMin))
	if fig := doc.Root.Find("figure_1"); fig != nil {
		writeNode(bw, fig, 4, false)
	} else {
		for _, c := range doc.Root.Children {
			switch c.Name {
			case "metadata", "title", "desc", "sodipodi:namedview":
				continue
			}
			writeNode(bw, c, 4, false)
		}
	}
	bw.WriteString("  </g>\n</svg>\n")
	if err := bw.Flush(); err != nil {
		return diag.Wrap(diag.SaveFailed, err, "writing svg")
	}
	return nil
}

// WriteFile writes the cropped document to path. The file is replaced
// only once completely written.
func WriteFile(path string, doc *Document, b Bounds, meta Meta) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bccbar-*.svg")
	if err != nil {
		return diag.Wrap(diag.SaveFailed, err, "creating "+path)
	}
	defer os.Remove(tmp.Name())
	if err := Write(tmp, doc, b, meta); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return diag.Wrap(diag.SaveFailed, err, "writing "+path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return diag.Wrap(diag.SaveFailed, err, "saving "+path)
	}
	return nil
}

// writeNode prints one element per line, children indented by two
// more spaces. Elements holding only text stay on one line.
func writeNode(w *bufio.Writer, n *Node, indent int, idFirst bool) {
	pad := strings.Repeat(" ", indent)
	if n.IsText() {
		w.WriteString(pad + escape(strings.TrimSpace(n.Data)) + "\n")
		return
	}
	w.WriteString(pad + "<" + n.Name)
	attrs := n.Attrs
	if idFirst {
		attrs = slices.Clone(attrs)
		slices.SortStableFunc(attrs, func(a, b Attr) int {
			switch {
			case a.Name == "id" && b.Name != "id":
				return -1
			case b.Name == "id" && a.Name != "id":
				return 1
			}
			return 0
		})
	}
	for _, a := range attrs {
		w.WriteString(" " + a.Name + "=\"" + escape(a.Value) + "\"")
	}
	switch {
	case len(n.Children) == 0:
		w.WriteString("/>\n")
	case textOnly(n):
		w.WriteString(">")
		for _, c := range n.Children {
			w.WriteString(escape(c.Data))
		}
		w.WriteString("</" + n.Name + ">\n")
	default:
		w.WriteString(">\n")
		for _, c := range n.Children {
			writeNode(w, c, indent+2, idFirst)
		}
		w.WriteString(pad + "</" + n.Name + ">\n")
	}
}

func textOnly(n *Node) bool {
	for _, c := range n.Children {
		if !c.IsText() {
			return false
		}
	}
	return true
}
