package ramp

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/geoproc/bccbar/diag"
	"golang.org/x/net/html/charset"
)

// attr does a case insensitive attribute lookup.
func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

func attrFloat(se xml.StartElement, names ...string) (float64, bool) {
	for _, name := range names {
		v, ok := attr(se, name)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

func readItem(se xml.StartElement) ColorItem {
	var it ColorItem
	it.Value, _ = attr(se, "value")
	it.Label, _ = attr(se, "label")
	it.Color, _ = attr(se, "color")
	it.Alpha, _ = attr(se, "alpha")
	return it
}

// readQML extracts the renderer of a QGIS 3 layer style.
func readQML(r io.Reader, name string) (*StyleRecord, error) {
	rec := newRecord(name)
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	var (
		seenRoot     bool
		seenRenderer bool
		hasBand      bool
		shaderMin    = rec.ClassificationMin
		shaderMax    = rec.ClassificationMax
	)
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, diag.Wrap(diag.UnsupportedFormat, err, "reading QML")
		}
		se, ok := t.(xml.StartElement)
		if !ok {
			continue
		}
		tag := strings.ToLower(se.Name.Local)
		if !seenRoot {
			if tag != "qgis" {
				return nil, diag.New(diag.UnsupportedFormat, "root element is <%s>, not <qgis>", se.Name.Local)
			}
			version, _ := attr(se, "version")
			if !strings.HasPrefix(strings.TrimSpace(version), "3") {
				return nil, diag.New(diag.UnsupportedFormat, "QGIS version %q is not supported", version)
			}
			seenRoot = true
			continue
		}
		switch tag {
		case "rasterrenderer":
			if seenRenderer { // nested renderers (e.g. hillshade) are ignored
				continue
			}
			seenRenderer = true
			rec.RendererType, _ = attr(se, "type")
			if b, ok := attr(se, "band"); ok {
				hasBand = true
				rec.Band, err = strconv.Atoi(strings.TrimSpace(b))
				if err != nil {
					return nil, diag.New(diag.UnsupportedFormat, "invalid band %q", b)
				}
			} else if strings.EqualFold(rec.RendererType, "multibandcolor") {
				// multiband renderers use redBand, greenBand, blueBand
				hasBand, rec.Band = true, 3
			}
			if f, ok := attrFloat(se, "classificationMin"); ok {
				rec.ClassificationMin = f
			}
			if f, ok := attrFloat(se, "classificationMax"); ok {
				rec.ClassificationMax = f
			}
		case "colorrampshader":
			rec.RampType, _ = attr(se, "colorRampType")
			rec.ClassificationMode, _ = attr(se, "classificationMode")
			if f, ok := attrFloat(se, "minimumValue"); ok {
				shaderMin = f
			}
			if f, ok := attrFloat(se, "maximumValue"); ok {
				shaderMax = f
			}
		case "item", "paletteentry":
			rec.Items = append(rec.Items, readItem(se))
		}
	}
	if !seenRoot {
		return nil, diag.New(diag.UnsupportedFormat, "empty document")
	}
	if !seenRenderer || !hasBand {
		return nil, diag.New(diag.NotStyled, "no raster renderer band")
	}
	if rec.ClassificationMin != rec.ClassificationMin { // NaN
		rec.ClassificationMin = shaderMin
	}
	if rec.ClassificationMax != rec.ClassificationMax {
		rec.ClassificationMax = shaderMax
	}
	return rec, nil
}
