package parser

import (
	"log/slog"
	"strings"
	"time"

	"github.com/brunobiangulo/slidedeck/archive"
	"github.com/brunobiangulo/slidedeck/geometry"
)

const (
	presentationPath = "ppt/presentation.xml"
	corePropsPath    = "docProps/core.xml"
	appPropsPath     = "docProps/app.xml"
)

type xmlPresentation struct {
	SldSz  *xmlSize `xml:"sldSz"`
	SldIDs []struct {
		ID string `xml:"id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type xmlCoreProps struct {
	Title    string `xml:"title"`
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

type xmlAppProps struct {
	Application string `xml:"Application"`
}

// extractMetadata never fails. Missing or malformed parts leave the
// corresponding fields at their defaults.
func extractMetadata(ar *archive.Reader, log *slog.Logger) Metadata {
	md := Metadata{Dimensions: Dimensions{Width: DefaultWidth, Height: DefaultHeight}}

	if data, err := ar.ReadBytes(presentationPath); err != nil {
		log.Warn("pptx: presentation descriptor unreadable, using defaults", "error", err)
	} else {
		var pres xmlPresentation
		if err := decodeXML(data, &pres); err != nil {
			log.Warn("pptx: presentation descriptor malformed, using defaults", "error", err)
		} else {
			if pres.SldSz != nil && pres.SldSz.CX > 0 && pres.SldSz.CY > 0 {
				md.Dimensions = Dimensions{
					Width:  geometry.ToPixels(pres.SldSz.CX),
					Height: geometry.ToPixels(pres.SldSz.CY),
				}
			}
			md.TotalSlides = len(pres.SldIDs)
		}
	}

	if data, err := ar.ReadBytes(corePropsPath); err == nil {
		var core xmlCoreProps
		if err := decodeXML(data, &core); err != nil {
			log.Debug("pptx: core properties malformed", "error", err)
		} else {
			md.Title = strings.TrimSpace(core.Title)
			md.Author = strings.TrimSpace(core.Creator)
			md.Created = normalizeTimestamp(core.Created)
			md.Modified = normalizeTimestamp(core.Modified)
		}
	}

	if data, err := ar.ReadBytes(appPropsPath); err == nil {
		var app xmlAppProps
		if err := decodeXML(data, &app); err == nil {
			md.Application = strings.TrimSpace(app.Application)
		}
	}

	return md
}

// normalizeTimestamp reformats W3CDTF dates as RFC 3339 in UTC. Values that
// do not parse are kept verbatim.
func normalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return s
}
