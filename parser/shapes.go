package parser

import (
	"encoding/xml"

	"github.com/brunobiangulo/slidedeck/geometry"
)

// Shape is one classified element of a slide's shape tree. The concrete type
// is one of *TextShape, *PictureShape or *GraphicFrameShape; group shapes are
// flattened into their children during classification.
type Shape interface {
	frame() *shapeFrame
}

type shapeFrame struct {
	ID   string
	Name string
	Off  *geometry.Point
	Ext  *geometry.Size
}

func (f *shapeFrame) frame() *shapeFrame { return f }

func (f *shapeFrame) rect() geometry.Rect { return geometry.Resolve(f.Off, f.Ext) }

// TextShape is a p:sp. It may carry a text body, a picture fill, or both.
type TextShape struct {
	shapeFrame
	Placeholder string
	Body        *xmlTextBody
	BlipEmbed   string
}

// PictureShape is a p:pic.
type PictureShape struct {
	shapeFrame
	Descr     string
	BlipEmbed string
}

// GraphicFrameShape is a p:graphicFrame (tables, charts, diagrams). Only
// table text is extracted.
type GraphicFrameShape struct {
	shapeFrame
	Rows []xmlTableRow
}

type xmlShape struct {
	NvPr        xmlNonVisual    `xml:"nvSpPr>cNvPr"`
	Placeholder *xmlPlaceholder `xml:"nvSpPr>nvPr>ph"`
	SpPr        struct {
		Xfrm     *xmlXfrm     `xml:"xfrm"`
		BlipFill *xmlBlipFill `xml:"blipFill"`
	} `xml:"spPr"`
	TxBody *xmlTextBody `xml:"txBody"`
}

type xmlPicture struct {
	NvPr     xmlNonVisual `xml:"nvPicPr>cNvPr"`
	BlipFill *xmlBlipFill `xml:"blipFill"`
	SpPr     struct {
		Xfrm *xmlXfrm `xml:"xfrm"`
	} `xml:"spPr"`
}

type xmlGraphicFrame struct {
	NvPr xmlNonVisual  `xml:"nvGraphicFramePr>cNvPr"`
	Xfrm *xmlXfrm      `xml:"xfrm"`
	Rows []xmlTableRow `xml:"graphic>graphicData>tbl>tr"`
}

type xmlGroupProps struct {
	Xfrm *xmlXfrm `xml:"xfrm"`
}

// shapeTree classifies the children of p:spTree (or p:grpSp) in document order.
type shapeTree struct {
	Shapes []Shape
	xfrm   *xmlXfrm
}

func (t *shapeTree) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if err := t.classify(d, el); err != nil {
				return err
			}
		}
	}
}

func (t *shapeTree) classify(d *xml.Decoder, el xml.StartElement) error {
	switch el.Name.Local {
	case "sp":
		var x xmlShape
		if err := d.DecodeElement(&x, &el); err != nil {
			return err
		}
		s := &TextShape{
			shapeFrame: newFrame(x.NvPr, x.SpPr.Xfrm),
			Body:       x.TxBody,
			BlipEmbed:  x.SpPr.BlipFill.embedID(),
		}
		if x.Placeholder != nil {
			s.Placeholder = x.Placeholder.Type
		}
		t.Shapes = append(t.Shapes, s)
	case "pic":
		var x xmlPicture
		if err := d.DecodeElement(&x, &el); err != nil {
			return err
		}
		t.Shapes = append(t.Shapes, &PictureShape{
			shapeFrame: newFrame(x.NvPr, x.SpPr.Xfrm),
			Descr:      x.NvPr.Descr,
			BlipEmbed:  x.BlipFill.embedID(),
		})
	case "graphicFrame":
		var x xmlGraphicFrame
		if err := d.DecodeElement(&x, &el); err != nil {
			return err
		}
		t.Shapes = append(t.Shapes, &GraphicFrameShape{
			shapeFrame: newFrame(x.NvPr, x.Xfrm),
			Rows:       x.Rows,
		})
	case "grpSp":
		var g shapeTree
		if err := d.DecodeElement(&g, &el); err != nil {
			return err
		}
		for _, s := range g.Shapes {
			g.place(s.frame())
		}
		t.Shapes = append(t.Shapes, g.Shapes...)
	case "grpSpPr":
		var p xmlGroupProps
		if err := d.DecodeElement(&p, &el); err != nil {
			return err
		}
		t.xfrm = p.Xfrm
	case "AlternateContent":
		// Content needing an extension lives in Choice; Fallback is plain
		// DrawingML that every consumer understands.
		var alt struct {
			Fallback shapeTree `xml:"Fallback"`
		}
		if err := d.DecodeElement(&alt, &el); err != nil {
			return err
		}
		t.Shapes = append(t.Shapes, alt.Fallback.Shapes...)
	default:
		return d.Skip()
	}
	return nil
}

// place maps a child frame from the group's child coordinate space onto the
// slide. Groups without a complete transform leave children untouched.
func (t *shapeTree) place(f *shapeFrame) {
	x := t.xfrm
	if x == nil || x.Off == nil || x.Ext == nil || x.ChOff == nil || x.ChExt == nil {
		return
	}
	if x.ChExt.CX == 0 || x.ChExt.CY == 0 {
		return
	}
	sx := float64(x.Ext.CX) / float64(x.ChExt.CX)
	sy := float64(x.Ext.CY) / float64(x.ChExt.CY)
	if f.Off != nil {
		f.Off = &geometry.Point{
			X: x.Off.X + int64(float64(f.Off.X-x.ChOff.X)*sx),
			Y: x.Off.Y + int64(float64(f.Off.Y-x.ChOff.Y)*sy),
		}
	}
	if f.Ext != nil {
		f.Ext = &geometry.Size{
			CX: int64(float64(f.Ext.CX) * sx),
			CY: int64(float64(f.Ext.CY) * sy),
		}
	}
}

func newFrame(nv xmlNonVisual, x *xmlXfrm) shapeFrame {
	f := shapeFrame{ID: nv.ID, Name: nv.Name}
	if x != nil {
		f.Off = x.Off.point()
		f.Ext = x.Ext.size()
	}
	return f
}
