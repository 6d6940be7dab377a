package parser

import (
	"bytes"
	"encoding/xml"

	"golang.org/x/net/html/charset"

	"github.com/brunobiangulo/slidedeck/geometry"
)

// decodeXML unmarshals an OOXML part. Parts declaring a non-UTF-8 encoding
// are transcoded on the fly.
func decodeXML(data []byte, v any) error {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel
	return d.Decode(v)
}

// Field names below match element local names; encoding/xml ignores the
// namespace prefix when a tag carries none, so p:, a: and r: all match.

type xmlSlide struct {
	CSld       xmlCommonSlide  `xml:"cSld"`
	Transition *xmlTransition  `xml:"transition"`
	Alternate  []xmlAltContent `xml:"AlternateContent"`
}

// xmlAltContent wraps transitions written with newer extensions; the
// Fallback branch always holds a plain p:transition.
type xmlAltContent struct {
	Choice   *xmlTransitionHolder `xml:"Choice"`
	Fallback *xmlTransitionHolder `xml:"Fallback"`
}

type xmlTransitionHolder struct {
	Transition *xmlTransition `xml:"transition"`
}

type xmlCommonSlide struct {
	Bg   *xmlBackground `xml:"bg"`
	Tree shapeTree      `xml:"spTree"`
}

type xmlTransition struct {
	Speed   string        `xml:"spd,attr"`
	AdvTm   string        `xml:"advTm,attr"`
	Effects []xmlAnyEmpty `xml:",any"`
}

type xmlAnyEmpty struct {
	XMLName xml.Name
}

type xmlBackground struct {
	BgPr  *xmlBackgroundProps `xml:"bgPr"`
	BgRef *xmlBackgroundRef   `xml:"bgRef"`
}

type xmlBackgroundProps struct {
	SolidFill *xmlColorChoice `xml:"solidFill"`
	GradFill  *xmlGradFill    `xml:"gradFill"`
	BlipFill  *xmlBlipFill    `xml:"blipFill"`
	NoFill    *xmlAnyEmpty    `xml:"noFill"`
}

type xmlBackgroundRef struct {
	Idx int `xml:"idx,attr"`
	xmlColorChoice
}

// xmlColorChoice is the DrawingML color choice group.
type xmlColorChoice struct {
	SrgbClr   *xmlColorVal `xml:"srgbClr"`
	SchemeClr *xmlColorVal `xml:"schemeClr"`
	SysClr    *xmlSysColor `xml:"sysClr"`
}

type xmlColorVal struct {
	Val string `xml:"val,attr"`
}

type xmlSysColor struct {
	Val     string `xml:"val,attr"`
	LastClr string `xml:"lastClr,attr"`
}

func (c *xmlColorChoice) declared() bool {
	return c != nil && (c.SrgbClr != nil || c.SchemeClr != nil || c.SysClr != nil)
}

func (c *xmlColorChoice) fill() geometry.Fill {
	switch {
	case c == nil:
		return geometry.Fill{}
	case c.SrgbClr != nil:
		return geometry.Fill{RGB: c.SrgbClr.Val}
	case c.SchemeClr != nil:
		return geometry.Fill{Scheme: c.SchemeClr.Val}
	case c.SysClr != nil:
		return geometry.Fill{RGB: c.SysClr.LastClr}
	}
	return geometry.Fill{}
}

type xmlGradFill struct {
	Stops []xmlGradStop `xml:"gsLst>gs"`
}

type xmlGradStop struct {
	Pos int `xml:"pos,attr"`
	xmlColorChoice
}

type xmlBlipFill struct {
	Blip *xmlBlip `xml:"blip"`
}

type xmlBlip struct {
	Embed string `xml:"embed,attr"`
}

func (b *xmlBlipFill) embedID() string {
	if b == nil || b.Blip == nil {
		return ""
	}
	return b.Blip.Embed
}

type xmlXfrm struct {
	Off   *xmlPoint `xml:"off"`
	Ext   *xmlSize  `xml:"ext"`
	ChOff *xmlPoint `xml:"chOff"`
	ChExt *xmlSize  `xml:"chExt"`
}

type xmlPoint struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type xmlSize struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

func (p *xmlPoint) point() *geometry.Point {
	if p == nil {
		return nil
	}
	return &geometry.Point{X: p.X, Y: p.Y}
}

func (s *xmlSize) size() *geometry.Size {
	if s == nil {
		return nil
	}
	return &geometry.Size{CX: s.CX, CY: s.CY}
}

type xmlNonVisual struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"`
}

type xmlPlaceholder struct {
	Type string `xml:"type,attr"`
	Idx  string `xml:"idx,attr"`
}

type xmlTextBody struct {
	Paras []xmlPara `xml:"p"`
}

type xmlPara struct {
	PPr  *xmlParaProps `xml:"pPr"`
	Runs []xmlRun      `xml:"r"`
}

type xmlParaProps struct {
	Algn string `xml:"algn,attr"`
}

type xmlRun struct {
	RPr  *xmlRunProps `xml:"rPr"`
	Text string       `xml:"t"`
}

type xmlRunProps struct {
	Sz        *int            `xml:"sz,attr"`
	B         *bool           `xml:"b,attr"`
	I         *bool           `xml:"i,attr"`
	U         *string         `xml:"u,attr"`
	SolidFill *xmlColorChoice `xml:"solidFill"`
	Latin     *xmlTypeface    `xml:"latin"`
}

type xmlTypeface struct {
	Typeface string `xml:"typeface,attr"`
}

type xmlTableRow struct {
	Cells []xmlTableCell `xml:"tc"`
}

type xmlTableCell struct {
	TxBody *xmlTextBody `xml:"txBody"`
}

// Relationship manifests (.rels), shared by every OOXML part.
type xmlRelationships struct {
	XMLName xml.Name          `xml:"Relationships"`
	Rels    []xmlRelationship `xml:"Relationship"`
}

type xmlRelationship struct {
	ID         string `xml:"Id,attr"`
	Target     string `xml:"Target,attr"`
	Type       string `xml:"Type,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}
