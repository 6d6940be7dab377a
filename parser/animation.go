package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"

	"golang.org/x/net/html/charset"
)

var presetClasses = map[string]string{
	"entr":  "entrance",
	"exit":  "exit",
	"emph":  "emphasis",
	"path":  "path",
	"verb":  "other",
	"media": "other",
}

// effectFrame tracks one open p:cTn element while walking the timing tree.
type effectFrame struct {
	effect *AnimationData
}

// extractAnimations walks p:timing and returns one AnimationData per time
// node that carries a preset class, in document order. The effect's target,
// delay and duration come from its descendants (p:spTgt, p:cond, child p:cTn).
func extractAnimations(slideXML []byte) ([]AnimationData, error) {
	d := xml.NewDecoder(bytes.NewReader(slideXML))
	d.CharsetReader = charset.NewReaderLabel

	var (
		out      []AnimationData
		stack    []effectFrame
		inTiming int
	)

	nearest := func() *AnimationData {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].effect != nil {
				return stack[i].effect
			}
		}
		return nil
	}

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "timing" {
				inTiming++
				continue
			}
			if inTiming == 0 {
				continue
			}
			switch el.Name.Local {
			case "cTn":
				frame := effectFrame{}
				if class := attr(el, "presetClass"); class != "" {
					kind, ok := presetClasses[class]
					if !ok {
						kind = "other"
					}
					frame.effect = &AnimationData{
						Type:     kind,
						PresetID: atoiOr(attr(el, "presetID"), 0),
						DelayMs:  -1,
					}
				} else if eff := nearest(); eff != nil {
					if dur := atoiOr(attr(el, "dur"), 0); dur > eff.DurationMs {
						eff.DurationMs = dur
					}
				}
				stack = append(stack, frame)
			case "cond":
				if eff := nearest(); eff != nil && eff.DelayMs < 0 {
					eff.DelayMs = atoiOr(attr(el, "delay"), 0)
				}
			case "spTgt":
				if eff := nearest(); eff != nil && eff.ShapeID == "" {
					eff.ShapeID = attr(el, "spid")
				}
			}
		case xml.EndElement:
			switch {
			case el.Name.Local == "timing" && inTiming > 0:
				inTiming--
			case el.Name.Local == "cTn" && inTiming > 0 && len(stack) > 0:
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.effect != nil {
					if top.effect.DelayMs < 0 {
						top.effect.DelayMs = 0
					}
					out = append(out, *top.effect)
				}
			}
		}
	}
}

// transitionOf returns the transition name and display duration of a slide.
func transitionOf(doc *xmlSlide) (string, int) {
	t := doc.Transition
	if t == nil {
		for _, alt := range doc.Alternate {
			if alt.Fallback != nil && alt.Fallback.Transition != nil {
				t = alt.Fallback.Transition
				break
			}
			if alt.Choice != nil && alt.Choice.Transition != nil {
				t = alt.Choice.Transition
			}
		}
	}
	if t == nil {
		return DefaultTransition, DefaultDurationMs
	}

	name := DefaultTransition
	for _, eff := range t.Effects {
		if eff.XMLName.Local != "" && eff.XMLName.Local != "extLst" && eff.XMLName.Local != "sndAc" {
			name = eff.XMLName.Local
			break
		}
	}
	dur := DefaultDurationMs
	if adv := atoiOr(t.AdvTm, 0); adv > 0 {
		dur = adv
	}
	return name, dur
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
