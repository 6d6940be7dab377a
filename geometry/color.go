package geometry

import "strings"

// Black is returned for anything that cannot be resolved.
const Black = "#000000"

// White is the default slide background.
const White = "#FFFFFF"

// Fill describes a color as declared in DrawingML: either a literal sRGB
// value (a:srgbClr@val) or a theme scheme token (a:schemeClr@val).
type Fill struct {
	RGB    string
	Scheme string
}

// schemeColors is the fixed Office theme palette. It is never written after init.
var schemeColors = map[string]string{
	"dk1":     "#000000",
	"lt1":     "#FFFFFF",
	"dk2":     "#1F497D",
	"lt2":     "#EEECE1",
	"accent1": "#4472C4",
	"accent2": "#ED7D31",
	"accent3": "#A5A5A5",
	"accent4": "#FFC000",
	"accent5": "#5B9BD5",
	"accent6": "#70AD47",
}

// schemeAliases maps long names and the text/background mappings onto the
// palette keys above.
var schemeAliases = map[string]string{
	"dark1":  "dk1",
	"light1": "lt1",
	"dark2":  "dk2",
	"light2": "lt2",
	"tx1":    "dk1",
	"bg1":    "lt1",
	"tx2":    "dk2",
	"bg2":    "lt2",
}

// SchemeColor looks up a scheme token. ok is false for unknown tokens.
func SchemeColor(token string) (string, bool) {
	if alias, ok := schemeAliases[token]; ok {
		token = alias
	}
	c, ok := schemeColors[token]
	return c, ok
}

// ResolveColor returns "#RRGGBB" for a fill. A direct RGB value takes
// precedence over a scheme token; anything unresolvable is Black.
func ResolveColor(f Fill) string {
	if f.RGB != "" {
		if isHex6(f.RGB) {
			return "#" + strings.ToUpper(f.RGB)
		}
		return Black
	}
	if c, ok := SchemeColor(f.Scheme); ok {
		return c
	}
	return Black
}

func isHex6(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
