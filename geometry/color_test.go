package geometry

import "testing"

func TestResolveColor(t *testing.T) {
	tests := []struct {
		name string
		fill Fill
		want string
	}{
		{"direct rgb", Fill{RGB: "ff0000"}, "#FF0000"},
		{"rgb wins over scheme", Fill{RGB: "00FF00", Scheme: "accent1"}, "#00FF00"},
		{"malformed rgb", Fill{RGB: "12345"}, Black},
		{"non-hex rgb", Fill{RGB: "GGGGGG"}, Black},
		{"accent1", Fill{Scheme: "accent1"}, "#4472C4"},
		{"accent6", Fill{Scheme: "accent6"}, "#70AD47"},
		{"dark1 long name", Fill{Scheme: "dark1"}, "#000000"},
		{"light1 long name", Fill{Scheme: "light1"}, "#FFFFFF"},
		{"dk2", Fill{Scheme: "dk2"}, "#1F497D"},
		{"lt2", Fill{Scheme: "lt2"}, "#EEECE1"},
		{"bg1 mapping", Fill{Scheme: "bg1"}, "#FFFFFF"},
		{"tx1 mapping", Fill{Scheme: "tx1"}, "#000000"},
		{"unknown token", Fill{Scheme: "hlink"}, Black},
		{"phClr", Fill{Scheme: "phClr"}, Black},
		{"empty", Fill{}, Black},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveColor(tt.fill); got != tt.want {
				t.Errorf("ResolveColor(%+v) = %q, want %q", tt.fill, got, tt.want)
			}
		})
	}
}

func TestSchemeTableComplete(t *testing.T) {
	for _, token := range []string{
		"dark1", "light1", "dark2", "light2",
		"accent1", "accent2", "accent3", "accent4", "accent5", "accent6",
	} {
		if _, ok := SchemeColor(token); !ok {
			t.Errorf("SchemeColor(%q) not found", token)
		}
	}
}
