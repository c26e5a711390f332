package shader

import "slices"

// None disables post-processing.
const None = "none"

// Info describes a selectable screen effect.
type Info struct {
	ID          string // value stored in config
	Name        string
	Description string
}

// Available lists the effects in menu order.
var Available = []Info{
	{ID: None, Name: "None", Description: "Sharp pixels, no filtering"},
	{ID: "crt", Name: "CRT", Description: "Scanlines, RGB separation and vignette"},
	{ID: "monochrome", Name: "Monochrome", Description: "Black and white"},
	{ID: "vivid", Name: "Vivid", Description: "Boosted saturation"},
}

// IDs returns the ID of every available effect.
func IDs() []string {
	ids := make([]string, len(Available))
	for i, s := range Available {
		ids[i] = s.ID
	}
	return ids
}

// Lookup returns the effect with the given ID.
func Lookup(id string) (Info, bool) {
	i := slices.IndexFunc(Available, func(s Info) bool { return s.ID == id })
	if i < 0 {
		return Info{}, false
	}
	return Available[i], true
}

// Next returns the effect after id, wrapping around. Unknown IDs go to
// the first effect.
func Next(id string) string {
	i := slices.IndexFunc(Available, func(s Info) bool { return s.ID == id })
	return Available[(i+1)%len(Available)].ID
}
