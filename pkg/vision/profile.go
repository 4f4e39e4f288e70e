// Package vision defines the user's color-vision profile: which
// deficiency they have and which colors that makes hard to distinguish.
// The rest of the pipeline treats a Profile as immutable per detection
// cycle; it is supplied by the settings layer and only read here.
package vision

import "strings"

// Type identifies a color-vision deficiency.
type Type string

const (
	TypeNormal        Type = "normal"
	TypeProtanopia    Type = "protanopia"    // red-blind
	TypeProtanomaly   Type = "protanomaly"   // red-weak
	TypeDeuteranopia  Type = "deuteranopia"  // green-blind
	TypeDeuteranomaly Type = "deuteranomaly" // green-weak
	TypeTritanopia    Type = "tritanopia"    // blue-blind
	TypeTritanomaly   Type = "tritanomaly"   // blue-weak
	TypeAchromatopsia Type = "achromatopsia" // complete color blindness

	// TypeLowVision is a wildcard profile: every hazard rule applies,
	// regardless of which colors the rule targets.
	TypeLowVision Type = "low_vision"
)

// Color names used in hazard rules and affected-color sets.
const (
	ColorRed    = "red"
	ColorOrange = "orange"
	ColorYellow = "yellow"
	ColorGreen  = "green"
	ColorCyan   = "cyan"
	ColorBlue   = "blue"
	ColorPurple = "purple"
	ColorWhite  = "white"
	ColorBlack  = "black"
)

var allColors = []string{
	ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorCyan,
	ColorBlue, ColorPurple, ColorWhite, ColorBlack,
}

// affectedColors maps each deficiency to the colors it makes hard to
// tell apart.
var affectedColors = map[Type][]string{
	TypeNormal:        nil,
	TypeProtanopia:    {ColorRed, ColorOrange, ColorGreen},
	TypeProtanomaly:   {ColorRed, ColorOrange},
	TypeDeuteranopia:  {ColorRed, ColorGreen, ColorYellow},
	TypeDeuteranomaly: {ColorGreen, ColorYellow},
	TypeTritanopia:    {ColorBlue, ColorYellow, ColorCyan},
	TypeTritanomaly:   {ColorBlue, ColorYellow},
	TypeAchromatopsia: allColors,
	TypeLowVision:     allColors,
}

// Profile is a user's vision type plus the set of colors it affects.
type Profile struct {
	Type           Type
	AffectedColors map[string]bool
}

// NewProfile builds a Profile for the given type with its standard
// affected-color set.
func NewProfile(t Type) Profile {
	colors := make(map[string]bool, len(affectedColors[t]))
	for _, c := range affectedColors[t] {
		colors[c] = true
	}
	return Profile{Type: t, AffectedColors: colors}
}

// Affected reports whether the profile has trouble with the given color.
func (p Profile) Affected(color string) bool {
	return p.AffectedColors[color]
}

// Wildcard reports whether the profile matches every hazard rule.
func (p Profile) Wildcard() bool {
	return p.Type == TypeLowVision
}

// ParseType normalizes a vision type string. Unknown values map to
// normal rather than failing: a bad settings value should never break
// the pipeline.
func ParseType(s string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeProtanopia:
		return TypeProtanopia
	case TypeProtanomaly:
		return TypeProtanomaly
	case TypeDeuteranopia:
		return TypeDeuteranopia
	case TypeDeuteranomaly:
		return TypeDeuteranomaly
	case TypeTritanopia:
		return TypeTritanopia
	case TypeTritanomaly:
		return TypeTritanomaly
	case TypeAchromatopsia:
		return TypeAchromatopsia
	case TypeLowVision:
		return TypeLowVision
	default:
		return TypeNormal
	}
}

// InferRedGreenType distinguishes protanopia from deuteranopia given
// per-channel error rates from a screening test. Deuteranopia is the
// more common deficiency, so ambiguous results default to it.
func InferRedGreenType(redErrors, greenErrors float64) Type {
	if redErrors > greenErrors*1.25 {
		return TypeProtanopia
	}
	return TypeDeuteranopia
}
