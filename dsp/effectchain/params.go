package effectchain

import (
	"math"
	"strings"
)

// Params holds the parsed parameters for a single chain node.
type Params struct {
	ID       string
	Type     string
	Bypassed bool
	Num      map[string]float64
	Str      map[string]string
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// GetBool extracts a toggle. Numeric values are true when non-zero; string
// values accept true/false, on/off, yes/no and 1/0. Missing or unparseable
// values return def. A numeric entry takes precedence over a string entry.
func (p Params) GetBool(key string, def bool) bool {
	if v, ok := p.Num[key]; ok && !math.IsNaN(v) {
		return v != 0
	}

	s, ok := p.Str[key]
	if !ok {
		return def
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "yes", "1":
		return true
	case "false", "off", "no", "0":
		return false
	default:
		return def
	}
}
