package grib

import (
	"errors"
	"fmt"
	"sort"
)

var ErrNotFound = errors.New("grib: no matching message")

// shortNames maps the descriptive parameter names used in job
// configuration to GRIB2 abbreviations.
var shortNames = map[string]string{
	"Temperature":              "TMP",
	"Cloud mixing ratio":       "CLMR",
	"Geopotential height":      "HGT",
	"Relative humidity":        "RH",
	"Vertical velocity":        "VVEL",
	"Absolute vorticity":       "ABSV",
	"Dew point temperature":    "DPT",
	"Graupel":                  "GRLE",
	"Specific humidity":        "SPFH",
	"U component of wind":      "UGRD",
	"V component of wind":      "VGRD",
	"Rain mixing ratio":        "RWMR",
	"Snow mixing ratio":        "SNMR",
	"Cloud ice mixing ratio":   "CIMIXR",
	"Turbulent kinetic energy": "TKE",
}

// ShortName resolves a descriptive name to its GRIB2 abbreviation. Names
// that are already abbreviations pass through.
func ShortName(name string) string {
	if s, ok := shortNames[name]; ok {
		return s
	}
	return name
}

// LongName is the inverse of ShortName.
func LongName(short string) string {
	for long, s := range shortNames {
		if s == short {
			return long
		}
	}
	return short
}

// Names lists the descriptive names known to ShortName, sorted.
func Names() []string {
	out := make([]string, 0, len(shortNames))
	for k := range shortNames {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Filter selects isobaric messages of one parameter. A zero MinLevel or
// MaxLevel leaves that side open. Level, when set, overrides the range.
type Filter struct {
	Name     string
	MinLevel int
	MaxLevel int
	Level    int
}

func (f Filter) match(m Message) bool {
	if m.Name != ShortName(f.Name) {
		return false
	}
	p, ok := m.Pressure()
	if !ok {
		return false
	}
	if f.Level != 0 {
		return p == f.Level
	}
	if f.MinLevel != 0 && p < f.MinLevel {
		return false
	}
	if f.MaxLevel != 0 && p > f.MaxLevel {
		return false
	}
	return true
}

// Select returns the matching messages sorted by ascending pressure.
func Select(msgs []Message, f Filter) ([]Message, error) {
	var out []Message
	for _, m := range msgs {
		if f.match(m) {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		if f.Level != 0 {
			return nil, fmt.Errorf("%w: %s at %d hPa", ErrNotFound, f.Name, f.Level)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, f.Name)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, _ := out[i].Pressure()
		pj, _ := out[j].Pressure()
		return pi < pj
	})
	return out, nil
}
