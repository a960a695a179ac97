package config

import "sort"

// Presets holds named extraction jobs, keyed by job kind ("volume" or
// "layer") then preset name.
var Presets = map[string]map[string]*Job{
	"volume": {
		"vorticity": {
			Variable: "Absolute vorticity", Date: DefaultDate, StartHour: 0, EndHour: 4,
			MinLevel: 400, MaxLevel: 1000, Out: "vorticity", Format: "vti",
		},
		"temperature": {
			Variable: "Temperature", Date: DefaultDate, StartHour: 0, EndHour: 4,
			MinLevel: 100, MaxLevel: 1000, Out: "temperature", Format: "vti",
		},
		"humidity": {
			Variable: "Relative humidity", Date: DefaultDate, StartHour: 0, EndHour: 4,
			MinLevel: 300, MaxLevel: 1000, Out: "humidity", Format: "vti",
		},
		"clouds": {
			Variable: "Cloud mixing ratio", Date: DefaultDate, StartHour: 0, EndHour: 4,
			MinLevel: 200, MaxLevel: 1000, Out: "clouds", Format: "vti",
		},
		"updraft": {
			Variable: "Vertical velocity", Date: DefaultDate, StartHour: 0, EndHour: 4,
			MinLevel: 200, MaxLevel: 1000, Out: "updraft", Format: "vti",
		},
	},
	"layer": {
		"height1000": {
			Variable: "Geopotential height", Date: DefaultDate, StartHour: 0, EndHour: 4,
			Level: 1000, Out: "pressure", Format: "vti",
		},
		"height500": {
			Variable: "Geopotential height", Date: DefaultDate, StartHour: 0, EndHour: 4,
			Level: 500, Out: "pressure500", Format: "vti",
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(kind, preset string) *Job {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	job, ok := kindPresets[preset]
	if !ok {
		return nil
	}
	cp := *job
	return &cp
}

func ListPresets(kind string) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(kindPresets))
	for name := range kindPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
