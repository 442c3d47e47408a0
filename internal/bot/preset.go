package bot

import "strings"

// Preset tunes one heuristic core instead of duplicating scorer code per
// difficulty. Weights feed ScoreMove; Noise widens the random jitter so
// weaker levels blunder; UseAdvisory gates the external suggestion call.
type Preset struct {
	Name           string
	GoalWeight     float64
	CaptureWeight  float64
	ProgressWeight float64
	ColumnWeight   float64
	Noise          float64
	UseAdvisory    bool
}

var presets = map[string]Preset{
	"easy": {
		Name:           "easy",
		GoalWeight:     1000,
		CaptureWeight:  2,
		ProgressWeight: 1,
		ColumnWeight:   0.5,
		Noise:          6,
	},
	"normal": {
		Name:           "normal",
		GoalWeight:     1000,
		CaptureWeight:  5,
		ProgressWeight: 2,
		ColumnWeight:   1,
		Noise:          1.5,
	},
	"hard": {
		Name:           "hard",
		GoalWeight:     1000,
		CaptureWeight:  6,
		ProgressWeight: 2.5,
		ColumnWeight:   1.2,
		Noise:          0,
		UseAdvisory:    true,
	},
}

// PresetFor resolves a difficulty name, defaulting to normal.
func PresetFor(name string) Preset {
	if p, ok := presets[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return presets["normal"]
}
