package match

import (
	"strings"
)

// musicalKey is a parsed key signature: pitch class 0..11 (C = 0) plus mode.
type musicalKey struct {
	pitch int
	minor bool
}

var pitchClasses = map[string]int{
	"c": 0, "b#": 0,
	"c#": 1, "db": 1,
	"d": 2,
	"d#": 3, "eb": 3,
	"e": 4, "fb": 4,
	"f": 5, "e#": 5,
	"f#": 6, "gb": 6,
	"g": 7,
	"g#": 8, "ab": 8,
	"a": 9,
	"a#": 10, "bb": 10,
	"b": 11, "cb": 11,
}

// parseKey accepts "C major", "A minor", "Am", "F#m", "Db", "Bb min" and similar.
// It reports false for anything it cannot read.
func parseKey(s string) (musicalKey, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("♯", "#", "♭", "b").Replace(s)
	if s == "" {
		return musicalKey{}, false
	}

	fields := strings.Fields(s)
	note := fields[0]
	mode := ""
	if len(fields) > 1 {
		mode = strings.ToLower(strings.Join(fields[1:], ""))
	}

	// Compact minor suffix: "Am", "F#m", "Ebmin".
	if mode == "" {
		lower := strings.ToLower(note)
		switch {
		case strings.HasSuffix(lower, "min") && len(note) > 3:
			note, mode = note[:len(note)-3], "minor"
		case strings.HasSuffix(lower, "maj") && len(note) > 3:
			note, mode = note[:len(note)-3], "major"
		case strings.HasSuffix(note, "m") && len(note) > 1:
			note, mode = note[:len(note)-1], "minor"
		}
	}

	pitch, ok := pitchClasses[strings.ToLower(note)]
	if !ok {
		return musicalKey{}, false
	}

	switch mode {
	case "", "major", "maj", "ionian":
		return musicalKey{pitch: pitch}, true
	case "minor", "min", "m", "aeolian":
		return musicalKey{pitch: pitch, minor: true}, true
	default:
		return musicalKey{}, false
	}
}

type keyRelation int

const (
	keyUnrelated keyRelation = iota
	keyCompatible
	keyIdentical
)

// relateKeys classifies two keys. Parallel, relative and same-mode perfect-fifth pairs are compatible.
func relateKeys(a, b musicalKey) keyRelation {
	if a == b {
		return keyIdentical
	}
	// Parallel: same tonic, other mode.
	if a.pitch == b.pitch {
		return keyCompatible
	}
	// Relative: the minor tonic sits three semitones below the major tonic.
	if a.minor != b.minor {
		major, minor := a, b
		if a.minor {
			major, minor = b, a
		}
		if (major.pitch+9)%12 == minor.pitch {
			return keyCompatible
		}
	}
	// Perfect fifth in either direction, same mode.
	if d := (a.pitch - b.pitch + 12) % 12; a.minor == b.minor && (d == 7 || d == 5) {
		return keyCompatible
	}
	return keyUnrelated
}
