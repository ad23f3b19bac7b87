package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in    string
		pitch int
		minor bool
		ok    bool
	}{
		{"C major", 0, false, true},
		{"C", 0, false, true},
		{"A minor", 9, true, true},
		{"Am", 9, true, true},
		{"F#m", 6, true, true},
		{"F# minor", 6, true, true},
		{"Db", 1, false, true},
		{"Dbm", 1, true, true},
		{"Bb min", 10, true, true},
		{"Ebmaj", 3, false, true},
		{"e minor", 4, true, true},
		{"G♯m", 8, true, true},
		{"", 0, false, false},
		{"H major", 0, false, false},
		{"C dorian", 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			k, ok := parseKey(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.pitch, k.pitch)
				assert.Equal(t, tt.minor, k.minor)
			}
		})
	}
}

func TestRelateKeys(t *testing.T) {
	tests := []struct {
		a, b string
		want keyRelation
	}{
		{"C major", "C", keyIdentical},
		{"Am", "A minor", keyIdentical},
		{"C major", "C minor", keyCompatible},  // parallel
		{"C major", "A minor", keyCompatible},  // relative
		{"A minor", "C major", keyCompatible},  // relative, reversed
		{"Eb major", "Cm", keyCompatible},      // relative with flats
		{"C major", "G major", keyCompatible},  // fifth up
		{"G major", "C major", keyCompatible},  // fifth down
		{"A minor", "E minor", keyCompatible},  // fifth in minor
		{"C major", "F minor", keyUnrelated},   // fourth, mode differs
		{"C major", "G minor", keyUnrelated},   // fifth, mode differs
		{"C major", "F# major", keyUnrelated},  // tritone
		{"C major", "D major", keyUnrelated},   // whole step
		{"C major", "E minor", keyUnrelated},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			a, ok := parseKey(tt.a)
			assert.True(t, ok)
			b, ok := parseKey(tt.b)
			assert.True(t, ok)
			assert.Equal(t, tt.want, relateKeys(a, b))
		})
	}
}
