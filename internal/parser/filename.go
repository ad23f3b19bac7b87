package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// filenameRegex matches clip filenames like "2_6_19a.mp3": arc, prompt, clip number, order marker.
var filenameRegex = regexp.MustCompile(`^(\d+)_(\d+)_(\d+)([a-z]+)\.(?:mp3|wav|m4a|flac)$`)

// MaxArc is the highest arc number a clip filename may carry.
const MaxArc = 4

// FilenameParts are the components encoded in a clip filename.
type FilenameParts struct {
	Arc         int
	Prompt      int
	Clip        int
	OrderMarker string
}

// ParseFilename parses a clip filename (directories are ignored).
func ParseFilename(path string) (FilenameParts, error) {
	name := strings.ToLower(filepath.Base(path))
	m := filenameRegex.FindStringSubmatch(name)
	if m == nil {
		return FilenameParts{}, fmt.Errorf("filename %q does not match arc_prompt_clip<order>.ext", name)
	}

	arc, _ := strconv.Atoi(m[1])
	prompt, _ := strconv.Atoi(m[2])
	clip, _ := strconv.Atoi(m[3])
	if arc < 1 || arc > MaxArc {
		return FilenameParts{}, fmt.Errorf("filename %q: arc %d outside 1..%d", name, arc, MaxArc)
	}

	return FilenameParts{Arc: arc, Prompt: prompt, Clip: clip, OrderMarker: m[4]}, nil
}
