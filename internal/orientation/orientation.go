// Package orientation describes how stored pixel data must be rotated or
// mirrored to appear upright.
package orientation

import (
	"fmt"
	"strings"
)

// Orientation is the rotation/mirroring needed to bring stored pixel data to
// visual "up". Values match the UIKit raw values.
type Orientation int

const (
	Up Orientation = iota
	Down
	Left
	Right
	UpMirrored
	DownMirrored
	LeftMirrored
	RightMirrored
)

// Unrecognized stands in for a tag with no known mapping. Normalizers treat
// it as Up and report a warning.
const Unrecognized Orientation = -1

var names = [...]string{
	Up:            "up",
	Down:          "down",
	Left:          "left",
	Right:         "right",
	UpMirrored:    "upMirrored",
	DownMirrored:  "downMirrored",
	LeftMirrored:  "leftMirrored",
	RightMirrored: "rightMirrored",
}

// Valid reports whether o is one of the eight known variants.
func (o Orientation) Valid() bool {
	return o >= Up && o <= RightMirrored
}

func (o Orientation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("orientation(%d)", int(o))
	}
	return names[o]
}

// SwapsAxes reports whether o is a 90°-class rotation, so the upright image
// has width and height exchanged relative to the stored buffer.
func (o Orientation) SwapsAxes() bool {
	switch o {
	case Left, Right, LeftMirrored, RightMirrored:
		return true
	default:
		return false
	}
}

// Parse accepts names such as "right", "upMirrored", "up_mirrored" or
// "UP-MIRRORED".
func Parse(name string) (Orientation, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	for i, n := range names {
		if strings.ToLower(n) == key {
			return Orientation(i), nil
		}
	}
	return Up, fmt.Errorf("unknown orientation %q", name)
}

var exifTags = map[int]Orientation{
	1: Up,
	2: UpMirrored,
	3: Down,
	4: DownMirrored,
	5: LeftMirrored,
	6: Right,
	7: RightMirrored,
	8: Left,
}

// FromEXIF maps an already extracted EXIF orientation tag (1..8). Other
// tags yield Unrecognized.
func FromEXIF(tag int) (Orientation, bool) {
	o, ok := exifTags[tag]
	if !ok {
		return Unrecognized, false
	}
	return o, true
}

// EXIF returns the EXIF orientation tag for o, or 0 if o is unrecognized.
func (o Orientation) EXIF() int {
	for tag, v := range exifTags {
		if v == o {
			return tag
		}
	}
	return 0
}

var opposites = map[Orientation]Orientation{
	Left:          RightMirrored,
	UpMirrored:    DownMirrored,
	LeftMirrored:  Right,
	Right:         LeftMirrored,
	DownMirrored:  UpMirrored,
	RightMirrored: Left,
}

// Opposite is a display-side lookup pairing each orientation with the one
// it is shown against. Up and Down have no pair.
func (o Orientation) Opposite() (Orientation, bool) {
	v, ok := opposites[o]
	return v, ok
}
