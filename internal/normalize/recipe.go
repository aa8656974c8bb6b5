package normalize

import (
	"github.com/dunamismax/upright/internal/orientation"
	"golang.org/x/image/math/f64"
)

// extent names a source side length used as a translation component.
type extent int

const (
	zero extent = iota
	srcWidth
	srcHeight
)

// recipe is the geometric correction for one orientation, expressed in
// top-left origin pixel space: p' = translate(mirror(rotate(p))). Whether
// the axes swap is Orientation.SwapsAxes.
type recipe struct {
	tx, ty       extent
	mx, my       float64
	quarterTurns int
}

var identity = recipe{mx: 1, my: 1}

var recipes = map[orientation.Orientation]recipe{
	orientation.Up:            identity,
	orientation.UpMirrored:    {tx: srcWidth, mx: -1, my: 1},
	orientation.Down:          {tx: srcWidth, ty: srcHeight, mx: 1, my: 1, quarterTurns: 2},
	orientation.DownMirrored:  {ty: srcHeight, mx: 1, my: -1},
	orientation.LeftMirrored:  {mx: -1, my: 1, quarterTurns: 1},
	orientation.Left:          {ty: srcWidth, mx: 1, my: 1, quarterTurns: 3},
	orientation.RightMirrored: {tx: srcHeight, ty: srcWidth, mx: -1, my: 1, quarterTurns: 3},
	orientation.Right:         {tx: srcHeight, mx: 1, my: 1, quarterTurns: 1},
}

func lookupRecipe(o orientation.Orientation) (recipe, bool) {
	r, ok := recipes[o]
	if !ok {
		return identity, false
	}
	return r, true
}

// Quarter turns keep the rotation entries exact; math.Cos(math.Pi) would
// leave residue that shifts nearest-neighbour sampling.
var turns = [4][2]float64{
	{1, 0},
	{0, 1},
	{-1, 0},
	{0, -1},
}

func (e extent) of(w, h int) float64 {
	switch e {
	case srcWidth:
		return float64(w)
	case srcHeight:
		return float64(h)
	default:
		return 0
	}
}

// matrix maps a w*h source at origin min onto the bw*bh target given on
// the stored axes. The source is first scaled per axis to exactly bw*bh,
// so the rotated result fills the destination edge to edge.
func (r recipe) matrix(w, h, bw, bh, minX, minY int) f64.Aff3 {
	t := turns[((r.quarterTurns%4)+4)%4]
	cos, sin := t[0], t[1]
	sx := float64(bw) / float64(w)
	sy := float64(bh) / float64(h)

	a := r.mx * cos * sx
	b := -r.mx * sin * sy
	d := r.my * sin * sx
	e := r.my * cos * sy

	ox, oy := float64(minX), float64(minY)
	c := r.tx.of(bw, bh) - a*ox - b*oy
	f := r.ty.of(bw, bh) - d*ox - e*oy

	return f64.Aff3{a, b, c, d, e, f}
}
