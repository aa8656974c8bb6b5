package orientation

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]Orientation{
		"up":             Up,
		"Right":          Right,
		"upMirrored":     UpMirrored,
		"down_mirrored":  DownMirrored,
		"LEFT-MIRRORED":  LeftMirrored,
		" rightmirrored": RightMirrored,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", in, want, got)
		}
	}

	if _, err := Parse("sideways"); err == nil {
		t.Fatal("expected error for unknown orientation")
	}
}

func TestStringRoundTrip(t *testing.T) {
	for o := Up; o <= RightMirrored; o++ {
		got, err := Parse(o.String())
		if err != nil {
			t.Fatalf("parse %s: %v", o, err)
		}
		if got != o {
			t.Fatalf("expected %s, got %s", o, got)
		}
	}
	if got := Orientation(42).String(); got != "orientation(42)" {
		t.Fatalf("unexpected string for unknown value: %s", got)
	}
}

func TestValidAndSwapsAxes(t *testing.T) {
	swapping := map[Orientation]bool{
		Left: true, Right: true, LeftMirrored: true, RightMirrored: true,
	}
	for o := Up; o <= RightMirrored; o++ {
		if !o.Valid() {
			t.Fatalf("expected %s to be valid", o)
		}
		if o.SwapsAxes() != swapping[o] {
			t.Fatalf("%s: expected SwapsAxes=%v", o, swapping[o])
		}
	}
	if Orientation(-1).Valid() || Orientation(8).Valid() {
		t.Fatal("expected out-of-range values to be invalid")
	}
	if Orientation(8).SwapsAxes() {
		t.Fatal("unrecognized orientation must not swap axes")
	}
}

func TestEXIFMapping(t *testing.T) {
	for tag := 1; tag <= 8; tag++ {
		o, ok := FromEXIF(tag)
		if !ok {
			t.Fatalf("expected tag %d to map", tag)
		}
		if o.EXIF() != tag {
			t.Fatalf("tag %d: round trip gave %d", tag, o.EXIF())
		}
	}
	if o, _ := FromEXIF(6); o != Right {
		t.Fatalf("expected tag 6 to be right, got %s", o)
	}
	if o, _ := FromEXIF(8); o != Left {
		t.Fatalf("expected tag 8 to be left, got %s", o)
	}
	if _, ok := FromEXIF(0); ok {
		t.Fatal("expected tag 0 to be rejected")
	}
	if o, ok := FromEXIF(9); ok || o != Unrecognized {
		t.Fatalf("expected tag 9 to be unrecognized, got %s ok=%v", o, ok)
	}
	if Unrecognized.Valid() {
		t.Fatal("expected Unrecognized to be invalid")
	}
	if Orientation(99).EXIF() != 0 {
		t.Fatal("expected unknown orientation to have no EXIF tag")
	}
}

func TestOpposite(t *testing.T) {
	if got, ok := Left.Opposite(); !ok || got != RightMirrored {
		t.Fatalf("left: expected rightMirrored, got %s ok=%v", got, ok)
	}
	if got, ok := Right.Opposite(); !ok || got != LeftMirrored {
		t.Fatalf("right: expected leftMirrored, got %s ok=%v", got, ok)
	}
	if _, ok := Up.Opposite(); ok {
		t.Fatal("up has no opposite")
	}
	if _, ok := Down.Opposite(); ok {
		t.Fatal("down has no opposite")
	}
}
