package cv

import (
	"image"
	"image/color"
	"math/rand"
	"testing"
)

// newFrame creates a zero-origin image filled with one colour
func newFrame(width, height int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	return img
}

// newPattern creates a template whose pixels are all distinct and non-black
func newPattern(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(1 + y*width + x)
			img.SetRGBA(x, y, color.RGBA{R: v, G: 255 - v, B: v / 2, A: 255})
		}
	}
	return img
}

// paint copies needle into frame with its top-left corner at (x, y)
func paint(frame, needle *image.RGBA, x, y int) {
	b := needle.Bounds()
	for ny := 0; ny < b.Dy(); ny++ {
		for nx := 0; nx < b.Dx(); nx++ {
			frame.SetRGBA(x+nx, y+ny, needle.RGBAAt(b.Min.X+nx, b.Min.Y+ny))
		}
	}
}

func randomFrame(rng *rand.Rand, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rng.Read(img.Pix)
	return img
}

func TestFindOversizedTemplate(t *testing.T) {
	frame := newFrame(10, 8, color.RGBA{A: 255})

	tests := []struct {
		name          string
		width, height int
	}{
		{"wider", 11, 2},
		{"taller", 2, 9},
		{"both", 20, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			needle := newFrame(tt.width, tt.height, color.RGBA{A: 255})

			// Tolerance 0 accepts every pixel, so only the bounds check can refuse
			result := Find(frame, needle, 0)
			if result.Found() {
				t.Errorf("Expected no match for %dx%d template in 10x8 frame, got %v",
					tt.width, tt.height, result)
			}
		})
	}
}

func TestFindTemplateSameSizeAsFrame(t *testing.T) {
	frame := newPattern(6, 4)

	result := Find(frame, frame, ExactTolerance)
	p, ok := result.Point()
	if !ok {
		t.Fatal("Expected frame to match itself")
	}
	if p != (image.Point{X: 3, Y: 2}) {
		t.Errorf("Expected center (3,2), got %v", p)
	}
}

func TestFindNilAndEmpty(t *testing.T) {
	frame := newFrame(4, 4, color.RGBA{A: 255})

	if Find(nil, frame, 0).Found() {
		t.Error("Nil frame must not match")
	}
	if Find(frame, nil, 0).Found() {
		t.Error("Nil template must not match")
	}
	if Find(frame, image.NewRGBA(image.Rect(0, 0, 0, 3)), 0).Found() {
		t.Error("Zero-width template must not match")
	}
}

func TestFindExactUniqueMatch(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		x, y          int
	}{
		{"odd size", 5, 3, 37, 21},
		{"even size", 4, 6, 0, 0},
		{"bottom right corner", 7, 7, 93, 53},
		{"single pixel", 1, 1, 12, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := newFrame(100, 60, color.RGBA{A: 255})
			needle := newPattern(tt.width, tt.height)
			paint(frame, needle, tt.x, tt.y)

			result := Find(frame, needle, ExactTolerance)
			p, ok := result.Point()
			if !ok {
				t.Fatalf("Template not found at (%d,%d)", tt.x, tt.y)
			}

			expected := image.Point{X: tt.x + tt.width/2, Y: tt.y + tt.height/2}
			if p != expected {
				t.Errorf("Coordinate mismatch: expected %v, got %v", expected, p)
			}
		})
	}
}

func TestFindFirstInRasterOrder(t *testing.T) {
	frame := newFrame(80, 60, color.RGBA{A: 255})
	needle := newPattern(4, 4)

	// Lower-left copy comes first in x but second in raster order
	paint(frame, needle, 10, 30)
	paint(frame, needle, 40, 5)

	p, ok := Find(frame, needle, ExactTolerance).Point()
	if !ok {
		t.Fatal("Template not found")
	}
	if p != (image.Point{X: 42, Y: 7}) {
		t.Errorf("Expected first raster match centred at (42,7), got %v", p)
	}

	// Same row: the leftmost window wins
	paint(frame, needle, 2, 5)
	p, _ = Find(frame, needle, ExactTolerance).Point()
	if p != (image.Point{X: 4, Y: 7}) {
		t.Errorf("Expected leftmost match centred at (4,7), got %v", p)
	}
}

func TestFindToleranceBoundary(t *testing.T) {
	needle := newFrame(3, 3, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	// 255 * (1 - 0.85) = 38.25
	tests := []struct {
		name      string
		channel   int
		diff      int
		tolerance Tolerance
		want      bool
	}{
		{"red within", 0, 38, 0.85, true},
		{"red beyond", 0, 39, 0.85, false},
		{"green beyond", 1, 39, 0.85, false},
		{"blue beyond", 2, 39, 0.85, false},
		{"exact rejects 1", 2, 1, ExactTolerance, false},
		{"exact accepts 0", 1, 0, ExactTolerance, true},
		{"zero accepts all", 0, 155, 0, true},
		{"half", 1, 127, 0.5, true},
		{"half beyond", 1, 128, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := newFrame(3, 3, color.RGBA{R: 100, G: 100, B: 100, A: 255})
			frame.Pix[frame.PixOffset(1, 1)+tt.channel] = uint8(100 + tt.diff)

			got := Find(frame, needle, tt.tolerance).Found()
			if got != tt.want {
				t.Errorf("diff %d at tolerance %.2f: expected found=%v, got %v",
					tt.diff, tt.tolerance, tt.want, got)
			}
		})
	}
}

func TestFindIgnoresAlpha(t *testing.T) {
	frame := newFrame(5, 5, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	needle := newFrame(2, 2, color.RGBA{R: 10, G: 20, B: 30, A: 0})

	if !Find(frame, needle, ExactTolerance).Found() {
		t.Error("Alpha channel should not take part in matching")
	}
}

func TestFindNonZeroOrigin(t *testing.T) {
	frame := newFrame(50, 40, color.RGBA{A: 255})
	needle := newPattern(4, 2)
	paint(frame, needle, 20, 10)

	// Same pixels, positioned as a second monitor would be
	frame.Rect = frame.Rect.Add(image.Point{X: 1920, Y: 100})

	p, ok := Find(frame, needle, ExactTolerance).Point()
	if !ok {
		t.Fatal("Template not found in offset frame")
	}
	if p != (image.Point{X: 1920 + 22, Y: 100 + 11}) {
		t.Errorf("Expected offset center (1942,111), got %v", p)
	}
}

func TestFindSubImageTemplate(t *testing.T) {
	frame := newFrame(30, 30, color.RGBA{A: 255})
	pattern := newPattern(6, 6)
	paint(frame, pattern, 12, 3)

	// Template cut from the frame without copying keeps a non-zero origin
	needle := frame.SubImage(image.Rect(12, 3, 18, 9)).(*image.RGBA)

	p, ok := Find(frame, needle, ExactTolerance).Point()
	if !ok {
		t.Fatal("Sub-image template not found")
	}
	if p != (image.Point{X: 15, Y: 6}) {
		t.Errorf("Expected center (15,6), got %v", p)
	}
}

// acceptedWindows lists every window offset accepted at the given tolerance
func acceptedWindows(frame, needle *image.RGBA, tolerance Tolerance) map[image.Point]bool {
	accepted := make(map[image.Point]bool)
	maxX := frame.Bounds().Dx() - needle.Bounds().Dx()
	maxY := frame.Bounds().Dy() - needle.Bounds().Dy()
	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; x++ {
			if windowMatches(frame, needle, x, y, tolerance.maxChannelDiff()) {
				accepted[image.Point{X: x, Y: y}] = true
			}
		}
	}
	return accepted
}

func TestToleranceMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	frame := randomFrame(rng, 24, 18)
	needle := CropRegion(frame, image.Rect(5, 4, 8, 6))

	tolerances := []Tolerance{1.0, 0.95, 0.85, 0.7, 0.5, 0.3, 0.1, 0}

	previous := acceptedWindows(frame, needle, tolerances[0])
	if len(previous) == 0 {
		t.Fatal("Exact tolerance should accept the window the template was cut from")
	}

	for _, tol := range tolerances[1:] {
		current := acceptedWindows(frame, needle, tol)
		for p := range previous {
			if !current[p] {
				t.Errorf("Window %v accepted at a stricter tolerance but rejected at %.2f", p, tol)
			}
		}
		previous = current
	}

	if len(previous) != 22*17 {
		t.Errorf("Tolerance 0 should accept all %d windows, got %d", 22*17, len(previous))
	}
}

func TestFindIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	frame := randomFrame(rng, 40, 30)
	needle := CropRegion(frame, image.Rect(17, 11, 22, 14))

	before := make([]byte, len(frame.Pix))
	copy(before, frame.Pix)

	first := Find(frame, needle, 0.9)
	second := Find(frame, needle, 0.9)

	if first != second {
		t.Errorf("Repeated searches differ: %v then %v", first, second)
	}
	if string(before) != string(frame.Pix) {
		t.Error("Find mutated the frame")
	}
}

func TestToleranceValidate(t *testing.T) {
	tests := []struct {
		tolerance Tolerance
		valid     bool
		clamped   Tolerance
	}{
		{0, true, 0},
		{1, true, 1},
		{0.85, true, 0.85},
		{-0.1, false, 0},
		{1.5, false, 1},
	}

	for _, tt := range tests {
		err := tt.tolerance.Validate()
		if (err == nil) != tt.valid {
			t.Errorf("Validate(%v): expected valid=%v, got err=%v", tt.tolerance, tt.valid, err)
		}
		if got := tt.tolerance.Clamp(); got != tt.clamped {
			t.Errorf("Clamp(%v): expected %v, got %v", tt.tolerance, tt.clamped, got)
		}
	}
}

func TestDebugMatch(t *testing.T) {
	frame := newFrame(20, 20, color.RGBA{A: 255})
	result := Matched(image.Point{X: 10, Y: 10})

	debug := DebugMatch(frame, result, image.Point{X: 4, Y: 4})
	if debug == frame {
		t.Fatal("DebugMatch should draw on a copy")
	}

	red := color.RGBA{255, 0, 0, 255}
	if got := debug.RGBAAt(8, 8); got != red {
		t.Errorf("Expected red top-left corner at (8,8), got %v", got)
	}
	if got := frame.RGBAAt(8, 8); got == red {
		t.Error("Original frame was modified")
	}

	if DebugMatch(frame, NoMatch, image.Point{X: 4, Y: 4}) != frame {
		t.Error("NoMatch should return the frame unchanged")
	}
}
