package cv

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/pkg/errors"
)

// Tolerance is the normalized per-channel acceptance threshold.
// 1.0 requires every channel to match exactly, 0.0 accepts any value.
type Tolerance float64

const (
	// ExactTolerance requires identical R, G and B values
	ExactTolerance Tolerance = 1.0
	// DefaultTolerance is the tolerance used when none is configured
	DefaultTolerance Tolerance = 0.85
)

// ErrToleranceRange is returned when a tolerance lies outside [0, 1]
var ErrToleranceRange = errors.New("tolerance must be between 0.0 and 1.0")

// Validate reports whether the tolerance is usable by the matcher
func (t Tolerance) Validate() error {
	if math.IsNaN(float64(t)) || t < 0 || t > 1 {
		return errors.Wrapf(ErrToleranceRange, "got %v", float64(t))
	}
	return nil
}

// Clamp forces the tolerance into [0, 1]. NaN becomes exact.
func (t Tolerance) Clamp() Tolerance {
	switch {
	case math.IsNaN(float64(t)):
		return ExactTolerance
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}

// maxChannelDiff converts the tolerance to the largest accepted absolute
// channel difference. Differences are integers, so flooring 255*(1-t)
// accepts exactly the same pairs as comparing against the real value.
// Out of range tolerances are clamped first.
func (t Tolerance) maxChannelDiff() int {
	return int(math.Floor(255 * (1 - float64(t.Clamp()))))
}

// MatchResult is either a matched point or no match. The zero value is NoMatch.
type MatchResult struct {
	point   image.Point
	matched bool
}

// NoMatch is the result of a search that found nothing
var NoMatch = MatchResult{}

// Matched builds a result for a match centred on p
func Matched(p image.Point) MatchResult {
	return MatchResult{point: p, matched: true}
}

// Point returns the match center and whether there was a match
func (r MatchResult) Point() (image.Point, bool) {
	return r.point, r.matched
}

// Found reports whether the result holds a match
func (r MatchResult) Found() bool {
	return r.matched
}

func (r MatchResult) String() string {
	if !r.matched {
		return "no match"
	}
	return r.point.String()
}

// Find searches frame for the first window, in raster order, whose pixels all
// match needle within tolerance, and returns the center of that window.
//
// A template larger than the frame on either axis, or an empty image, yields
// NoMatch. Points are expressed in the frame's coordinate space, so a frame
// with a zero origin reports (windowX + w/2, windowY + h/2).
func Find(frame, needle *image.RGBA, tolerance Tolerance) MatchResult {
	if frame == nil || needle == nil {
		return NoMatch
	}

	frameBounds := frame.Bounds()
	needleBounds := needle.Bounds()

	needleWidth := needleBounds.Dx()
	needleHeight := needleBounds.Dy()

	if needleWidth < 1 || needleHeight < 1 {
		return NoMatch
	}

	// Validate dimensions
	if needleWidth > frameBounds.Dx() || needleHeight > frameBounds.Dy() {
		return NoMatch
	}

	maxDiff := tolerance.maxChannelDiff()
	maxY := frameBounds.Dy() - needleHeight
	maxX := frameBounds.Dx() - needleWidth

	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; x++ {
			if windowMatches(frame, needle, x, y, maxDiff) {
				return Matched(image.Point{
					X: frameBounds.Min.X + x + needleWidth/2,
					Y: frameBounds.Min.Y + y + needleHeight/2,
				})
			}
		}
	}

	return NoMatch
}

// windowMatches compares needle against the frame window whose top-left corner
// sits x, y pixels from the frame origin. It stops at the first rejected channel.
func windowMatches(frame, needle *image.RGBA, x, y, maxDiff int) bool {
	frameBounds := frame.Bounds()
	needleBounds := needle.Bounds()
	width := needleBounds.Dx()
	height := needleBounds.Dy()

	for ny := 0; ny < height; ny++ {
		fRow := frame.PixOffset(frameBounds.Min.X+x, frameBounds.Min.Y+y+ny)
		nRow := needle.PixOffset(needleBounds.Min.X, needleBounds.Min.Y+ny)

		for nx := 0; nx < width; nx++ {
			fIdx := fRow + nx*4
			nIdx := nRow + nx*4

			// R, G, B; alpha is ignored
			if abs(int(frame.Pix[fIdx])-int(needle.Pix[nIdx])) > maxDiff ||
				abs(int(frame.Pix[fIdx+1])-int(needle.Pix[nIdx+1])) > maxDiff ||
				abs(int(frame.Pix[fIdx+2])-int(needle.Pix[nIdx+2])) > maxDiff {
				return false
			}
		}
	}

	return true
}

// Helper functions

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// CropRegion extracts a rectangular region from an image into a new
// zero-origin image
func CropRegion(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			cropped.SetRGBA(x-rect.Min.X, y-rect.Min.Y, img.RGBAAt(x, y))
		}
	}

	return cropped
}

// DebugMatch returns a copy of frame with a rectangle drawn around the
// template-sized window centred on the match
func DebugMatch(frame *image.RGBA, result MatchResult, needleSize image.Point) *image.RGBA {
	center, ok := result.Point()
	if !ok {
		return frame
	}

	// Create copy
	debug := image.NewRGBA(frame.Bounds())
	draw.Draw(debug, debug.Bounds(), frame, frame.Bounds().Min, draw.Src)

	topLeft := center.Sub(image.Point{X: needleSize.X / 2, Y: needleSize.Y / 2})
	rect := image.Rectangle{Min: topLeft, Max: topLeft.Add(needleSize)}

	drawRect(debug, rect, color.RGBA{255, 0, 0, 255})

	return debug
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	// Top and bottom
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetRGBA(x, rect.Min.Y, col)
		img.SetRGBA(x, rect.Max.Y-1, col)
	}
	// Left and right
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetRGBA(rect.Min.X, y, col)
		img.SetRGBA(rect.Max.X-1, y, col)
	}
}
