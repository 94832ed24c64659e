package cv

import "image"

// Template is a reference image searched for in captured frames
type Template struct {
	Name string
	Path string
	// Image from the template loader holds straight (non-premultiplied)
	// colour in an RGBA buffer. Find reads Pix directly and is unaffected;
	// RGBAAt, At and image/draw assume premultiplied values and will report
	// wrong colours for translucent pixels.
	Image *image.RGBA
}

// Size returns the template dimensions
func (t Template) Size() image.Point {
	if t.Image == nil {
		return image.Point{}
	}
	return t.Image.Bounds().Size()
}

// Valid reports whether the template has an image of at least 1x1 pixels
func (t Template) Valid() bool {
	size := t.Size()
	return size.X >= 1 && size.Y >= 1
}
