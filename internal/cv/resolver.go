package cv

import "image"

// FindAny matches each template against the same frame in list order and
// returns the first match together with the index of the template that
// produced it. The index is -1 when nothing matched.
func FindAny(frame *image.RGBA, templates []Template, tolerance Tolerance) (MatchResult, int) {
	for i, tmpl := range templates {
		if result := Find(frame, tmpl.Image, tolerance); result.Found() {
			return result, i
		}
	}
	return NoMatch, -1
}
