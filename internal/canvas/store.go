package canvas

// MinCropExtent is the size a crop selection must exceed on both axes
// before it is kept.
const MinCropExtent = 10

// Store holds the committed annotations, the gesture being drawn and the
// pending crop region. It performs no I/O and is not safe for concurrent use.
type Store struct {
	annotations []Annotation
	active      *Annotation
	crop        *Rect
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// BeginGesture starts a new gesture at start. Any gesture already in
// progress is discarded. Crop gestures always use the crop marker style.
func (s *Store) BeginGesture(tool Tool, start Point, style Style) {
	if tool == ToolCrop {
		style = cropMarkerStyle
	}
	s.active = &Annotation{
		Kind:   tool.Kind(),
		Color:  style.Color,
		Width:  style.Width,
		Points: []Point{start},
	}
}

// ExtendGesture adds p to the gesture in progress.
func (s *Store) ExtendGesture(p Point) bool {
	if s.active == nil {
		return false
	}
	s.active.extend(p)
	return true
}

// CommitGesture finishes the gesture in progress. Rectangles and freehand
// strokes are appended to the annotation list; crop markers replace the crop
// region when they are large enough and otherwise leave it untouched.
// It reports whether anything was stored.
func (s *Store) CommitGesture() bool {
	a := s.active
	s.active = nil
	if a == nil {
		return false
	}
	switch a.Kind {
	case KindCropMarker:
		r := a.Box()
		if r.Width <= MinCropExtent || r.Height <= MinCropExtent {
			return false
		}
		s.crop = &r
		return true
	case KindFreehand:
		if len(a.Points) < 2 {
			return false
		}
	case KindRectangle:
		if r := a.Box(); r.Width == 0 && r.Height == 0 {
			return false
		}
	}
	s.annotations = append(s.annotations, *a)
	return true
}

// CancelGesture drops the gesture in progress.
func (s *Store) CancelGesture() {
	s.active = nil
}

// Undo removes the most recently committed annotation.
func (s *Store) Undo() bool {
	if len(s.annotations) == 0 {
		return false
	}
	s.annotations[len(s.annotations)-1] = Annotation{}
	s.annotations = s.annotations[:len(s.annotations)-1]
	return true
}

// ResetAll clears annotations, the gesture in progress and the crop region.
func (s *Store) ResetAll() {
	s.annotations = nil
	s.active = nil
	s.crop = nil
}

// ClearCrop drops the crop region.
func (s *Store) ClearCrop() {
	s.crop = nil
}

// Annotations returns a copy of the committed annotations in z-order.
func (s *Store) Annotations() []Annotation {
	out := make([]Annotation, len(s.annotations))
	for i, a := range s.annotations {
		out[i] = a.clone()
	}
	return out
}

// Len returns the number of committed annotations.
func (s *Store) Len() int { return len(s.annotations) }

// Active returns the gesture in progress.
func (s *Store) Active() (Annotation, bool) {
	if s.active == nil {
		return Annotation{}, false
	}
	return s.active.clone(), true
}

// CropRegion returns the pending crop region.
func (s *Store) CropRegion() (Rect, bool) {
	if s.crop == nil {
		return Rect{}, false
	}
	return *s.crop, true
}
