package scene

import (
	"github.com/taigrr/diorama/pkg/bounds"
	"github.com/taigrr/diorama/pkg/gpu"
)

// Stats counts what one frame submits.
type Stats struct {
	Opaque  int
	Alpha   int
	Overlay int
	Culled  int // indexed shapes outside the frustum
}

// Frame is one frame's render queue: the visible shapes of each pass in
// draw order.
type Frame struct {
	Frustum bounds.Frustum
	Stats   Stats

	opaque  []*record
	alpha   []*record
	overlay []*record
}

// Compose culls the indexed passes against f and orders them: opaque
// nearest first, alpha farthest first. Overlays are taken in insertion
// order. The frame holds copies, so later registry changes do not reach
// it. Nothing is kept between frames.
func (r *Registry) Compose(f bounds.Frustum) *Frame {
	fr := &Frame{Frustum: f}
	for _, k := range r.opaque.OrderedNear(f) {
		rec := r.opaque.Get(k)
		fr.opaque = append(fr.opaque, &rec)
	}
	for _, k := range r.alpha.OrderedFar(f) {
		rec := r.alpha.Get(k)
		fr.alpha = append(fr.alpha, &rec)
	}
	for _, slot := range r.overlay {
		if slot.live {
			rec := slot.rec
			fr.overlay = append(fr.overlay, &rec)
		}
	}
	fr.Stats = Stats{
		Opaque:  len(fr.opaque),
		Alpha:   len(fr.alpha),
		Overlay: len(fr.overlay),
		Culled:  r.opaque.Len() + r.alpha.Len() - len(fr.opaque) - len(fr.alpha),
	}
	return fr
}

// Render draws fr: world passes with the camera and depth testing on,
// then overlays in screen space, then presents.
func (fr *Frame) Render(b gpu.Backend, styles *StyleTable) error {
	ex := executor{backend: b}

	styles.SetHasCamera(b, true)
	b.SetDepthTest(true)
	for _, rec := range fr.opaque {
		ex.draw(rec)
	}
	for _, rec := range fr.alpha {
		ex.draw(rec)
	}

	b.SetDepthTest(false)
	styles.SetHasCamera(b, false)
	for _, rec := range fr.overlay {
		ex.draw(rec)
	}
	return b.Present()
}
