package scene

import (
	"fmt"
	"log/slog"

	"github.com/taigrr/diorama/pkg/bounds"
	"github.com/taigrr/diorama/pkg/gpu"
	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/spatial"
)

// record is everything needed to draw one shape. Buffers and the texture
// are referenced, never copied; only transform, box, alpha and color change
// after creation.
type record struct {
	style     *Style
	resources Resource
	model     ModelID
	vertices  gpu.BufferID
	texcoords gpu.BufferID
	colors    gpu.BufferID
	texture   gpu.TextureID
	alpha     float64
	color     math3d.Vec4
	fog       bool
	transform math3d.Mat4
	box       bounds.AABB
	fans      [][2]int
}

type overlaySlot struct {
	rec  record
	live bool
}

// Registry owns every shape: two spatial indices for the opaque and alpha
// passes and an insertion-ordered list for overlays.
type Registry struct {
	resources
	styles  *StyleTable
	opaque  *spatial.Index[record]
	alpha   *spatial.Index[record]
	overlay []overlaySlot
	live    int // live overlays
	log     *slog.Logger
}

func newRegistry(b gpu.Backend, styles *StyleTable, log *slog.Logger, opts ...spatial.Option) *Registry {
	return &Registry{
		resources: resources{backend: b},
		styles:    styles,
		opaque:    spatial.New[record](opts...),
		alpha:     spatial.New[record](opts...),
		log:       log,
	}
}

// shapeSpec collects the arguments of MakeShape.
type shapeSpec struct {
	style     StyleID
	model     ModelID
	transform math3d.Mat4
	gradient  GradientID
	texcoords TexCoordsID
	texture   TextureID
	alpha     float64
	color     math3d.Vec4
	flags     Flags
}

// route picks the pass for a new shape.
func route(flags Flags, style *Style) Pass {
	switch {
	case !flags.Camera && !flags.Fog:
		return PassOverlay
	case flags.Blending || style.AlwaysBlend:
		return PassAlpha
	default:
		return PassOpaque
	}
}

// create validates every referenced resource, then stores the shape. It
// makes no backend calls, so a failed create leaves no trace.
func (r *Registry) create(s shapeSpec) (*Handle, error) {
	style, err := r.styles.Get(s.style)
	if err != nil {
		return nil, err
	}
	m, err := r.model(s.model)
	if err != nil {
		return nil, err
	}

	rec := record{
		style:     style,
		resources: style.Resources,
		model:     s.model,
		vertices:  m.buffer,
		fog:       s.flags.Fog,
		transform: s.transform,
		box:       m.local.Transform(s.transform),
		fans:      append([][2]int(nil), m.fans...),
	}
	if style.Resources.Has(ResVertexColors) {
		g, err := r.gradient(s.gradient)
		if err != nil {
			return nil, err
		}
		if g.count != m.count {
			return nil, &AttributeCountError{Attribute: "gradient", Got: g.count, Want: m.count}
		}
		rec.colors = g.buffer
	}
	if style.Resources.Has(ResTexCoords) {
		tc, err := r.texCoords(s.texcoords)
		if err != nil {
			return nil, err
		}
		if tc.count != m.count {
			return nil, &AttributeCountError{Attribute: "texcoords", Got: tc.count, Want: m.count}
		}
		rec.texcoords = tc.buffer
	}
	if style.Resources.Has(ResTexture) {
		t, err := r.texture(s.texture)
		if err != nil {
			return nil, err
		}
		rec.texture = t.id
	}
	if style.Resources.Has(ResAlpha) {
		rec.alpha = s.alpha
	}
	if style.Resources.Has(ResColor) {
		rec.color = s.color
	}

	h := &Handle{owner: r, pass: route(s.flags, style)}
	switch h.pass {
	case PassOverlay:
		h.slot = len(r.overlay)
		r.overlay = append(r.overlay, overlaySlot{rec: rec, live: true})
		r.live++
	default:
		h.key = r.index(h.pass).Insert(rec, rec.box)
	}
	r.log.Debug("shape created", "style", style.Name, "pass", h.pass, "model", s.model)
	return h, nil
}

func (r *Registry) index(p Pass) *spatial.Index[record] {
	if p == PassAlpha {
		return r.alpha
	}
	return r.opaque
}

// check panics unless h is a live handle of r.
func (r *Registry) check(h *Handle) {
	if h == nil || h.owner != r || h.destroyed {
		panic(fmt.Errorf("%w: %v", ErrInvalidHandle, h))
	}
}

func (r *Registry) get(h *Handle) record {
	r.check(h)
	if h.pass == PassOverlay {
		return r.overlay[h.slot].rec
	}
	return r.index(h.pass).Get(h.key)
}

// Box returns the world bounding box of a shape.
func (r *Registry) Box(h *Handle) bounds.AABB {
	return r.get(h).box
}

// Transform returns the current transform of a shape.
func (r *Registry) Transform(h *Handle) math3d.Mat4 {
	return r.get(h).transform
}

// Len returns the number of live shapes in a pass.
func (r *Registry) Len(p Pass) int {
	switch p {
	case PassOverlay:
		return r.live
	default:
		return r.index(p).Len()
	}
}

// SetTransform moves a shape. Spatially indexed shapes are removed and
// reinserted, since the new box may belong in another bucket; h is
// updated with the new key.
func (r *Registry) SetTransform(h *Handle, transform math3d.Mat4) {
	r.check(h)
	if h.pass == PassOverlay {
		rec := &r.overlay[h.slot].rec
		rec.transform = transform
		rec.box = r.models[rec.model-1].local.Transform(transform)
		return
	}
	idx := r.index(h.pass)
	rec := idx.Remove(h.key)
	rec.transform = transform
	rec.box = r.models[rec.model-1].local.Transform(transform)
	h.key = idx.Insert(rec, rec.box)
}

// update applies fn to a shape whose box does not change.
func (r *Registry) update(h *Handle, fn func(rec *record)) {
	if h.pass == PassOverlay {
		fn(&r.overlay[h.slot].rec)
		return
	}
	idx := r.index(h.pass)
	rec := idx.Get(h.key)
	fn(&rec)
	if err := idx.UpdateInPlace(h.key, rec, rec.box); err != nil {
		idx.Remove(h.key)
		h.key = idx.Insert(rec, rec.box)
	}
}

// SetAlpha changes the opacity of a shape whose style consumes alpha.
func (r *Registry) SetAlpha(h *Handle, alpha float64) error {
	rec := r.get(h)
	if !rec.resources.Has(ResAlpha) {
		return fmt.Errorf("%w: %s has no alpha", ErrNoSuchField, rec.style.Name)
	}
	r.update(h, func(rec *record) { rec.alpha = alpha })
	return nil
}

// SetTint changes the flat color of a shape whose style consumes one.
func (r *Registry) SetTint(h *Handle, c math3d.Vec4) error {
	rec := r.get(h)
	if !rec.resources.Has(ResColor) {
		return fmt.Errorf("%w: %s has no color", ErrNoSuchField, rec.style.Name)
	}
	r.update(h, func(rec *record) { rec.color = c })
	return nil
}

// Destroy removes a shape. The handle is dead afterwards: a second Destroy
// returns ErrHandleDestroyed and any other use panics. Overlays behind the
// removed one keep their relative order.
func (r *Registry) Destroy(h *Handle) error {
	if h != nil && h.owner == r && h.destroyed {
		return fmt.Errorf("%w: %v", ErrHandleDestroyed, h)
	}
	r.check(h)
	switch h.pass {
	case PassOverlay:
		r.overlay[h.slot] = overlaySlot{}
		r.live--
	default:
		r.index(h.pass).Remove(h.key)
	}
	h.destroyed = true
	r.log.Debug("shape destroyed", "pass", h.pass)
	return nil
}
