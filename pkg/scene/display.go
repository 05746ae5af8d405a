// Package scene is the render-queue core: it owns shapes and their
// resources, sorts them into opaque, alpha and overlay passes, and drives a
// gpu.Backend through one frame per Update.
//
// Opaque and alpha shapes are kept in spatial indices so each frame only
// visits shapes inside the camera frustum, nearest first for opaque and
// farthest first for alpha. Overlays are drawn last, in insertion order,
// without camera or fog.
package scene

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/taigrr/diorama/pkg/bounds"
	"github.com/taigrr/diorama/pkg/gpu"
	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/spatial"
)

// Fog is a linear fog range along the view distance.
type Fog struct {
	Near float64
	Far  float64
}

type options struct {
	log     *slog.Logger
	events  EventSource
	proj    *bounds.Projection
	spatial []spatial.Option
	styles  []StyleDef
}

// Option configures a Display.
type Option func(*options)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithEvents sets the source Update polls for input.
func WithEvents(src EventSource) Option {
	return func(o *options) {
		o.events = src
	}
}

// WithProjection overrides the default projection. Its aspect ratio is
// replaced by the target's.
func WithProjection(p bounds.Projection) Option {
	return func(o *options) {
		o.proj = &p
	}
}

// WithWorldBounds sets the region the spatial indices subdivide and how
// deep.
func WithWorldBounds(world bounds.AABB, depth int) Option {
	return func(o *options) {
		o.spatial = append(o.spatial, spatial.WithWorldBounds(world), spatial.WithMaxDepth(depth))
	}
}

// WithStyles replaces the built-in style definitions. The MakeShape*
// constructors find their style by name, so defs may reorder the built-in
// styles or leave some out; a constructor whose style is missing fails
// with ErrUnknownResource. Added styles are drawn with MakeShape.
func WithStyles(defs []StyleDef) Option {
	return func(o *options) {
		o.styles = defs
	}
}

// Display is the application-facing API: resource creation, shape
// constructors, camera, fog and the per-frame Update.
type Display struct {
	backend gpu.Backend
	styles  *StyleTable
	shapes  *Registry
	camera  *Camera
	events  EventSource
	log     *slog.Logger

	width, height int
	background    math3d.Vec4
	fog           *Fog
}

// New creates a display drawing into b at the given size.
func New(b gpu.Backend, width, height int, opts ...Option) (*Display, error) {
	if b == nil {
		return nil, fmt.Errorf("scene: %w", gpu.ErrBackendUnavailable)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("scene: %dx%d target: %w", width, height, gpu.ErrUnsupportedTarget)
	}

	o := options{
		log:    slog.New(slog.DiscardHandler),
		styles: DefaultStyles(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	styles, err := NewStyleTable(b, o.styles)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	aspect := float64(width) / float64(height)
	proj := DefaultProjection(aspect)
	if o.proj != nil {
		proj = *o.proj
		proj.Aspect = aspect
	}

	d := &Display{
		backend:    b,
		styles:     styles,
		shapes:     newRegistry(b, styles, o.log, o.spatial...),
		camera:     NewCamera(proj),
		events:     o.events,
		log:        o.log,
		width:      width,
		height:     height,
		background: math3d.V4(0, 0, 0, 1),
	}
	b.SetViewport(width, height)
	b.SetClearColor(d.background.Float32())
	d.pushCamera()
	d.pushFog()
	d.log.Info("display created", "width", width, "height", height, "styles", styles.Len())
	return d, nil
}

// Shapes returns the shape registry.
func (d *Display) Shapes() *Registry {
	return d.shapes
}

// Camera returns the camera. Call SetCamera after changing it.
func (d *Display) Camera() *Camera {
	return d.camera
}

// CreateModel uploads xyzw vertices and the fans that draw them.
func (d *Display) CreateModel(vertices []float32, fans [][2]int) (ModelID, error) {
	id, err := d.shapes.createModel(vertices, fans)
	if err != nil {
		return 0, err
	}
	d.log.Debug("model created", "id", id, "vertices", len(vertices)/4, "fans", len(fans))
	return id, nil
}

// CreateGradient uploads per-vertex rgba colors.
func (d *Display) CreateGradient(colors []float32) (GradientID, error) {
	id, err := d.shapes.createGradient(colors)
	if err != nil {
		return 0, err
	}
	d.log.Debug("gradient created", "id", id)
	return id, nil
}

// CreateTexCoords uploads per-vertex texture coordinates, four floats per
// vertex of which the first two are used.
func (d *Display) CreateTexCoords(coords []float32) (TexCoordsID, error) {
	id, err := d.shapes.createTexCoords(coords)
	if err != nil {
		return 0, err
	}
	d.log.Debug("texcoords created", "id", id)
	return id, nil
}

// CreateTexture uploads img.
func (d *Display) CreateTexture(img image.Image) TextureID {
	id := d.shapes.createTexture(img)
	d.log.Debug("texture created", "id", id, "size", img.Bounds().Size())
	return id
}

// UpdateTexture replaces the pixels of a texture. Every shape using it
// sees the change.
func (d *Display) UpdateTexture(id TextureID, img image.Image) error {
	return d.shapes.updateTexture(id, img)
}

// ShapeFields are the per-shape inputs of MakeShape. Only the ones the
// style declares are read.
type ShapeFields struct {
	Gradient  GradientID
	TexCoords TexCoordsID
	Texture   TextureID
	Alpha     float64
	Color     math3d.Vec4
}

// Style returns the id of the named style.
func (d *Display) Style(name string) (StyleID, error) {
	return d.styles.Lookup(name)
}

// MakeShape creates a shape of any style in the table, including styles
// added with WithStyles.
func (d *Display) MakeShape(style StyleID, m ModelID, transform math3d.Mat4, in ShapeFields, f Flags) (*Handle, error) {
	return d.shapes.create(shapeSpec{
		style:     style,
		model:     m,
		transform: transform,
		gradient:  in.Gradient,
		texcoords: in.TexCoords,
		texture:   in.Texture,
		alpha:     in.Alpha,
		color:     in.Color,
		flags:     f,
	})
}

func (d *Display) makeNamed(name string, m ModelID, transform math3d.Mat4, in ShapeFields, f Flags) (*Handle, error) {
	id, err := d.styles.Lookup(name)
	if err != nil {
		return nil, err
	}
	return d.MakeShape(id, m, transform, in, f)
}

// MakeShapeSolid creates a shape filled with one color.
func (d *Display) MakeShapeSolid(m ModelID, transform math3d.Mat4, color math3d.Vec4, f Flags) (*Handle, error) {
	return d.makeNamed(StyleNameSolid, m, transform, ShapeFields{Color: color}, f)
}

// MakeShapeGradient creates a shape colored per vertex.
func (d *Display) MakeShapeGradient(m ModelID, transform math3d.Mat4, g GradientID, f Flags) (*Handle, error) {
	return d.makeNamed(StyleNameGradient, m, transform, ShapeFields{Gradient: g}, f)
}

// MakeShapeTexture creates a textured shape.
func (d *Display) MakeShapeTexture(m ModelID, transform math3d.Mat4, t TextureID, tc TexCoordsID, f Flags) (*Handle, error) {
	return d.makeNamed(StyleNameTexture, m, transform, ShapeFields{Texture: t, TexCoords: tc}, f)
}

// MakeShapeFaded creates a textured shape with uniform opacity. Faded
// shapes are always blended.
func (d *Display) MakeShapeFaded(m ModelID, transform math3d.Mat4, t TextureID, tc TexCoordsID, alpha float64, f Flags) (*Handle, error) {
	f.Blending = true
	return d.makeNamed(StyleNameFaded, m, transform, ShapeFields{Texture: t, TexCoords: tc, Alpha: alpha}, f)
}

// MakeShapeTinted creates a textured shape multiplied by a flat color.
func (d *Display) MakeShapeTinted(m ModelID, transform math3d.Mat4, t TextureID, tc TexCoordsID, tint math3d.Vec4, f Flags) (*Handle, error) {
	return d.makeNamed(StyleNameTinted, m, transform, ShapeFields{Texture: t, TexCoords: tc, Color: tint}, f)
}

// MakeShapeComplex creates a textured shape multiplied by per-vertex
// colors.
func (d *Display) MakeShapeComplex(m ModelID, transform math3d.Mat4, t TextureID, tc TexCoordsID, g GradientID, f Flags) (*Handle, error) {
	return d.makeNamed(StyleNameComplex, m, transform, ShapeFields{Texture: t, TexCoords: tc, Gradient: g}, f)
}

// SetTransform moves a shape.
func (d *Display) SetTransform(h *Handle, transform math3d.Mat4) {
	d.shapes.SetTransform(h, transform)
}

// SetAlpha changes the opacity of a faded shape.
func (d *Display) SetAlpha(h *Handle, alpha float64) error {
	return d.shapes.SetAlpha(h, alpha)
}

// SetTint changes the flat color of a solid or tinted shape.
func (d *Display) SetTint(h *Handle, c math3d.Vec4) error {
	return d.shapes.SetTint(h, c)
}

// Destroy removes a shape.
func (d *Display) Destroy(h *Handle) error {
	return d.shapes.Destroy(h)
}

// SetCamera places the camera.
func (d *Display) SetCamera(position, rotation math3d.Vec3) {
	d.camera.Position = position
	d.camera.Rotation = rotation
	d.pushCamera()
}

func (d *Display) pushCamera() {
	d.styles.SetCamera(d.backend, d.camera.Matrix())
}

// SetFog enables linear fog over [Near, Far], or disables it when fog is
// nil. The fog color is the background color.
func (d *Display) SetFog(fog *Fog) {
	if fog != nil {
		f := *fog
		fog = &f
	}
	d.fog = fog
	d.pushFog()
	if fog != nil {
		d.log.Info("fog enabled", "near", fog.Near, "far", fog.Far)
	} else {
		d.log.Info("fog disabled")
	}
}

func (d *Display) pushFog() {
	c := d.background
	c.W = 1
	rng := math3d.V2(math.MaxFloat32, 0)
	if d.fog != nil {
		rng = math3d.V2(d.fog.Near, d.fog.Far)
	}
	d.styles.SetFog(d.backend, c, rng)
}

// SetBackground sets the clear color, which is also the fog color.
func (d *Display) SetBackground(c math3d.Vec4) {
	d.background = c
	d.backend.SetClearColor(c.Float32())
	d.pushFog()
}

// Resize adapts the viewport and the projection to a new target size.
func (d *Display) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		d.log.Warn("ignoring resize", "width", width, "height", height)
		return
	}
	d.width, d.height = width, height
	d.backend.SetViewport(width, height)
	d.camera.SetAspectRatio(float64(width) / float64(height))
	d.pushCamera()
	d.log.Info("resized", "width", width, "height", height)
}

// Size returns the target size.
func (d *Display) Size() (width, height int) {
	return d.width, d.height
}

// Compose builds the render queue for the current camera without drawing.
func (d *Display) Compose() *Frame {
	return d.shapes.Compose(d.camera.Frustum())
}

// Update runs one frame. When an input event is pending it is returned
// instead and nothing is drawn.
func (d *Display) Update() (Event, error) {
	if d.events != nil {
		if ev, ok := d.events.Poll(); ok {
			return ev, nil
		}
	}
	if err := d.Compose().Render(d.backend, d.styles); err != nil {
		return nil, fmt.Errorf("scene: render: %w", err)
	}
	return nil, nil
}
