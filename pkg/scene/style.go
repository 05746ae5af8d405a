package scene

import (
	"fmt"
	"strings"

	"github.com/taigrr/diorama/pkg/gpu"
	"github.com/taigrr/diorama/pkg/math3d"
)

// Resource is a set of optional inputs a style consumes.
type Resource uint8

const (
	ResTexture      Resource = 1 << iota // sampled texture
	ResTexCoords                         // per-vertex texture coordinates
	ResVertexColors                      // per-vertex colors
	ResAlpha                             // scalar opacity
	ResColor                             // flat color
	ResFog                               // fog color and range
)

var resourceNames = []struct {
	res  Resource
	name string
}{
	{ResTexture, "texture"},
	{ResTexCoords, "texcoords"},
	{ResVertexColors, "colors"},
	{ResAlpha, "alpha"},
	{ResColor, "color"},
	{ResFog, "fog"},
}

// Has reports whether every resource in o is in r.
func (r Resource) Has(o Resource) bool {
	return r&o == o
}

func (r Resource) String() string {
	var names []string
	for _, n := range resourceNames {
		if r.Has(n.res) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// StyleID selects an entry of a StyleTable.
type StyleID int

// The six built-in styles, in DefaultStyles order. A table built from
// WithStyles may order them differently; look them up by name there.
const (
	StyleGradient StyleID = iota
	StyleTexture
	StyleFaded
	StyleTinted
	StyleSolid
	StyleComplex
)

// Names of the built-in styles. The shape constructors resolve their style
// by these names.
const (
	StyleNameGradient = "gradient"
	StyleNameTexture  = "texture"
	StyleNameFaded    = "faded"
	StyleNameTinted   = "tinted"
	StyleNameSolid    = "solid"
	StyleNameComplex  = "complex"
)

// StyleDef declares a draw pipeline variant by the resources it consumes.
type StyleDef struct {
	Name      string
	Resources Resource

	// AlwaysBlend routes camera or fog shapes of this style to the alpha
	// pass regardless of their Blending flag.
	AlwaysBlend bool
}

// DefaultStyles returns the six built-in style definitions indexed by
// StyleID.
func DefaultStyles() []StyleDef {
	return []StyleDef{
		StyleGradient: {Name: StyleNameGradient, Resources: ResVertexColors | ResFog},
		StyleTexture:  {Name: StyleNameTexture, Resources: ResTexture | ResTexCoords | ResFog},
		StyleFaded:    {Name: StyleNameFaded, Resources: ResTexture | ResTexCoords | ResAlpha | ResFog, AlwaysBlend: true},
		StyleTinted:   {Name: StyleNameTinted, Resources: ResTexture | ResTexCoords | ResColor | ResFog},
		StyleSolid:    {Name: StyleNameSolid, Resources: ResColor | ResFog},
		StyleComplex:  {Name: StyleNameComplex, Resources: ResTexture | ResTexCoords | ResVertexColors | ResFog},
	}
}

func (d StyleDef) programDesc() gpu.ProgramDesc {
	desc := gpu.ProgramDesc{
		Name:       d.Name,
		Attributes: []gpu.Attribute{gpu.AttribPosition},
		Uniforms:   []gpu.Uniform{gpu.UniformModel, gpu.UniformCamera, gpu.UniformHasCamera},
		Textured:   d.Resources.Has(ResTexture),
	}
	if d.Resources.Has(ResTexCoords) {
		desc.Attributes = append(desc.Attributes, gpu.AttribTexCoord)
	}
	if d.Resources.Has(ResVertexColors) {
		desc.Attributes = append(desc.Attributes, gpu.AttribColor)
	}
	if d.Resources.Has(ResFog) {
		desc.Uniforms = append(desc.Uniforms, gpu.UniformHasFog, gpu.UniformFog, gpu.UniformFogRange)
	}
	if d.Resources.Has(ResAlpha) {
		desc.Uniforms = append(desc.Uniforms, gpu.UniformAlpha)
	}
	if d.Resources.Has(ResColor) {
		desc.Uniforms = append(desc.Uniforms, gpu.UniformColor)
	}
	return desc
}

// Style is a StyleDef with its backend program.
type Style struct {
	StyleDef
	ID      StyleID
	Program gpu.ProgramID
}

// StyleTable holds one program per style. It is built once per backend and
// shared by the registry, the composer and the executor.
type StyleTable struct {
	styles []*Style
	byName map[string]StyleID
}

// NewStyleTable creates a program for every definition. Names must be
// unique.
func NewStyleTable(b gpu.Backend, defs []StyleDef) (*StyleTable, error) {
	t := &StyleTable{
		styles: make([]*Style, 0, len(defs)),
		byName: make(map[string]StyleID, len(defs)),
	}
	for i, def := range defs {
		if _, dup := t.byName[def.Name]; dup {
			return nil, fmt.Errorf("style %q: %w", def.Name, ErrDuplicateStyle)
		}
		t.byName[def.Name] = StyleID(i)
		prog, err := b.NewProgram(def.programDesc())
		if err != nil {
			return nil, fmt.Errorf("style %q: %w", def.Name, err)
		}
		t.styles = append(t.styles, &Style{StyleDef: def, ID: StyleID(i), Program: prog})
	}
	return t, nil
}

// Get returns the style with the given id.
func (t *StyleTable) Get(id StyleID) (*Style, error) {
	if id < 0 || int(id) >= len(t.styles) {
		return nil, fmt.Errorf("%w: style %d", ErrUnknownResource, id)
	}
	return t.styles[id], nil
}

// Lookup returns the id of the style with the given name.
func (t *StyleTable) Lookup(name string) (StyleID, error) {
	id, ok := t.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: style %q", ErrUnknownResource, name)
	}
	return id, nil
}

// Len returns the number of styles.
func (t *StyleTable) Len() int {
	return len(t.styles)
}

// SetHasCamera tells every style whether the camera matrix applies.
func (t *StyleTable) SetHasCamera(b gpu.Backend, on bool) {
	v := boolUniform(on)
	for _, s := range t.styles {
		b.BindProgram(s.Program)
		b.SetUniformScalar(gpu.UniformHasCamera, v)
	}
}

// SetCamera pushes the projection * view matrix to every style.
func (t *StyleTable) SetCamera(b gpu.Backend, m math3d.Mat4) {
	cam := m.Float32()
	for _, s := range t.styles {
		b.BindProgram(s.Program)
		b.SetUniformMat4(gpu.UniformCamera, cam)
	}
}

// SetFog pushes the fog color and range to every style that declares fog.
func (t *StyleTable) SetFog(b gpu.Backend, c math3d.Vec4, rng math3d.Vec2) {
	for _, s := range t.styles {
		if !s.Resources.Has(ResFog) {
			continue
		}
		b.BindProgram(s.Program)
		b.SetUniformVec4(gpu.UniformFog, c.Float32())
		b.SetUniformVec2(gpu.UniformFogRange, rng.Float32())
	}
}

func boolUniform(on bool) float32 {
	if on {
		return 1
	}
	return 0
}
