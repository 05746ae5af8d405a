// Package spatial provides a box-indexed octree used to cull and order the
// shapes of one render pass against a view frustum.
package spatial

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/taigrr/diorama/pkg/bounds"
	"github.com/taigrr/diorama/pkg/math3d"
)

var (
	// ErrInvalidKey is the panic value (wrapped) when a removed or foreign
	// key is dereferenced.
	ErrInvalidKey = errors.New("spatial: invalid key")

	// ErrBucketChanged is returned by UpdateInPlace when the new box no
	// longer belongs in the key's current node.
	ErrBucketChanged = errors.New("spatial: box leaves its bucket")
)

const (
	defaultWorldHalfExtent = 1024
	defaultMaxDepth        = 8
)

// Key identifies one record in an Index. The zero Key is never valid, and a
// removed key never becomes valid again: its slot is reused only under a new
// generation.
type Key struct {
	slot uint32
	gen  uint32
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return fmt.Sprintf("%d@%d", k.slot, k.gen)
}

func compareKeys(a, b Key) int {
	if c := cmp.Compare(a.slot, b.slot); c != 0 {
		return c
	}
	return cmp.Compare(a.gen, b.gen)
}

type slot[T any] struct {
	rec  T
	box  bounds.AABB
	node *node
	pos  int // position of the key in node.keys
	gen  uint32
	live bool
}

type node struct {
	bounds   bounds.AABB
	depth    int
	parent   *node
	oct      int // index in parent.children
	children *[8]*node
	keys     []Key
}

// Index maps keys to records and their bounding boxes. Boxes are stored in
// the deepest octree node that fully contains them; boxes outside the world
// bounds live in the root. Nodes left empty by Remove are freed, so the tree
// size follows the live records, not their movement history.
type Index[T any] struct {
	root     *node
	maxDepth int
	slots    []slot[T]
	free     []uint32
	count    int
}

type config struct {
	world    bounds.AABB
	maxDepth int
}

// Option configures an Index.
type Option func(*config)

// WithWorldBounds sets the region the octree subdivides.
func WithWorldBounds(world bounds.AABB) Option {
	return func(c *config) {
		c.world = world
	}
}

// WithMaxDepth limits how many times the world is subdivided.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = max(depth, 0)
	}
}

// New creates an empty index.
func New[T any](opts ...Option) *Index[T] {
	h := float64(defaultWorldHalfExtent)
	cfg := config{
		world:    bounds.NewAABB(math3d.V3(-h, -h, -h), math3d.V3(h, h, h)),
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Index[T]{
		root:     &node{bounds: cfg.world},
		maxDepth: cfg.maxDepth,
	}
}

// Len returns the number of live records.
func (ix *Index[T]) Len() int {
	return ix.count
}

// Insert stores rec under box and returns its key. The key stays valid until
// Remove is called with it.
func (ix *Index[T]) Insert(rec T, box bounds.AABB) Key {
	var idx uint32
	if n := len(ix.free); n > 0 {
		idx = ix.free[n-1]
		ix.free = ix.free[:n-1]
	} else {
		ix.slots = append(ix.slots, slot[T]{})
		idx = uint32(len(ix.slots) - 1)
	}

	s := &ix.slots[idx]
	s.gen++
	s.live = true
	s.rec = rec
	s.box = box

	key := Key{slot: idx, gen: s.gen}
	ix.attach(key, ix.place(box))
	ix.count++
	return key
}

// Remove deletes the record and invalidates key.
func (ix *Index[T]) Remove(key Key) T {
	s := ix.lookup(key)
	rec := s.rec
	ix.detach(key)

	var zero T
	s.rec = zero
	s.live = false
	s.node = nil
	ix.free = append(ix.free, key.slot)
	ix.count--
	return rec
}

// UpdateInPlace replaces the record and box stored under key without
// changing the key. It fails with ErrBucketChanged when box would be stored
// in a different node; callers must then Remove and Insert.
func (ix *Index[T]) UpdateInPlace(key Key, rec T, box bounds.AABB) error {
	s := ix.lookup(key)
	if !ix.fits(s.node, box) {
		return fmt.Errorf("%w: key %v", ErrBucketChanged, key)
	}
	s.rec = rec
	s.box = box
	return nil
}

// Get returns the record stored under key.
func (ix *Index[T]) Get(key Key) T {
	return ix.lookup(key).rec
}

// Box returns the bounding box stored under key.
func (ix *Index[T]) Box(key Key) bounds.AABB {
	return ix.lookup(key).box
}

// Bucket returns the bounds of the node holding key.
func (ix *Index[T]) Bucket(key Key) bounds.AABB {
	return ix.lookup(key).node.bounds
}

// Contains reports whether key is live.
func (ix *Index[T]) Contains(key Key) bool {
	if key.slot >= uint32(len(ix.slots)) {
		return false
	}
	s := &ix.slots[key.slot]
	return s.live && s.gen == key.gen
}

// All iterates live records in slot order.
func (ix *Index[T]) All() iter.Seq2[Key, T] {
	return func(yield func(Key, T) bool) {
		for i := range ix.slots {
			s := &ix.slots[i]
			if !s.live {
				continue
			}
			if !yield(Key{slot: uint32(i), gen: s.gen}, s.rec) {
				return
			}
		}
	}
}

// OrderedNear returns the keys whose box intersects f, nearest to the
// frustum reference point first.
func (ix *Index[T]) OrderedNear(f bounds.Frustum) []Key {
	hits := ix.query(f)
	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		return compareKeys(a.key, b.key)
	})
	return keysOf(hits)
}

// OrderedFar returns the same keys as OrderedNear in exactly the reverse
// order: farthest first.
func (ix *Index[T]) OrderedFar(f bounds.Frustum) []Key {
	hits := ix.query(f)
	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(b.dist, a.dist); c != 0 {
			return c
		}
		return compareKeys(b.key, a.key)
	})
	return keysOf(hits)
}

type hit struct {
	key  Key
	dist float64
}

func keysOf(hits []hit) []Key {
	keys := make([]Key, len(hits))
	for i, h := range hits {
		keys[i] = h.key
	}
	return keys
}

func (ix *Index[T]) query(f bounds.Frustum) []hit {
	var hits []hit
	var visit func(n *node)
	visit = func(n *node) {
		// The root also holds boxes outside the world, so it is never pruned.
		if n != ix.root && !f.IntersectAABB(n.bounds) {
			return
		}
		for _, k := range n.keys {
			box := ix.slots[k.slot].box
			if f.IntersectAABB(box) {
				hits = append(hits, hit{key: k, dist: f.Distance(box)})
			}
		}
		if n.children == nil {
			return
		}
		for _, c := range n.children {
			if c != nil {
				visit(c)
			}
		}
	}
	visit(ix.root)
	return hits
}

func (ix *Index[T]) lookup(key Key) *slot[T] {
	if !ix.Contains(key) {
		panic(fmt.Errorf("%w: %v", ErrInvalidKey, key))
	}
	return &ix.slots[key.slot]
}

// place finds, creating nodes as needed, the deepest node that fully
// contains box.
func (ix *Index[T]) place(box bounds.AABB) *node {
	n := ix.root
	if !n.bounds.Contains(box) {
		return n
	}
	for n.depth < ix.maxDepth {
		oct := octant(n.bounds, box)
		if oct < 0 {
			break
		}
		if n.children == nil {
			n.children = new([8]*node)
		}
		if n.children[oct] == nil {
			n.children[oct] = &node{
				bounds: childBounds(n.bounds, oct),
				depth:  n.depth + 1,
				parent: n,
				oct:    oct,
			}
		}
		n = n.children[oct]
	}
	return n
}

// fits reports whether place(box) would land in n.
func (ix *Index[T]) fits(n *node, box bounds.AABB) bool {
	if n == ix.root {
		if !n.bounds.Contains(box) {
			return true
		}
	} else if !n.bounds.Contains(box) {
		return false
	}
	return n.depth >= ix.maxDepth || octant(n.bounds, box) < 0
}

func (ix *Index[T]) attach(key Key, n *node) {
	s := &ix.slots[key.slot]
	s.node = n
	s.pos = len(n.keys)
	n.keys = append(n.keys, key)
}

func (ix *Index[T]) detach(key Key) {
	s := &ix.slots[key.slot]
	n := s.node
	last := len(n.keys) - 1
	if s.pos != last {
		moved := n.keys[last]
		n.keys[s.pos] = moved
		ix.slots[moved.slot].pos = s.pos
	}
	n.keys = n.keys[:last]
	prune(n)
}

// prune unlinks n and then its ancestors while they hold no keys and no
// children, so the tree only spans boxes that are still stored.
func prune(n *node) {
	for n.parent != nil && len(n.keys) == 0 && n.children == nil {
		p := n.parent
		p.children[n.oct] = nil
		if *p.children == [8]*node{} {
			p.children = nil
		}
		n = p
	}
}

// nodeCount returns the number of nodes in the tree, root included.
func (ix *Index[T]) nodeCount() int {
	var count func(n *node) int
	count = func(n *node) int {
		c := 1
		if n.children != nil {
			for _, ch := range n.children {
				if ch != nil {
					c += count(ch)
				}
			}
		}
		return c
	}
	return count(ix.root)
}

// octant returns which child of parent fully contains box, or -1 when the
// box straddles a split plane.
func octant(parent, box bounds.AABB) int {
	c := parent.Center()
	oct := 0
	for axis, v := range [3][3]float64{
		{box.Min.X, box.Max.X, c.X},
		{box.Min.Y, box.Max.Y, c.Y},
		{box.Min.Z, box.Max.Z, c.Z},
	} {
		switch {
		case v[1] <= v[2]:
		case v[0] >= v[2]:
			oct |= 1 << axis
		default:
			return -1
		}
	}
	return oct
}

func childBounds(parent bounds.AABB, oct int) bounds.AABB {
	c := parent.Center()
	b := parent
	if oct&1 != 0 {
		b.Min.X = c.X
	} else {
		b.Max.X = c.X
	}
	if oct&2 != 0 {
		b.Min.Y = c.Y
	} else {
		b.Max.Y = c.Y
	}
	if oct&4 != 0 {
		b.Min.Z = c.Z
	} else {
		b.Max.Z = c.Z
	}
	return b
}
