package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/chewxy/math32"
)

// extractMeshes walks the default scene (or every root node when the document names none) and
// returns one Part per triangle primitive, with the node's world transform baked into the
// vertices.
func (p *gltfParser) extractMeshes() ([]model.Part, error) {
	doc := p.document
	roots, err := p.rootNodes()
	if err != nil {
		return nil, err
	}

	var parts []model.Part
	var visit func(node int, parent [16]float32, depth int) error
	visit = func(node int, parent [16]float32, depth int) error {
		if node < 0 || node >= len(doc.Nodes) {
			return fmt.Errorf("%w: node %d out of range", ErrInvalidModel, node)
		}
		if depth > len(doc.Nodes) {
			return fmt.Errorf("%w: node hierarchy has a cycle", ErrInvalidModel)
		}
		n := &doc.Nodes[node]
		world := nodeLocalMatrix(n)
		common.Mul4(world[:], parent[:], world[:])

		if n.Mesh != nil {
			meshParts, err := p.extractMesh(*n.Mesh, n.Name, world)
			if err != nil {
				return err
			}
			parts = append(parts, meshParts...)
		}
		for _, child := range n.Children {
			if err := visit(child, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range roots {
		if err := visit(root, common.IdentityMatrix(), 0); err != nil {
			return nil, err
		}
	}
	return parts, nil
}

func (p *gltfParser) rootNodes() ([]int, error) {
	doc := p.document
	if len(doc.Scenes) > 0 {
		scene := 0
		if doc.Scene != nil {
			scene = *doc.Scene
		}
		if scene < 0 || scene >= len(doc.Scenes) {
			return nil, fmt.Errorf("%w: scene %d out of range", ErrInvalidModel, scene)
		}
		return doc.Scenes[scene].Nodes, nil
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

func (p *gltfParser) extractMesh(index int, nodeName string, world [16]float32) ([]model.Part, error) {
	if index < 0 || index >= len(p.document.Meshes) {
		return nil, fmt.Errorf("%w: mesh %d out of range", ErrInvalidModel, index)
	}
	mesh := &p.document.Meshes[index]
	name := common.Coalesce(mesh.Name, nodeName, fmt.Sprintf("mesh%d", index))

	var parts []model.Part
	for i := range mesh.Primitives {
		prim := &mesh.Primitives[i]
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			common.Logger().Warn("skipping non-triangle primitive", "mesh", name, "primitive", i, "mode", *prim.Mode)
			continue
		}
		posIndex, ok := prim.Attributes["POSITION"]
		if !ok {
			return nil, fmt.Errorf("%w: mesh %q primitive %d has no POSITION", ErrInvalidModel, name, i)
		}
		positions, err := p.readVec3(posIndex)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", name, err)
		}

		var indices []uint32
		if prim.Indices != nil {
			if indices, err = p.readIndices(*prim.Indices); err != nil {
				return nil, fmt.Errorf("mesh %q: %w", name, err)
			}
			for _, idx := range indices {
				if int(idx) >= len(positions) {
					return nil, fmt.Errorf("%w: mesh %q index %d exceeds %d vertices", ErrInvalidModel, name, idx, len(positions))
				}
			}
		} else {
			indices = make([]uint32, len(positions))
			for v := range indices {
				indices[v] = uint32(v)
			}
		}

		partName := name
		if len(mesh.Primitives) > 1 {
			partName = fmt.Sprintf("%s.%d", name, i)
		}
		parts = append(parts, newPart(partName, positions, indices, world))
	}
	return parts, nil
}

// newPart transforms positions to world space, then recenters them on their bounding box so the
// part's Center and Radius describe a bounding sphere in object space.
func newPart(name string, positions [][3]float32, indices []uint32, world [16]float32) model.Part {
	verts := make([][3]float32, len(positions))
	lo := [3]float32{math32.Inf(1), math32.Inf(1), math32.Inf(1)}
	hi := [3]float32{math32.Inf(-1), math32.Inf(-1), math32.Inf(-1)}
	for i, pos := range positions {
		w := common.MulVec4(world[:], [4]float32{pos[0], pos[1], pos[2], 1})
		verts[i] = [3]float32{w[0], w[1], w[2]}
		for a := range 3 {
			lo[a] = math32.Min(lo[a], w[a])
			hi[a] = math32.Max(hi[a], w[a])
		}
	}

	var center [3]float32
	if len(verts) > 0 {
		center = [3]float32{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2, (lo[2] + hi[2]) / 2}
	}
	var radius float32
	for i := range verts {
		for a := range 3 {
			verts[i][a] -= center[a]
		}
		radius = math32.Max(radius, math32.Sqrt(common.Dot3(verts[i], verts[i])))
	}

	return model.Part{
		Mesh:   &command.Mesh{Name: name, Vertices: verts, Indices: indices},
		Center: center,
		Radius: radius,
	}
}

// nodeLocalMatrix returns the node's column-major local transform, T * R * S when the node has
// no explicit matrix.
func nodeLocalMatrix(n *gltfNode) [16]float32 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	t := [3]float32{}
	q := [4]float32{0, 0, 0, 1}
	s := [3]float32{1, 1, 1}
	if n.Translation != nil {
		t = *n.Translation
	}
	if n.Rotation != nil {
		q = *n.Rotation
	}
	if n.Scale != nil {
		s = *n.Scale
	}

	x, y, z, w := q[0], q[1], q[2], q[3]
	return [16]float32{
		(1 - 2*(y*y+z*z)) * s[0], 2 * (x*y + z*w) * s[0], 2 * (x*z - y*w) * s[0], 0,
		2 * (x*y - z*w) * s[1], (1 - 2*(x*x+z*z)) * s[1], 2 * (y*z + x*w) * s[1], 0,
		2 * (x*z + y*w) * s[2], 2 * (y*z - x*w) * s[2], (1 - 2*(x*x+y*y)) * s[2], 0,
		t[0], t[1], t[2], 1,
	}
}
