package command

// Mesh is CPU-side geometry referenced by DrawMesh.
type Mesh struct {
	Name     string
	Vertices [][3]float32
	Indices  []uint32
}

var fullScreenTriangle = &Mesh{
	Name:     "FullScreenTriangle",
	Vertices: [][3]float32{{-1, -1, 0}, {3, -1, 0}, {-1, 3, 0}},
	Indices:  []uint32{0, 1, 2},
}

// FullScreenTriangle returns the shared oversized triangle that covers clip space, used for
// full-screen lighting and blit passes.
func FullScreenTriangle() *Mesh {
	return fullScreenTriangle
}
