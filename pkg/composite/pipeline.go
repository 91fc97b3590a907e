package composite

type Matrix [4][4]float32

var Identity = Matrix{
	{1, 0, 0, 0},
	{0, 1, 0, 0},
	{0, 0, 1, 0},
	{0, 0, 0, 1},
}

func (m Matrix) apply(x, y float32) (float32, float32) {
	// column major, z = 0 and w = 1
	return m[0][0]*x + m[1][0]*y + m[3][0], m[0][1]*x + m[1][1]*y + m[3][1]
}

type Vertex struct {
	Position [2]float32
	TexCoord [2]float32
}

// Quad covers the whole target, drawn as a triangle strip.
type Quad struct {
	Vertices []Vertex
	Strip    []uint16
}

var FullScreenQuad = Quad{
	Vertices: []Vertex{
		{Position: [2]float32{-1, -1}, TexCoord: [2]float32{0, 0}},
		{Position: [2]float32{-1, 1}, TexCoord: [2]float32{0, 1}},
		{Position: [2]float32{1, 1}, TexCoord: [2]float32{1, 1}},
		{Position: [2]float32{1, -1}, TexCoord: [2]float32{1, 0}},
	},
	Strip: []uint16{1, 2, 0, 3},
}

// Triangles expands the strip into vertex triples.
func (q Quad) Triangles() [][3]Vertex {
	var tris [][3]Vertex
	for i := 0; i+2 < len(q.Strip); i++ {
		tris = append(tris, [3]Vertex{
			q.Vertices[q.Strip[i]],
			q.Vertices[q.Strip[i+1]],
			q.Vertices[q.Strip[i+2]],
		})
	}
	return tris
}

type Uniforms struct {
	Matrix  Matrix
	Texture *Texture
}

// Transform is applied to texture coordinates before sampling. FlipY also
// mirrors horizontally, the behaviour camera rigs were aligned against.
type Transform struct {
	FlipX bool
	FlipY bool
}

func (t Transform) Apply(u, v float64) (float64, float64) {
	if t.FlipY {
		v = 1 - v
		u = 1 - u
	}
	if t.FlipX {
		u = 1 - u
	}
	return u, v
}

// Mask selects which output channels a draw may write.
type Mask struct {
	R, G, B, A bool
}

var (
	Camera1Mask = Mask{R: true, A: true}
	Camera2Mask = Mask{G: true, B: true, A: true}
)

type DrawCall struct {
	Quad      Quad
	Uniforms  Uniforms
	Transform Transform
	Mask      Mask
}

// Surface is a render target the compositor draws onto once per tick.
type Surface interface {
	Size() (w, h int)
	Clear()
	Draw(DrawCall) error
	Present() error
}
