package graphics

import (
	_ "embed"
	"fmt"

	"mini-voxel/internal/meshing"
	"mini-voxel/internal/registry"
	"mini-voxel/internal/terrain"
	"mini-voxel/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	//go:embed shaders/chunk.vert
	chunkVertSrc string
	//go:embed shaders/chunk.frag
	chunkFragSrc string
)

type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
	seq           uint64
}

// DrawStats describes the last Draw call.
type DrawStats struct {
	Drawn  int
	Culled int
	Faces  int
}

// ChunkRenderer mirrors a terrain.MeshMap into GPU buffers and draws it.
// All methods must be called on the GL thread.
type ChunkRenderer struct {
	shader  *Shader
	texture uint32
	meshes  map[world.ChunkCoord]*gpuMesh
	version uint64
	synced  bool
	stats   DrawStats

	FogColor mgl32.Vec3
	FogStart float32
	FogEnd   float32
}

// NewChunkRenderer compiles the chunk shader and uploads one texture layer
// per registry texture.
func NewChunkRenderer(reg *registry.Registry) (*ChunkRenderer, error) {
	shader, err := NewShader(chunkVertSrc, chunkFragSrc)
	if err != nil {
		return nil, fmt.Errorf("chunk shader: %w", err)
	}
	tex, err := NewTextureArray(BuildLayerImages(reg.TextureNames(), LayerSize))
	if err != nil {
		shader.Delete()
		return nil, fmt.Errorf("block textures: %w", err)
	}
	return &ChunkRenderer{
		shader:   shader,
		texture:  tex,
		meshes:   make(map[world.ChunkCoord]*gpuMesh),
		FogColor: mgl32.Vec3{0.62, 0.76, 0.95},
		FogStart: 64,
		FogEnd:   96,
	}, nil
}

// Sync uploads new or replaced meshes and frees buffers of removed ones.
// It does nothing while the map version is unchanged.
func (r *ChunkRenderer) Sync(src *terrain.MeshMap) (uploaded, freed int) {
	version := src.Version()
	if r.synced && version == r.version {
		return 0, 0
	}
	snap := src.Snapshot()

	for coord, gm := range r.meshes {
		if _, ok := snap[coord]; !ok {
			gm.release()
			delete(r.meshes, coord)
			freed++
		}
	}
	for coord, e := range snap {
		gm := r.meshes[coord]
		if gm != nil && gm.seq == e.Seq {
			continue
		}
		if gm == nil {
			gm = &gpuMesh{}
			r.meshes[coord] = gm
		}
		gm.upload(e.Mesh)
		gm.seq = e.Seq
		uploaded++
	}

	r.version = version
	r.synced = true
	return uploaded, freed
}

// Draw renders every resident mesh that intersects the view frustum.
func (r *ChunkRenderer) Draw(view, projection mgl32.Mat4) {
	r.stats = DrawStats{}
	frustum := NewFrustum(projection.Mul4(view))

	gl.Enable(gl.DEPTH_TEST)
	// meshing emits CCW front faces
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	r.shader.Use()
	r.shader.SetMat4("view", view)
	r.shader.SetMat4("projection", projection)
	r.shader.SetVec3("fogColor", r.FogColor)
	r.shader.SetFloat("fogStart", r.FogStart)
	r.shader.SetFloat("fogEnd", r.FogEnd)
	r.shader.SetInt("blockTextures", 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, r.texture)

	edge := mgl32.Vec3{world.ChunkSize, world.ChunkSize, world.ChunkSize}
	for coord, gm := range r.meshes {
		if gm.indexCount == 0 {
			continue
		}
		origin := coord.WorldOrigin()
		if !frustum.IntersectsAABB(origin, origin.Add(edge)) {
			r.stats.Culled++
			continue
		}
		r.shader.SetMat4("model", mgl32.Translate3D(origin.X(), origin.Y(), origin.Z()))
		gl.BindVertexArray(gm.vao)
		gl.DrawElements(gl.TRIANGLES, gm.indexCount, gl.UNSIGNED_INT, nil)
		r.stats.Drawn++
		r.stats.Faces += int(gm.indexCount) / 6
	}
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
}

func (r *ChunkRenderer) Stats() DrawStats { return r.stats }

// Resident returns the number of chunks with GPU state.
func (r *ChunkRenderer) Resident() int { return len(r.meshes) }

// Dispose frees all GPU resources.
func (r *ChunkRenderer) Dispose() {
	for coord, gm := range r.meshes {
		gm.release()
		delete(r.meshes, coord)
	}
	if r.texture != 0 {
		gl.DeleteTextures(1, &r.texture)
		r.texture = 0
	}
	r.shader.Delete()
	r.synced = false
}

func (gm *gpuMesh) upload(mesh *meshing.MeshData) {
	if mesh.IsEmpty() {
		gm.release()
		return
	}
	if gm.vao == 0 {
		gl.GenVertexArrays(1, &gm.vao)
		gl.GenBuffers(1, &gm.vbo)
		gl.GenBuffers(1, &gm.ebo)

		gl.BindVertexArray(gm.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)

		stride := int32(meshing.VertexStride * 4)
		// position
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
		// uv
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 3*4)
		// layer
		gl.EnableVertexAttribArray(2)
		gl.VertexAttribPointerWithOffset(2, 1, gl.FLOAT, false, stride, 5*4)
		// shade
		gl.EnableVertexAttribArray(3)
		gl.VertexAttribPointerWithOffset(3, 1, gl.FLOAT, false, stride, 6*4)
	} else {
		gl.BindVertexArray(gm.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	}

	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*4, gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)
	// the element buffer binding is VAO state
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
	gm.indexCount = int32(len(mesh.Indices))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (gm *gpuMesh) release() {
	if gm.vao != 0 {
		gl.DeleteVertexArrays(1, &gm.vao)
		gl.DeleteBuffers(1, &gm.vbo)
		gl.DeleteBuffers(1, &gm.ebo)
	}
	*gm = gpuMesh{seq: gm.seq}
}
