package terrain

import (
	"context"
	"fmt"
	"log"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"voxel-terrain/internal/config"
	"voxel-terrain/internal/cull"
	"voxel-terrain/internal/graphics"
	"voxel-terrain/internal/graphics/renderer"
	"voxel-terrain/internal/meshing"
	"voxel-terrain/internal/profiling"
	"voxel-terrain/internal/voxel"
)

// drawCommandSize is the byte stride of one indirect draw command
// (five uint32 fields).
const drawCommandSize = 20

// Terrain renders a published voxel world: meshing output lives in three
// immutable GPU buffers, and each frame a compute dispatch culls the mesh
// table into an indirect command list drawn with a single multi-draw.
type Terrain struct {
	ctx *Context
	cfg config.Settings

	vao            uint32
	facesBuffer    uint32
	meshesBuffer   uint32
	commandsBuffer uint32

	meshCount int // padded to a multiple of CullingGroupSize
	bounds    voxel.Bounds
	published bool
	seed      float32
}

// NewTerrain creates the renderable. The shared context must outlive it.
func NewTerrain(ctx *Context, cfg config.Settings) *Terrain {
	return &Terrain{ctx: ctx, cfg: cfg, seed: 0.137}
}

// Init sets up the vertex array; the terrain is attributeless, the VAO only
// carries the shared element buffer binding.
func (t *Terrain) Init() error {
	gl.GenVertexArrays(1, &t.vao)
	gl.BindVertexArray(t.vao)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, t.ctx.indexBuffer)
	gl.BindVertexArray(0)
	return nil
}

// Publish meshes the column store and uploads the face, mesh and command
// buffers. The tables are immutable afterwards; publishing twice on the
// same renderer is rejected.
func (t *Terrain) Publish(bounds voxel.Bounds, store *voxel.ColumnStore) error {
	if t.published {
		return fmt.Errorf("%w: terrain already published", ErrState)
	}

	result, err := meshing.BuildMeshes(context.Background(), store, t.cfg, meshing.IdentityMerger{})
	if err != nil {
		return err
	}
	return t.publishResult(bounds, result)
}

// publishResult uploads a finished meshing result. Split out so tools can
// publish pre-meshed assets.
func (t *Terrain) publishResult(bounds voxel.Bounds, result *meshing.Result) error {
	defer profiling.Track("terrain.publish")()

	meshes := result.Meshes
	for len(meshes)%CullingGroupSize != 0 {
		meshes = append(meshes, voxel.PaddingMesh())
	}
	if len(meshes) == 0 {
		t.bounds = bounds
		t.published = true
		return nil
	}

	gl.GenBuffers(1, &t.facesBuffer)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, t.facesBuffer)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(result.Faces)*8, gl.Ptr(result.Faces), gl.STATIC_DRAW)

	gl.GenBuffers(1, &t.meshesBuffer)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, t.meshesBuffer)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(meshes)*32, gl.Ptr(meshes), gl.STATIC_DRAW)

	gl.GenBuffers(1, &t.commandsBuffer)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, t.commandsBuffer)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(meshes)*drawCommandSize, nil, gl.DYNAMIC_COPY)

	if glErr := gl.GetError(); glErr == gl.OUT_OF_MEMORY {
		t.releaseBuffers()
		return fmt.Errorf("%w: terrain tables (%d faces, %d meshes)", ErrResource, len(result.Faces), len(meshes))
	}

	t.meshCount = len(meshes)
	t.bounds = bounds
	t.published = true
	log.Printf("terrain: published %d faces in %d meshes (%d padded)",
		len(result.Faces), len(result.Meshes), len(meshes))
	return nil
}

// Render culls and draws the published mesh set. Per-frame errors never
// propagate: either the current set draws or nothing does.
func (t *Terrain) Render(ctx renderer.RenderContext) {
	if !t.published || t.meshCount == 0 {
		return
	}
	defer profiling.Track("terrain.Render")()

	clip := ctx.Proj.Mul4(ctx.View)
	planes := cull.ExtractCameraPlanes(clip)
	camera := ctx.Camera.Position

	// Cull dispatch: reset counter, one thread per mesh in groups of 64.
	t.ctx.ResetCounter()
	t.ctx.cullShader.Use()
	setPlaneUniforms(t.ctx.cullShader, camera, planes)
	t.ctx.cullShader.SetInt("meshCount", int32(t.meshCount))

	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindingMeshes, t.meshesBuffer)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindingCommands, t.commandsBuffer)
	gl.BindBufferBase(gl.ATOMIC_COUNTER_BUFFER, 0, t.ctx.counterBuffer)
	gl.DispatchCompute(uint32(t.meshCount/CullingGroupSize), 1, 1)
	gl.MemoryBarrier(gl.ATOMIC_COUNTER_BARRIER_BIT | gl.SHADER_STORAGE_BARRIER_BIT | gl.COMMAND_BARRIER_BIT)

	visible := t.ctx.ReadCounter()
	if visible == 0 {
		return
	}

	// One indirect multi-draw over the compacted command list.
	t.ctx.drawShader.Use()
	t.ctx.drawShader.SetMatrix4("proj", &ctx.Proj[0])
	t.ctx.drawShader.SetMatrix4("view", &ctx.View[0])
	t.ctx.drawShader.SetVector3("cameraPosition", camera.X(), camera.Y(), camera.Z())
	t.ctx.drawShader.SetFloat("seed", t.seed)
	t.ctx.drawShader.SetFloat("quadsInterleaving", t.cfg.QuadsInterleaving)

	gl.BindVertexArray(t.vao)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindingFaces, t.facesBuffer)
	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, t.commandsBuffer)
	gl.MultiDrawElementsIndirect(gl.TRIANGLES, gl.UNSIGNED_SHORT, nil, int32(visible), drawCommandSize)
	gl.BindVertexArray(0)

	if glErr := gl.GetError(); glErr != gl.NO_ERROR {
		log.Printf("terrain: frame error 0x%x (continuing)", glErr)
	}
}

// SetViewport is part of the Renderable interface; terrain has no
// viewport-dependent state.
func (t *Terrain) SetViewport(width, height int) {}

// Dispose releases the published buffers. Idempotent.
func (t *Terrain) Dispose() {
	t.releaseBuffers()
	if t.vao != 0 {
		gl.DeleteVertexArrays(1, &t.vao)
		t.vao = 0
	}
	t.published = false
}

// Bounds returns the world box supplied at publish.
func (t *Terrain) Bounds() voxel.Bounds { return t.bounds }

func (t *Terrain) releaseBuffers() {
	for _, buf := range []*uint32{&t.facesBuffer, &t.meshesBuffer, &t.commandsBuffer} {
		if *buf != 0 {
			gl.DeleteBuffers(1, buf)
			*buf = 0
		}
	}
	t.meshCount = 0
}

func setPlaneUniforms(sh *graphics.Shader, camera mgl32.Vec3, planes cull.CameraPlanes) {
	sh.SetVector3("cameraPosition", camera.X(), camera.Y(), camera.Z())
	names := [5]string{"cameraFarPlane", "cameraLeftPlane", "cameraRightPlane", "cameraDownPlane", "cameraUpPlane"}
	for i, name := range names {
		p := planes[i]
		sh.SetVector4(name, p.Normal.X(), p.Normal.Y(), p.Normal.Z(), p.D)
	}
}
