package terrain

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"

	"voxel-terrain/internal/graphics"
	"voxel-terrain/internal/voxel"
)

// ErrState marks misuse of the renderer lifecycle: re-initialising the
// shared context or publishing twice on the same renderer.
var ErrState = errors.New("invalid renderer state")

// ErrResource marks a GPU buffer allocation failure. The renderer stays
// idle; the caller may retry.
var ErrResource = errors.New("gpu resource allocation failed")

// contextLive guards against a second live Context; the shared index and
// counter buffers exist once per process.
var (
	contextMu   sync.Mutex
	contextLive bool
)

// Context owns the GPU objects shared by every published terrain: the
// pre-baked quad index buffer, the visible-mesh counter and the two shader
// programs. Initialise once at startup, dispose at shutdown.
type Context struct {
	indexBuffer   uint32
	counterBuffer uint32
	cullShader    *graphics.Shader
	drawShader    *graphics.Shader
}

// NewContext creates the shared GPU state. A second live context is a
// programming error and is rejected.
func NewContext() (*Context, error) {
	contextMu.Lock()
	defer contextMu.Unlock()
	if contextLive {
		return nil, fmt.Errorf("%w: terrain context already initialised", ErrState)
	}

	c := &Context{}
	var err error
	if c.cullShader, err = graphics.NewComputeShader(cullShaderSrc); err != nil {
		return nil, err
	}
	if c.drawShader, err = graphics.NewShader(terrainVertShaderSrc, terrainFragShaderSrc); err != nil {
		c.cullShader.Delete()
		return nil, err
	}

	// Monotone quad index pattern (0,1,2, 2,1,3, 4,5,6, ...), shared by
	// every mesh via per-command baseVertex.
	indices := make([]uint16, 6*voxel.MaxFacesPerMesh)
	for q := 0; q < voxel.MaxFacesPerMesh; q++ {
		base := uint16(4 * q)
		copy(indices[6*q:], []uint16{base, base + 1, base + 2, base + 2, base + 1, base + 3})
	}
	gl.GenBuffers(1, &c.indexBuffer)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, c.indexBuffer)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*2, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &c.counterBuffer)
	gl.BindBuffer(gl.ATOMIC_COUNTER_BUFFER, c.counterBuffer)
	gl.BufferData(gl.ATOMIC_COUNTER_BUFFER, 4, nil, gl.DYNAMIC_READ)

	if glErr := gl.GetError(); glErr == gl.OUT_OF_MEMORY {
		c.Dispose()
		return nil, fmt.Errorf("%w: shared buffers", ErrResource)
	}

	contextLive = true
	return c, nil
}

// ResetCounter zeroes the visible-mesh counter before a cull dispatch.
func (c *Context) ResetCounter() {
	var zero uint32
	gl.BindBuffer(gl.ATOMIC_COUNTER_BUFFER, c.counterBuffer)
	gl.BufferSubData(gl.ATOMIC_COUNTER_BUFFER, 0, 4, unsafe.Pointer(&zero))
}

// ReadCounter blocks on the counter readback and returns the visible mesh
// count of the last dispatch.
func (c *Context) ReadCounter() uint32 {
	var count uint32
	gl.BindBuffer(gl.ATOMIC_COUNTER_BUFFER, c.counterBuffer)
	gl.GetBufferSubData(gl.ATOMIC_COUNTER_BUFFER, 0, 4, unsafe.Pointer(&count))
	return count
}

// Dispose releases the shared GPU state. Idempotent; must not run while a
// frame is in flight.
func (c *Context) Dispose() {
	contextMu.Lock()
	defer contextMu.Unlock()
	if c.indexBuffer != 0 {
		gl.DeleteBuffers(1, &c.indexBuffer)
		c.indexBuffer = 0
	}
	if c.counterBuffer != 0 {
		gl.DeleteBuffers(1, &c.counterBuffer)
		c.counterBuffer = 0
	}
	if c.cullShader != nil {
		c.cullShader.Delete()
		c.cullShader = nil
	}
	if c.drawShader != nil {
		c.drawShader.Delete()
		c.drawShader = nil
	}
	contextLive = false
}
