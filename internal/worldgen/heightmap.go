package worldgen

import (
	"github.com/go-gl/mathgl/mgl32"
	opensimplex "github.com/ojrac/opensimplex-go"

	"voxel-terrain/internal/voxel"
)

// Surface ids by height band, lowest first.
const (
	idSand  = 1
	idGrass = 2
	idRock  = 3
	idSnow  = 4
)

// Options shape the demo terrain.
type Options struct {
	Seed      int64
	SizeX     int
	SizeZ     int
	BaseY     int     // height the noise oscillates around
	Amplitude float64 // peak-to-valley half range in voxels
	Scale     float64 // noise feature size in columns
}

// DefaultOptions returns a gently hilly 1024x1024 world.
func DefaultOptions() Options {
	return Options{
		Seed:      1337,
		SizeX:     1024,
		SizeZ:     1024,
		BaseY:     64,
		Amplitude: 48,
		Scale:     192,
	}
}

// Generate builds a trimmed column store from fractal opensimplex noise,
// plus the world bounds handed to scene management at publish.
func Generate(opts Options) (*voxel.ColumnStore, voxel.Bounds) {
	noise := opensimplex.New(opts.Seed)

	height := make([]int, opts.SizeX*opts.SizeZ)
	ids := make([]uint8, opts.SizeX*opts.SizeZ)
	minH, maxH := voxel.MaxCoordY, 1
	for x := 0; x < opts.SizeX; x++ {
		for z := 0; z < opts.SizeZ; z++ {
			fx, fz := float64(x)/opts.Scale, float64(z)/opts.Scale

			// Three octaves, halving amplitude each step.
			v := noise.Eval2(fx, fz)
			v += 0.5 * noise.Eval2(fx*2, fz*2)
			v += 0.25 * noise.Eval2(fx*4, fz*4)
			v /= 1.75

			h := opts.BaseY + int(v*opts.Amplitude)
			if h < 1 {
				h = 1
			}
			if h > voxel.MaxCoordY {
				h = voxel.MaxCoordY
			}
			k := x*opts.SizeZ + z
			height[k] = h
			ids[k] = surfaceID(h, opts)
			minH = min(minH, h)
			maxH = max(maxH, h)
		}
	}

	store := voxel.NewColumnStoreFromHeightmap(opts.SizeX, opts.SizeZ, height, ids)

	extent := mgl32.Vec3{float32(opts.SizeX), float32(maxH - minH + 1), float32(opts.SizeZ)}
	center := mgl32.Vec3{extent[0] / 2, float32(minH) + extent[1]/2, extent[2] / 2}
	return store, voxel.Bounds{Center: center, Size: extent.Mul(0.5)}
}

func surfaceID(h int, opts Options) uint8 {
	switch {
	case h < opts.BaseY-int(opts.Amplitude/3):
		return idSand
	case h < opts.BaseY+int(opts.Amplitude/3):
		return idGrass
	case h < opts.BaseY+int(2*opts.Amplitude/3):
		return idRock
	default:
		return idSnow
	}
}
