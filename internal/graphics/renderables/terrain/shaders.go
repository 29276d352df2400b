package terrain

// Shader storage bindings shared by the cull and draw stages.
const (
	bindingMeshes   = 0
	bindingCommands = 1
	bindingFaces    = 2
)

// CullingGroupSize is the compute workgroup width; the mesh table is padded
// to a multiple of it so every dispatch is full.
const CullingGroupSize = 64

// cullShaderSrc is the per-mesh culling kernel: orientation test for
// directional meshes, five-plane frustum test, then an atomic slot
// reservation in the indirect command list.
const cullShaderSrc = `#version 430

layout(local_size_x = 64) in;

struct MeshData {
	vec3 center;
	uint data1;
	vec3 size;
	uint data2;
};

struct DrawCommand {
	uint indexCount;
	uint instanceCount;
	uint firstIndex;
	uint baseVertex;
	uint baseInstance;
};

layout(std430, binding = 0) readonly buffer meshes { MeshData mesh[]; };
layout(std430, binding = 1) writeonly buffer commands { DrawCommand command[]; };
layout(binding = 0) uniform atomic_uint visibleCount;

uniform vec3 cameraPosition;
uniform vec4 cameraFarPlane;
uniform vec4 cameraLeftPlane;
uniform vec4 cameraRightPlane;
uniform vec4 cameraDownPlane;
uniform vec4 cameraUpPlane;
uniform int meshCount;

vec3 normalVector(uint normal) {
	uint axis = normal % 3u;
	float s = normal < 3u ? 1.0 : -1.0;
	if (axis == 0u) return vec3(s, 0.0, 0.0);
	if (axis == 1u) return vec3(0.0, 0.0, s);
	return vec3(0.0, s, 0.0);
}

void main() {
	uint i = gl_GlobalInvocationID.x;
	if (i >= uint(meshCount)) {
		return;
	}
	MeshData m = mesh[i];
	uint normal = m.data1 & 7u;
	uint faceCount = m.data1 >> 3u;
	if (normal == 7u || faceCount == 0u) {
		return;
	}

	if (normal < 6u) {
		vec3 n = normalVector(normal);
		vec3 nearSide = m.center - n * m.size;
		if (dot(nearSide - cameraPosition, n) > 0.0) {
			return;
		}
	}

	vec4 planes[5] = vec4[5](cameraFarPlane, cameraLeftPlane, cameraRightPlane, cameraDownPlane, cameraUpPlane);
	for (int p = 0; p < 5; ++p) {
		vec3 closest = m.center + m.size * sign(planes[p].xyz);
		if (dot(planes[p].xyz, closest) + planes[p].w < 0.0) {
			return;
		}
	}

	uint slot = atomicCounterIncrement(visibleCount);
	command[slot] = DrawCommand(6u * faceCount, 1u, 0u, 4u * m.data2, 0u);
}
`

// terrainVertShaderSrc expands packed faces into quad corners. gl_VertexID
// carries baseVertex = 4*startFace, so face index and corner fall out of a
// shift and a mask. Quads inflate with camera distance to hide the 1-pixel
// seams between abutting rectangles.
const terrainVertShaderSrc = `#version 430

struct FaceData {
	uint lo;
	uint hi;
};

layout(std430, binding = 2) readonly buffer faces { FaceData face[]; };

uniform mat4 proj;
uniform mat4 view;
uniform vec3 cameraPosition;
uniform float seed;
uniform float quadsInterleaving;

out vec3 vColor;

const float brightness[6] = float[6](0.75, 0.82, 1.0, 0.68, 0.58, 0.4);

vec3 idColor(uint id) {
	float h = fract(float(id) * 0.6180339887 + seed);
	vec3 c = clamp(abs(fract(h + vec3(0.0, 0.333, 0.667)) * 6.0 - 3.0) - 1.0, 0.0, 1.0);
	return mix(vec3(0.35), c, 0.6);
}

void main() {
	uint vid = uint(gl_VertexID);
	FaceData f = face[vid >> 2u];
	uint corner = vid & 3u;

	float x = float(f.lo & 0x1FFFu);
	float z = float((f.lo >> 13u) & 0x1FFFu);
	float y = float(f.hi & 0x1FFu);
	float w = float(((f.hi >> 9u) & 0x3Fu) + 1u);
	float h = float(((f.hi >> 15u) & 0x3Fu) + 1u);
	uint normal = (f.hi >> 21u) & 7u;
	uint id = f.hi >> 24u;

	uint axis = normal % 3u;
	vec3 du, dv;
	if (axis == 0u) { du = vec3(0.0, 0.0, 1.0); dv = vec3(0.0, 1.0, 0.0); }
	else if (axis == 1u) { du = vec3(1.0, 0.0, 0.0); dv = vec3(0.0, 1.0, 0.0); }
	else { du = vec3(1.0, 0.0, 0.0); dv = vec3(0.0, 0.0, 1.0); }

	vec2 uv = vec2(float(corner & 1u), float(corner >> 1u));
	if ((normal & 1u) == 0u) {
		uv.x = 1.0 - uv.x;
	}

	vec3 base = vec3(x, y, z);
	vec3 cubePos = base + (du * w + dv * h) * 0.5;
	float interleaving = length(cameraPosition - cubePos) * quadsInterleaving * 0.001;

	vec3 pos = base
		+ du * (uv.x * w + (uv.x * 2.0 - 1.0) * interleaving)
		+ dv * (uv.y * h + (uv.y * 2.0 - 1.0) * interleaving);

	gl_Position = proj * view * vec4(pos, 1.0);
	vColor = idColor(id) * brightness[min(normal, 5u)];
}
`

const terrainFragShaderSrc = `#version 430

in vec3 vColor;
out vec4 fragColor;

void main() {
	fragColor = vec4(vColor, 1.0);
}
`
