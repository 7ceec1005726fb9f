package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslPrimitiveLayoutMap holds the byte size and alignment of the host-shareable WGSL types a
// uniform block may contain.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":         {4, 4},
	"i32":         {4, 4},
	"u32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec2f":       {8, 8},
	"vec3<f32>":   {12, 16},
	"vec3f":       {12, 16},
	"vec4<f32>":   {16, 16},
	"vec4f":       {16, 16},
	"vec4<u32>":   {16, 16},
	"vec4u":       {16, 16},
	"vec4<i32>":   {16, 16},
	"vec4i":       {16, 16},
	"mat3x3<f32>": {48, 16},
	"mat3x3f":     {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

// roundUpAlign rounds value up to the next multiple of a power-of-two alignment.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout returns the size and alignment of a WGSL type. It knows the primitive
// table, the structs resolved so far and fixed-size arrays of either. Runtime-sized arrays
// cannot appear in a uniform block and do not resolve.
//
// Parameters:
//   - typeName: the WGSL type string
//   - structs: layouts of the structs resolved so far
//
// Returns:
//   - wgslTypeLayout: the type's layout
//   - bool: false when the type is unknown
func resolveTypeLayout(typeName string, structs map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := structs[typeName]; ok {
		return layout, true
	}

	base, params := splitTypeParams(typeName)
	if base != "array" {
		return wgslTypeLayout{}, false
	}
	elem, count, ok := strings.Cut(params, ",")
	if !ok {
		return wgslTypeLayout{}, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(count), 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	el, ok := resolveTypeLayout(strings.TrimSpace(elem), structs)
	if !ok {
		return wgslTypeLayout{}, false
	}
	// uniform arrays use a 16-byte element stride
	stride := roundUpAlign(16, roundUpAlign(el.align, el.size))
	return wgslTypeLayout{size: n * stride, align: max(el.align, 16)}, true
}

// computeStructSizes lays out every parsed struct with the WGSL rules: fields at their aligned
// offset, total size rounded to the largest field alignment. Structs that nest other structs
// are retried until no more resolve; @builtin fields are not part of the layout.
//
// Parameters:
//   - parsed: all struct blocks from the source
//
// Returns:
//   - map[string]wgslTypeLayout: layouts keyed by struct name
func computeStructSizes(parsed []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(parsed))
	pending := append([]parsedStruct(nil), parsed...)

	for len(pending) > 0 {
		var next []parsedStruct
		for _, ps := range pending {
			if layout, ok := structLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return resolved
}

func structLayout(ps parsedStruct, resolved map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		fl, ok := resolveTypeLayout(f.typeName, resolved)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset) + fl.size
		align = max(align, fl.align)
	}
	return wgslTypeLayout{size: roundUpAlign(align, offset), align: align}, true
}

// classifyResource builds the layout entry for one @group/@binding declaration. Programs only
// read their resources: storage buffers are read-only, samplers are non-filtering and depth
// textures bind with the depth sample type.
//
// Parameters:
//   - binding: the binding index from @binding(N)
//   - visibility: the shader stage visibility flag
//   - addressSpace: the address space qualifier ("uniform", "storage, read"), empty for handle types
//   - typeName: the WGSL type string (e.g. "DrawUniforms", "texture_2d<f32>", "sampler")
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the layout entry for the resource
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch {
	case addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case addressSpace != "":
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeNonFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_"):
		base, param := splitTypeParams(typeName)
		entry.Texture.ViewDimension = wgslTextureDimMap[base]
		if strings.HasPrefix(base, "texture_depth_") {
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		} else if st, ok := wgslSampleTypeMap[param]; ok {
			entry.Texture.SampleType = st
		}
	}
	return entry
}

// splitTypeParams splits a WGSL parameterized type into its base name and parameter string.
// For "texture_2d<f32>" returns ("texture_2d", "f32").
// For "texture_depth_2d" (no params) returns ("texture_depth_2d", "").
//
// Parameters:
//   - typeName: the WGSL type string to split
//
// Returns:
//   - base: the type name before the first angle bracket
//   - params: the content between angle brackets, or empty if none
func splitTypeParams(typeName string) (base string, params string) {
	before, after, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	base = before
	params = strings.TrimSuffix(after, ">")
	params = strings.TrimSpace(params)
	return base, params
}

// stripComments removes line comments and nested block comments from WGSL source. Newlines are
// kept so line structure survives.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		two := ""
		if i+1 < len(source) {
			two = source[i : i+2]
		}
		switch {
		case two == "/*":
			depth++
			i++
		case two == "*/" && depth > 0:
			depth--
			i++
		case depth > 0:
			if source[i] == '\n' {
				sb.WriteByte('\n')
			}
		case two == "//":
			end := strings.IndexByte(source[i:], '\n')
			if end < 0 {
				return sb.String()
			}
			i += end - 1
		default:
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// isVertexInputStruct returns true if the struct is a pure vertex input, meaning
// it has at least one @location field and zero @builtin fields. This distinguishes
// vertex input structs from vertex output structs which mix @location with @builtin(position).
//
// Parameters:
//   - ps: the parsed struct to check
//
// Returns:
//   - bool: true if this is a vertex input struct
func isVertexInputStruct(ps parsedStruct) bool {
	hasLocation := false
	for _, f := range ps.fields {
		if f.isBuiltin {
			return false
		}
		if f.location >= 0 {
			hasLocation = true
		}
	}
	return hasLocation
}

// buildVertexBufferLayout converts a parsed vertex input struct into a wgpu.VertexBufferLayout.
// It maps each field's WGSL type to a wgpu.VertexFormat using wgslVertexFormatMap, calculates
// sequential byte offsets, and sets the total array stride. Returns false if any field has
// an unrecognized type.
//
// Parameters:
//   - ps: the parsed struct containing vertex input fields
//
// Returns:
//   - wgpu.VertexBufferLayout: the constructed vertex buffer layout
//   - bool: false if a field type could not be mapped to a vertex format
func buildVertexBufferLayout(ps parsedStruct) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(ps.fields))
	var offset uint64

	for _, f := range ps.fields {
		info, ok := wgslVertexFormatMap[f.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}

		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += info.size
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets.
// This correctly handles WGSL types like array<FrustumPlane, 6> where the comma is part of
// the type syntax rather than a field separator.
//
// Parameters:
//   - s: the string to split (typically the body of a WGSL struct)
//
// Returns:
//   - []string: substrings between top-level commas
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
