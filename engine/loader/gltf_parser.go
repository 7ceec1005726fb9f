package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidModel reports a glTF or GLB file the loader cannot read.
	ErrInvalidModel = errors.New("invalid model")

	errInvalidGLTFVersion = fmt.Errorf("%w: glTF version must be 2.x", ErrInvalidModel)
	errInvalidGLBMagic    = fmt.Errorf("%w: bad GLB magic", ErrInvalidModel)
	errInvalidGLBVersion  = fmt.Errorf("%w: GLB version must be 2", ErrInvalidModel)
	errMissingJSONChunk   = fmt.Errorf("%w: GLB has no JSON chunk", ErrInvalidModel)
	errBufferSizeMismatch = fmt.Errorf("%w: buffer shorter than its byteLength", ErrInvalidModel)
)

// gltfParser decodes a glTF or GLB document and reads typed accessor data from its buffers.
type gltfParser struct {
	baseDir  string
	document *gltfDocument
	binChunk []byte
}

// parseFile reads path, choosing GLB by extension or magic number.
func (p *gltfParser) parseFile(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	isGLB := strings.EqualFold(filepath.Ext(path), ".glb") ||
		(len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic)
	return p.parse(data, isGLB)
}

// parseReader reads a document from r. External buffer URIs resolve against baseDir, which is
// empty (the working directory) unless set beforehand.
func (p *gltfParser) parseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	return p.parse(data, isGLB)
}

func (p *gltfParser) parse(data []byte, isGLB bool) error {
	jsonData := data
	if isGLB {
		var err error
		if jsonData, p.binChunk, err = splitGLB(data); err != nil {
			return err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := p.loadBuffers(&doc); err != nil {
		return err
	}
	p.document = &doc
	return nil
}

// splitGLB returns the JSON and BIN chunks of a GLB container.
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("%w: GLB header: %v", ErrInvalidModel, err)
	}
	if header.Magic != gltfGLBMagic {
		return nil, nil, errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return nil, nil, errInvalidGLBVersion
	}

	for {
		var ch gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &ch); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("%w: GLB chunk header: %v", ErrInvalidModel, err)
		}
		if int64(ch.ChunkLength) > int64(r.Len()) {
			return nil, nil, fmt.Errorf("%w: GLB chunk overruns file", ErrInvalidModel)
		}
		chunk := make([]byte, ch.ChunkLength)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, nil, fmt.Errorf("%w: GLB chunk: %v", ErrInvalidModel, err)
		}
		switch ch.ChunkType {
		case gltfGLBChunkJSON:
			jsonChunk = chunk
		case gltfGLBChunkBIN:
			binChunk = chunk
		}
	}
	if jsonChunk == nil {
		return nil, nil, errMissingJSONChunk
	}
	return jsonChunk, binChunk, nil
}

func (p *gltfParser) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]
		switch {
		case buf.URI == "" && i == 0 && p.binChunk != nil:
			buf.Data = p.binChunk
		case buf.URI == "":
			return fmt.Errorf("%w: buffer %d has no data", ErrInvalidModel, i)
		case strings.HasPrefix(buf.URI, "data:"):
			data, err := decodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		default:
			data, err := os.ReadFile(filepath.Join(p.baseDir, buf.URI))
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}
		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: only base64 data URIs are supported", ErrInvalidModel)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return data, nil
}

// accessorBytes returns the tightly packed elements of an accessor, honoring byteStride.
func (p *gltfParser) accessorBytes(index, componentSize, components int) (*gltfAccessor, []byte, error) {
	doc := p.document
	if index < 0 || index >= len(doc.Accessors) {
		return nil, nil, fmt.Errorf("%w: accessor %d out of range", ErrInvalidModel, index)
	}
	acc := &doc.Accessors[index]
	if acc.Sparse != nil {
		return nil, nil, fmt.Errorf("%w: accessor %d is sparse", ErrInvalidModel, index)
	}
	if acc.BufferView == nil || *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, nil, fmt.Errorf("%w: accessor %d has no buffer view", ErrInvalidModel, index)
	}
	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, nil, fmt.Errorf("%w: buffer view %d has no buffer", ErrInvalidModel, *acc.BufferView)
	}
	buf := doc.Buffers[bv.Buffer].Data

	elem := componentSize * components
	stride := elem
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}
	start := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 && start+(acc.Count-1)*stride+elem > len(buf) {
		return nil, nil, fmt.Errorf("%w: accessor %d overruns its buffer", ErrInvalidModel, index)
	}

	out := make([]byte, acc.Count*elem)
	for i := range acc.Count {
		src := start + i*stride
		copy(out[i*elem:(i+1)*elem], buf[src:src+elem])
	}
	return acc, out, nil
}

// readVec3 reads a VEC3 FLOAT accessor such as POSITION.
func (p *gltfParser) readVec3(index int) ([][3]float32, error) {
	acc, data, err := p.accessorBytes(index, 4, 3)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeVec3 || acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("%w: accessor %d is %s/%d, want VEC3 FLOAT", ErrInvalidModel, index, acc.Type, acc.ComponentType)
	}
	out := make([][3]float32, acc.Count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

// readIndices reads a SCALAR index accessor of any unsigned component width.
func (p *gltfParser) readIndices(index int) ([]uint32, error) {
	if index < 0 || index >= len(p.document.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrInvalidModel, index)
	}
	acc := &p.document.Accessors[index]
	if acc.Type != gltfAccessorTypeScalar {
		return nil, fmt.Errorf("%w: index accessor %d is %s", ErrInvalidModel, index, acc.Type)
	}

	var size int
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		size = 1
	case gltfComponentTypeUnsignedShort:
		size = 2
	case gltfComponentTypeUnsignedInt:
		size = 4
	default:
		return nil, fmt.Errorf("%w: index component type %d", ErrInvalidModel, acc.ComponentType)
	}
	_, data, err := p.accessorBytes(index, size, 1)
	if err != nil {
		return nil, err
	}

	out := make([]uint32, acc.Count)
	for i := range out {
		switch size {
		case 1:
			out[i] = uint32(data[i])
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		case 4:
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return out, nil
}
