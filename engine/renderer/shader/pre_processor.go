package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
)

// registryEntry pairs a WGSL struct source with its type name.
type registryEntry struct {
	Source string
	Type   string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry map[AnnotationArg]registryEntry
}

// PreProcessor expands @oxy: annotations in program sources.
type PreProcessor interface {
	// Process expands includes and keeps the keyword blocks selected by keywords.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//   - keywords: the enabled shader keywords
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed or the blocks are unbalanced
	Process(source string, keywords map[string]bool) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's struct sources registered.
//
// Returns:
//   - PreProcessor: the pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgDraw:   {Source: DrawUniformsSource, Type: "DrawUniforms"},
			AnnotationArgCamera: {Source: camera.GPUCameraUniformSource, Type: "CameraUniform"},
		},
	}
}

// block is one open //@oxy:if.
type block struct {
	line     int
	active   bool // whether the current branch is emitted
	parent   bool // whether the enclosing block is emitted
	seenElse bool
}

func (p *preProcessor) Process(source string, keywords map[string]bool) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var stack []block
	emitting := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			if emitting() {
				out = append(out, line)
			}
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			if !emitting() {
				continue
			}
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, a.Args[0])
			}
			out = append(out, entry.Source)
		case AnnotationTypeIf:
			on := keywords[string(a.Args[0])] != a.Negated
			parent := emitting()
			stack = append(stack, block{line: i + 1, active: parent && on, parent: parent})
		case AnnotationTypeElse:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: @oxy:else without @oxy:if", i+1)
			}
			top := &stack[len(stack)-1]
			if top.seenElse {
				return "", fmt.Errorf("line %d: second @oxy:else for @oxy:if on line %d", i+1, top.line)
			}
			top.seenElse = true
			top.active = top.parent && !top.active
		case AnnotationTypeEndIf:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: @oxy:endif without @oxy:if", i+1)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return "", fmt.Errorf("line %d: unterminated @oxy:if", stack[len(stack)-1].line)
	}
	return strings.Join(out, "\n"), nil
}
