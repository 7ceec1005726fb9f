// annotations.go defines the @oxy: annotations understood by the program pre-processor.
// Annotations are single-line WGSL comments. They inject engine-owned struct sources and
// select code blocks by shader keyword, so one program source yields one variant per keyword set.
//
//	//@oxy:include draw
//	//@oxy:if DIRECTIONAL
//	let l = -draw.light_dir.xyz;
//	//@oxy:else
//	let l = normalize(draw.light_pos.xyz - world);
//	//@oxy:endif
package shader

import (
	"fmt"
	"slices"
	"strings"
)

const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects a registered struct source. Syntax: //@oxy:include <struct>
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeIf opens a block kept only when the keyword is enabled. A leading '!'
	// negates it. Syntax: //@oxy:if [!]<KEYWORD>
	AnnotationTypeIf AnnotationType = "if"

	// AnnotationTypeElse flips the innermost open block.
	AnnotationTypeElse AnnotationType = "else"

	// AnnotationTypeEndIf closes the innermost open block.
	AnnotationTypeEndIf AnnotationType = "endif"
)

// AnnotationArg is an annotation argument.
type AnnotationArg string

const (
	// AnnotationArgDraw is the per-draw uniform block, see DrawUniformsSource.
	AnnotationArgDraw AnnotationArg = "draw"

	// AnnotationArgCamera is the camera uniform block.
	AnnotationArgCamera AnnotationArg = "camera"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgDraw,
	AnnotationArgCamera,
}

// Annotation is one parsed @oxy: annotation.
type Annotation struct {
	Type AnnotationType

	// Args holds the struct key for include and the keyword for if.
	Args []AnnotationArg

	// Negated is set for //@oxy:if !KEYWORD.
	Negated bool

	Line int
}

// parseAnnotation parses line as an annotation. It returns nil for lines that carry none.
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{Type: AnnotationTypeInclude, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil
	case AnnotationTypeIf:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy if annotation requires exactly one keyword", lineNum)
		}
		kw, negated := strings.CutPrefix(args[1], "!")
		if kw == "" {
			return nil, fmt.Errorf("line %d: @oxy if annotation has an empty keyword", lineNum)
		}
		return &Annotation{Type: AnnotationTypeIf, Args: []AnnotationArg{AnnotationArg(kw)}, Negated: negated, Line: lineNum}, nil
	case AnnotationTypeElse, AnnotationTypeEndIf:
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: @oxy %s annotation takes no arguments", lineNum, args[0])
		}
		return &Annotation{Type: AnnotationType(args[0]), Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown annotation type %q", lineNum, args[0])
	}
}
