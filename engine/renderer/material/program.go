package material

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// BlendMode selects how a program's output combines with the bound color targets.
type BlendMode int

const (
	BlendOpaque BlendMode = iota
	// BlendAlpha is source-over blending, used by transparent objects.
	BlendAlpha
	// BlendAdditive accumulates, used by light volumes.
	BlendAdditive
)

// Program is a compiled shader program handle as returned by the program lookup collaborator.
// Source is optional WGSL that GPU backends compile on first use.
type Program struct {
	Name   string
	Source string

	// Textures lists the global texture names the program samples, in binding order.
	Textures []string

	Blend        BlendMode
	NoDepthWrite bool
	NoDepthTest  bool
}

// Library is the shader program lookup collaborator. Find returns nil for unknown names;
// callers treat a nil program as a no-op draw, never as a failure.
type Library interface {
	// Find looks up a program by name.
	//
	// Parameters:
	//   - name: the program name
	//
	// Returns:
	//   - *Program: the program, or nil if no program is registered under name
	Find(name string) *Program
}

// FindFirst returns the first program found among names, trying them in order. Program names
// differ between hosts, so callers pass the preferred name followed by its fallbacks.
//
// Parameters:
//   - lib: the library to search
//   - names: candidate names in priority order
//
// Returns:
//   - *Program: the first match, or nil if none of the names resolve
func FindFirst(lib Library, names ...string) *Program {
	if lib == nil {
		return nil
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if p := lib.Find(name); p != nil {
			return p
		}
	}
	common.Logger().Warn("shader program not found", "candidates", names)
	return nil
}

// programLibrary is an in-memory Library.
type programLibrary struct {
	mu       *sync.RWMutex
	programs map[string]*Program
}

var _ Library = &programLibrary{}

// ProgramLibrary is a Library whose programs are registered at runtime.
type ProgramLibrary interface {
	Library

	// Register adds or replaces a program under its Name.
	//
	// Parameters:
	//   - p: the program to register; nil is ignored
	Register(p *Program)

	// Names returns the registered program names.
	//
	// Returns:
	//   - []string: registered names in no particular order
	Names() []string
}

// NewProgramLibrary creates a library pre-populated with programs.
//
// Parameters:
//   - programs: programs to register
//
// Returns:
//   - ProgramLibrary: the new library
func NewProgramLibrary(programs ...*Program) ProgramLibrary {
	l := &programLibrary{
		mu:       &sync.RWMutex{},
		programs: make(map[string]*Program, len(programs)),
	}
	for _, p := range programs {
		l.Register(p)
	}
	return l
}

func (l *programLibrary) Find(name string) *Program {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.programs[name]
}

func (l *programLibrary) Register(p *Program) {
	if p == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.programs[p.Name] = p
}

func (l *programLibrary) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.programs))
	for n := range l.programs {
		names = append(names, n)
	}
	return names
}
