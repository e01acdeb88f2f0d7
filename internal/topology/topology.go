package topology

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/portsched/internal/graph"
)

// Topology is a compiled pipeline description.
type Topology struct {
	Name  string
	Graph *graph.Graph
}

// Compile builds a Topology from a CUE value holding a top-level
// `pipeline` field.
func Compile(v cue.Value) (*Topology, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := v.LookupPath(cue.ParsePath("pipeline"))
	if !p.Exists() {
		return nil, &CompileError{
			Field:   "pipeline",
			Message: "pipeline is required",
			Pos:     v.Pos(),
		}
	}

	top := &Topology{Graph: graph.New()}

	nameVal := p.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		top.Name = norm.NFC.String(name)
	}

	if err := compileNodes(p, top.Graph); err != nil {
		return nil, err
	}
	if err := compileEdges(p, top.Graph); err != nil {
		return nil, err
	}

	return top, nil
}

func compileNodes(p cue.Value, g *graph.Graph) error {
	nodesVal := p.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return &CompileError{
			Field:   "pipeline.nodes",
			Message: "nodes are required",
			Pos:     p.Pos(),
		}
	}

	iter, err := nodesVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		raw, err := iter.Value().String()
		if err != nil {
			return formatCUEError(err)
		}
		name := norm.NFC.String(raw)
		if name == "" {
			return &CompileError{
				Field:   "pipeline.nodes",
				Message: "node name must not be empty",
				Pos:     iter.Value().Pos(),
			}
		}
		if _, err := g.AddNode(name); err != nil {
			if errors.Is(err, graph.ErrDuplicateNode) {
				return &CompileError{
					Field:   "pipeline.nodes",
					Message: fmt.Sprintf("duplicate node %q", name),
					Pos:     iter.Value().Pos(),
				}
			}
			return err
		}
	}

	if g.NodeCount() == 0 {
		return &CompileError{
			Field:   "pipeline.nodes",
			Message: "at least one node is required",
			Pos:     nodesVal.Pos(),
		}
	}
	return nil
}

func compileEdges(p cue.Value, g *graph.Graph) error {
	edgesVal := p.LookupPath(cue.ParsePath("edges"))
	if !edgesVal.Exists() {
		return nil
	}

	iter, err := edgesVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		ev := iter.Value()
		from, err := endpoint(ev, "from", g)
		if err != nil {
			return err
		}
		to, err := endpoint(ev, "to", g)
		if err != nil {
			return err
		}
		if _, err := g.AddEdge(from, to); err != nil {
			return fmt.Errorf("add edge %s->%s: %w", g.NodeName(from), g.NodeName(to), err)
		}
	}
	return nil
}

func endpoint(edge cue.Value, field string, g *graph.Graph) (graph.NodeIndex, error) {
	v := edge.LookupPath(cue.ParsePath(field))
	if !v.Exists() {
		return 0, &CompileError{
			Field:   "pipeline.edges." + field,
			Message: field + " is required",
			Pos:     edge.Pos(),
		}
	}
	raw, err := v.String()
	if err != nil {
		return 0, formatCUEError(err)
	}
	name := norm.NFC.String(raw)
	n, ok := g.Lookup(name)
	if !ok {
		return 0, &CompileError{
			Field:   "pipeline.edges." + field,
			Message: fmt.Sprintf("unknown node %q", name),
			Pos:     v.Pos(),
		}
	}
	return n, nil
}

// CompileString compiles CUE source text.
func CompileString(src string) (*Topology, error) {
	ctx := cuecontext.New()
	return Compile(ctx.CompileString(src, cue.Filename("<inline>")))
}

// LoadFile compiles a single .cue file.
func LoadFile(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology: %w", err)
	}
	ctx := cuecontext.New()
	return Compile(ctx.CompileBytes(data, cue.Filename(path)))
}

// LoadDir loads every .cue file in dir as one CUE package and compiles the
// result, so a topology can be split across files. The files must share a
// package clause.
func LoadDir(dir string) (*Topology, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("topology directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan topology directory: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	ctx := cuecontext.New()
	return Compile(ctx.BuildInstance(inst))
}

// Load compiles path, which may be a .cue file or a directory of them.
func Load(path string) (*Topology, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}
