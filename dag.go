package pluginmeta

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/errwrap"
	"github.com/hashicorp/go-version"
	"github.com/silas/dag"
)

// graphRoot is the vertex every plugin without dependencies hangs off
type graphRoot struct{}

func (graphRoot) Name() string { return "root" }

// Name is used by the graph when reporting cycles
func (p *RegisteredPlugin) Name() string {
	return p.Metadata.ID
}

// DependencyCycleError is returned when plugins depend on each other
type DependencyCycleError struct {
	Cycles [][]string
}

func (e *DependencyCycleError) Error() string {
	parts := []string{}
	for _, c := range e.Cycles {
		parts = append(parts, strings.Join(c, " -> "))
	}

	return fmt.Sprintf("plugin dependencies contain a cycle: %s", strings.Join(parts, "; "))
}

// LoadOrder returns the loadable plugins ordered so that every plugin comes
// after the plugins it depends on, ties are broken by ID. Plugins whose
// dependencies are not registered, not loadable or have the wrong version
// get the missing_dependency status and are left out.
func (r *PluginRegistry) LoadOrder() ([]*RegisteredPlugin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.plugins {
		if p.Status == StatusMissingDependency {
			r.evaluate(p)
		}
	}

	r.resolveDependencies()

	graph, err := r.buildGraph()
	if err != nil {
		return nil, err
	}

	depth, err := walkDepth(graph, r.dependenciesOf)
	if err != nil {
		return nil, err
	}

	order := []*RegisteredPlugin{}
	for _, p := range r.plugins {
		if p.Loadable() {
			order = append(order, p)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if depth[order[i]] != depth[order[j]] {
			return depth[order[i]] < depth[order[j]]
		}

		return order[i].ID() < order[j].ID()
	})

	out := make([]*RegisteredPlugin, 0, len(order))
	for _, p := range order {
		out = append(out, p.copy())
	}

	return out, nil
}

// lookup finds a dependency by plugin ID or display name
func (r *PluginRegistry) lookup(name string) *RegisteredPlugin {
	if p, ok := r.plugins[name]; ok {
		return p
	}

	for _, p := range r.plugins {
		if strings.EqualFold(p.Metadata.Name, name) || strings.EqualFold(p.Metadata.ID, name) {
			return p
		}
	}

	return nil
}

// resolveDependencies marks plugins with unsatisfied dependencies, repeating
// until nothing changes so the status propagates to indirect dependents
func (r *PluginRegistry) resolveDependencies() {
	for changed := true; changed; {
		changed = false

		for _, p := range r.plugins {
			if !p.Loadable() {
				continue
			}

			if reason := r.unsatisfied(p); reason != "" {
				p.Status = StatusMissingDependency
				p.Reason = reason
				changed = true

				r.logger.Warn("Plugin dependency not satisfied", "id", p.ID(), "reason", reason)
			}
		}
	}
}

func (r *PluginRegistry) unsatisfied(p *RegisteredPlugin) string {
	for _, d := range p.Metadata.Dependencies {
		dep := r.lookup(d.Name)
		if dep == nil {
			return fmt.Sprintf("dependency %s is not installed", d.Name)
		}

		if !dep.Loadable() {
			return fmt.Sprintf("dependency %s is %s", d.Name, dep.Status)
		}

		if d.Version == "" {
			continue
		}

		want, err := version.NewVersion(d.Version)
		if err != nil {
			return fmt.Sprintf("dependency %s has an invalid version %q", d.Name, d.Version)
		}

		have, err := version.NewVersion(dep.Metadata.Version)
		if err != nil || !have.Equal(want) {
			return fmt.Sprintf("dependency %s requires version %s, installed %s", d.Name, d.Version, dep.Metadata.Version)
		}
	}

	return ""
}

func (r *PluginRegistry) dependenciesOf(p *RegisteredPlugin) []*RegisteredPlugin {
	deps := []*RegisteredPlugin{}

	for _, d := range p.Metadata.Dependencies {
		if dep := r.lookup(d.Name); dep != nil && dep != p {
			deps = append(deps, dep)
		}
	}

	return deps
}

func (r *PluginRegistry) buildGraph() (*dag.AcyclicGraph, error) {
	graph := &dag.AcyclicGraph{}

	root := graphRoot{}
	graph.Add(root)

	for _, p := range r.plugins {
		if p.Loadable() {
			graph.Add(p)
		}
	}

	for _, p := range r.plugins {
		if !p.Loadable() {
			continue
		}

		hasDeps := false
		for _, dep := range r.dependenciesOf(p) {
			hasDeps = true
			graph.Connect(dag.BasicEdge(dep, p))
		}

		if !hasDeps {
			graph.Connect(dag.BasicEdge(root, p))
		}
	}

	if cycles := graph.Cycles(); len(cycles) > 0 {
		ce := &DependencyCycleError{}
		for _, c := range cycles {
			names := []string{}
			for _, v := range c {
				names = append(names, dag.VertexName(v))
			}

			sort.Strings(names)
			ce.Cycles = append(ce.Cycles, names)
		}

		return nil, ce
	}

	graph.TransitiveReduction()

	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("unable to validate dependency graph: %w", err)
	}

	return graph, nil
}

// walkDepth walks the graph from the root, a plugin is only visited after
// all of its dependencies so its depth is one more than the deepest of them
func walkDepth(graph *dag.AcyclicGraph, depsOf func(*RegisteredPlugin) []*RegisteredPlugin) (map[*RegisteredPlugin]int, error) {
	mu := sync.Mutex{}
	depth := map[*RegisteredPlugin]int{}

	// the graph package writes trace output to the standard logger, silence
	// it for the walk and hand the logger back untouched
	prev := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(prev)

	w := &dag.Walker{}
	w.Callback = func(v dag.Vertex) (diags dag.Diagnostics) {
		p, ok := v.(*RegisteredPlugin)
		if !ok {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()

		d := 0
		for _, dep := range depsOf(p) {
			dd, visited := depth[dep]
			if !visited {
				return diags.Append(fmt.Errorf("plugin %s visited before its dependency %s", p.ID(), dep.ID()))
			}

			if dd+1 > d {
				d = dd + 1
			}
		}

		depth[p] = d
		return nil
	}

	w.Update(graph)

	diags := w.Wait()
	if diags.HasErrors() {
		if wrapped, ok := diags.Err().(errwrap.Wrapper); ok {
			return nil, fmt.Errorf("unable to order plugins: %w", wrapped.WrappedErrors()[0])
		}

		return nil, fmt.Errorf("unable to order plugins: %w", diags.Err())
	}

	return depth, nil
}
