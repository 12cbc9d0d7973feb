// Package fixtureindex holds the four concurrent maps that back the
// server's workspace-wide view of pytest fixtures: names to definitions,
// files to usages, files to undeclared references, and files to their
// most recently analyzed content. Built on orcaman/concurrent-map/v2, a
// sharded map that lets many goroutines read and write different keys
// without contending on a single lock — a large workspace rescan touches
// many files concurrently.
package fixtureindex

import (
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/pyfixls/pyfixls/internal/fixture"
)

// Index is the process-wide, ephemeral fixture index. There is no hidden
// singleton: every component reaches it through an explicit handle.
type Index struct {
	definitions cmap.ConcurrentMap[string, []fixture.Definition] // name -> defs
	usages      cmap.ConcurrentMap[string, []fixture.Usage]      // canonical file -> usages
	undeclared  cmap.ConcurrentMap[string, []fixture.Undeclared] // canonical file -> undeclared
	fileCache   cmap.ConcurrentMap[string, string]                 // canonical file -> content
}

// New constructs an empty Index.
func New() *Index {
	return &Index{
		definitions: cmap.New[[]fixture.Definition](),
		usages:      cmap.New[[]fixture.Usage](),
		undeclared:  cmap.New[[]fixture.Undeclared](),
		fileCache:   cmap.New[string](),
	}
}

// Definitions returns every known definition of name, across all analyzed
// files, in no particular order. Callers that need determinism (the
// resolver) sort the result themselves.
func (x *Index) Definitions(name string) []fixture.Definition {
	v, _ := x.definitions.Get(name)
	return v
}

// DefinitionNames returns a snapshot of every fixture name in the
// definitions map, including names whose definitions ClearFile has all
// removed (they stay with an empty list).
func (x *Index) DefinitionNames() []string {
	return x.definitions.Keys()
}

// Usages returns the usages recorded for canonical file path file.
func (x *Index) Usages(file string) []fixture.Usage {
	v, _ := x.usages.Get(file)
	return v
}

// Undeclared returns the undeclared-fixture entries recorded for file.
func (x *Index) Undeclared(file string) []fixture.Undeclared {
	v, _ := x.undeclared.Get(file)
	return v
}

// FileContent returns the most recently analyzed content for file.
func (x *Index) FileContent(file string) (string, bool) {
	return x.fileCache.Get(file)
}

// Files returns a snapshot of every canonical path with cached content.
func (x *Index) Files() []string {
	return x.fileCache.Keys()
}

// ClearFile atomically removes every definition, usage, and undeclared
// entry attributed to file, in preparation for a fresh analyze(file). The
// definitions map is keyed by fixture name, not file, so clearing it
// means snapshotting the key set, then mutating each key's value list in
// isolation via Upsert's per-shard callback — never holding two live
// references into the map at once, which is what deadlocks a naive
// read-then-write over a sharded map.
func (x *Index) ClearFile(file string) {
	for _, name := range x.definitions.Keys() {
		x.definitions.Upsert(name, nil, func(exists bool, cur, _ []fixture.Definition) []fixture.Definition {
			if !exists || len(cur) == 0 {
				return cur
			}
			filtered := make([]fixture.Definition, 0, len(cur))
			for _, d := range cur {
				if d.File != file {
					filtered = append(filtered, d)
				}
			}
			return filtered
		})
	}
	x.usages.Remove(file)
	x.undeclared.Remove(file)
}

// SetFileContent caches content for file. Callers update this last among
// a single analyze(F)'s writes so that any observer who sees new cached
// content also sees the corresponding new usages and undeclared entries.
func (x *Index) SetFileContent(file, content string) {
	x.fileCache.Set(file, content)
}

// AddDefinition appends d to the list for d.Name, deduplicating by
// (file, line) so a rescan never produces duplicate entries for the same
// definition.
func (x *Index) AddDefinition(d fixture.Definition) {
	x.definitions.Upsert(d.Name, []fixture.Definition{d}, func(exists bool, cur, incoming []fixture.Definition) []fixture.Definition {
		if !exists {
			return incoming
		}
		for _, existing := range cur {
			if existing.File == d.File && existing.Line == d.Line {
				return cur
			}
		}
		return append(cur, d)
	})
}

// SetUsages replaces the usage list for file. Called once per analyze(F)
// after ClearFile, with every usage collected by the walk.
func (x *Index) SetUsages(file string, usages []fixture.Usage) {
	if len(usages) == 0 {
		x.usages.Remove(file)
		return
	}
	x.usages.Set(file, usages)
}

// SetUndeclared replaces the undeclared list for file.
func (x *Index) SetUndeclared(file string, undeclared []fixture.Undeclared) {
	if len(undeclared) == 0 {
		x.undeclared.Remove(file)
		return
	}
	x.undeclared.Set(file, undeclared)
}
