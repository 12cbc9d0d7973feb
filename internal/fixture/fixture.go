// Package fixture defines the data model shared by the analyzer, index,
// and resolver: fixture definitions, usages, and undeclared references.
package fixture

import "fmt"

// Definition identifies a pytest fixture definition by name, canonical file
// path, and line. The span bounds the name token on that line.
type Definition struct {
	Name         string
	File         string // canonical path
	Line         int    // 1-based
	StartChar    int
	EndChar      int
	Docstring    string
	IsThirdParty bool
	IsAsync      bool
}

// Key uniquely identifies this definition within the index: the spec
// requires no duplicate entries for the same (file, line).
func (d Definition) Key() string {
	return fmt.Sprintf("%s:%d:%s", d.File, d.Line, d.Name)
}

// Contains reports whether the position (line, char) falls within the
// definition's name span.
func (d Definition) Contains(line, char int) bool {
	return d.Line == line && char >= d.StartChar && char < d.EndChar
}

// Usage is a reference to a fixture name at a specific position.
type Usage struct {
	Name      string
	File      string
	Line      int
	StartChar int
	EndChar   int
}

// Contains reports whether the position (line, char) falls within the
// usage's name span.
func (u Usage) Contains(line, char int) bool {
	return u.Line == line && char >= u.StartChar && char < u.EndChar
}

// Undeclared is a name observed inside a function body that resolves to an
// available fixture but is not declared as a parameter of the enclosing
// function.
type Undeclared struct {
	Name        string
	File        string
	Line        int
	StartChar   int
	EndChar     int
	FuncName    string
	FuncDefLine int
}

// builtinExclusions lists names that are never reported as undeclared,
// regardless of whether they happen to shadow a known fixture name.
var builtinExclusions = map[string]bool{
	"self":    true,
	"cls":     true,
	"request": true,
}

// IsBuiltinExclusion reports whether name is excluded from undeclared
// detection: self/cls bind to the enclosing class, not a fixture, and
// request is pytest's own introspection fixture that's always available.
func IsBuiltinExclusion(name string) bool {
	return builtinExclusions[name]
}
