// Package catalog holds the ordered registry of development cache types and
// matches filesystem entry names against it.
package catalog

import "strings"

// CacheType is one named kind of artifact inside a category.
type CacheType struct {
	Name        string
	Patterns    []string
	Description string
}

// Category groups related cache types, usually by ecosystem.
type Category struct {
	Name  string
	Types []CacheType
}

// Catalog is an ordered set of categories. Registration order is the match
// priority: the first category/type with a matching pattern wins.
type Catalog struct {
	categories []Category
}

var defaultCategories = []Category{
	{Name: "node", Types: []CacheType{
		{Name: "node_modules", Patterns: []string{"node_modules"}, Description: "Node.js dependencies"},
		{Name: "node_cache", Patterns: []string{".cache", ".parcel-cache", ".next/cache", ".nuxt", ".turbo"}, Description: "Build caches"},
	}},
	{Name: "python", Types: []CacheType{
		{Name: "pycache", Patterns: []string{"__pycache__", "*.pyc"}, Description: "Python bytecode"},
		{Name: "venv", Patterns: []string{".venv", "venv", ".env", "env"}, Description: "Virtual environments"},
		{Name: "pytest", Patterns: []string{".pytest_cache", ".mypy_cache", ".ruff_cache", ".tox"}, Description: "Test/lint caches"},
		{Name: "eggs", Patterns: []string{"*.egg-info", ".eggs", "dist", "build"}, Description: "Build artifacts"},
	}},
	{Name: "rust", Types: []CacheType{
		{Name: "target", Patterns: []string{"target"}, Description: "Rust build output"},
	}},
	{Name: "go", Types: []CacheType{
		{Name: "go_build", Patterns: []string{"go-build"}, Description: "Go build cache"},
	}},
	{Name: "java", Types: []CacheType{
		{Name: "gradle", Patterns: []string{".gradle", "build"}, Description: "Gradle cache"},
	}},
	{Name: "dotnet", Types: []CacheType{
		{Name: "dotnet", Patterns: []string{"bin", "obj"}, Description: ".NET build output"},
	}},
	{Name: "misc", Types: []CacheType{
		{Name: "coverage", Patterns: []string{"coverage", ".coverage", "htmlcov", ".nyc_output"}, Description: "Coverage reports"},
		{Name: "logs", Patterns: []string{"*.log", "logs"}, Description: "Log files"},
		{Name: "temp", Patterns: []string{"tmp", "temp", ".tmp"}, Description: "Temp files"},
		{Name: "os", Patterns: []string{".DS_Store", "Thumbs.db"}, Description: "OS files"},
	}},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{categories: defaultCategories}
}

// New creates a catalog from categories in priority order.
func New(categories ...Category) *Catalog {
	return &Catalog{categories: categories}
}

// Categories returns a copy of the registry in priority order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		types := make([]CacheType, len(cat.Types))
		for j, t := range cat.Types {
			t.Patterns = append([]string(nil), t.Patterns...)
			types[j] = t
		}
		out[i] = Category{Name: cat.Name, Types: types}
	}
	return out
}

// Names returns the category names in priority order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Known reports whether name is a registered category.
func (c *Catalog) Known(name string) bool {
	for _, cat := range c.categories {
		if cat.Name == name {
			return true
		}
	}
	return false
}

// Match returns the first category and cache type whose patterns match the
// entry name.
func (c *Catalog) Match(name string) (category, cacheType string, ok bool) {
	return c.MatchIn(name, nil)
}

// MatchIn is Match restricted to the allowed categories. An empty allowed
// list means every category.
func (c *Catalog) MatchIn(name string, allowed []string) (category, cacheType string, ok bool) {
	for _, cat := range c.categories {
		if len(allowed) > 0 && !contains(allowed, cat.Name) {
			continue
		}
		for _, t := range cat.Types {
			for _, pattern := range t.Patterns {
				if MatchPattern(pattern, name) {
					return cat.Name, t.Name, true
				}
			}
		}
	}
	return "", "", false
}

// MatchPattern reports whether an entry name matches a single pattern. A
// pattern starting with "*" matches by suffix, anything else must be equal.
func MatchPattern(pattern, name string) bool {
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
		return strings.HasSuffix(name, suffix)
	}
	return name == pattern
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
