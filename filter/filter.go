// Package filter decides path visibility. A filter maps a repository-relative
// path and a filter profile identifier to an excluded/included verdict; the
// profile identifier is opaque to everything outside this package.
package filter

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitignore "github.com/sabhiram/go-gitignore"
	log "github.com/sirupsen/logrus"
)

// Filter reports whether a path is excluded under a profile. Implementations
// must be deterministic: the same (path, profile) pair always yields the same
// verdict, and must be safe for concurrent use.
type Filter interface {
	IsPathExcluded(path, profileID string) bool
}

// Func adapts a plain function to the Filter interface.
type Func func(path, profileID string) bool

func (f Func) IsPathExcluded(path, profileID string) bool {
	return f(path, profileID)
}

// None excludes nothing.
var None Filter = Func(func(string, string) bool { return false })

var _ Filter = (*ProfileSet)(nil)

// ProfileSet resolves profile identifiers to compiled gitignore-style rule
// sets. A profile identifier that resolves to no known rule set excludes
// nothing, so unknown profiles degrade to full visibility.
type ProfileSet struct {
	mu       sync.RWMutex
	profiles map[string]*gitignore.GitIgnore
}

func NewProfileSet() *ProfileSet {
	return &ProfileSet{profiles: make(map[string]*gitignore.GitIgnore)}
}

// Register compiles rule lines under a profile identifier, replacing any
// previous registration.
func (p *ProfileSet) Register(profileID string, rules ...string) {
	ignorer := gitignore.CompileIgnoreLines(rules...)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[profileID] = ignorer
}

// LoadDir registers every "<id>.filter" file in dir as profile <id>. Files
// hold gitignore-style rules, one per line.
func (p *ProfileSet) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".filter") {
			continue
		}

		ignorer, err := gitignore.CompileIgnoreFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}

		id := strings.TrimSuffix(name, ".filter")
		p.mu.Lock()
		p.profiles[id] = ignorer
		p.mu.Unlock()

		log.Debugf("Loaded filter profile %q from %s", id, name)
	}
	return nil
}

// IsPathExcluded matches path against the profile's rules. The root path ""
// is never excluded.
func (p *ProfileSet) IsPathExcluded(path, profileID string) bool {
	if path == "" {
		return false
	}

	p.mu.RLock()
	ignorer := p.profiles[profileID]
	p.mu.RUnlock()

	if ignorer == nil {
		return false
	}
	return ignorer.MatchesPath(path)
}
