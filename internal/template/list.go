package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// listConcurrency bounds how many template types List reads at once.
const listConcurrency = 4

// ErrInvalidType is returned for a template type outside Types().
var ErrInvalidType = errors.New("invalid template type")

var types = []string{
	"api_service",
	"external",
	"feed_api_service",
	"organization",
	"playbook",
	"tie",
	"trigger_service",
	"webhook_trigger_service",
}

var prefixes = map[string]string{
	"api_service":             "tcva",
	"feed_api_service":        "tcvf",
	"organization":            "tc",
	"playbook":                "tcpb",
	"trigger_service":         "tcvc",
	"web_api_service":         "tcvp",
	"webhook_trigger_service": "tcvw",
}

// Types returns the valid template types.
func Types() []string {
	out := make([]string, len(types))
	copy(out, types)
	return out
}

// ValidType reports whether typ is one of Types().
func ValidType(typ string) bool {
	for _, t := range types {
		if t == typ {
			return true
		}
	}
	return false
}

// Prefix returns the conventional app-name prefix for typ.
func Prefix(typ string) (string, bool) {
	p, ok := prefixes[typ]
	return p, ok
}

// Listing is the result of List.
type Listing struct {
	// ByType holds the readable templates of each type, sorted by name.
	ByType map[string][]*Descriptor
	// Problems records templates whose descriptor could not be used.
	Problems []error
}

// List walks the cache and returns the descriptors of every template of
// typ, or of every type when typ is empty.
func List(cacheDir, typ string) (*Listing, error) {
	selected := types
	if typ != "" {
		if !ValidType(typ) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidType, typ)
		}
		selected = []string{typ}
	}

	// descriptors of each type are read concurrently, then merged in type order
	type typeResult struct {
		descriptors []*Descriptor
		problems    []error
	}
	results := make([]typeResult, len(selected))

	var g errgroup.Group
	g.SetLimit(listConcurrency)
	for i, t := range selected {
		g.Go(func() error {
			for _, name := range Available(cacheDir, t) {
				d, err := ReadDescriptor(cacheDir, t, name)
				if err != nil {
					results[i].problems = append(results[i].problems, err)
					continue
				}
				results[i].descriptors = append(results[i].descriptors, d)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	listing := &Listing{ByType: make(map[string][]*Descriptor)}
	for i, t := range selected {
		if len(results[i].descriptors) > 0 {
			listing.ByType[t] = results[i].descriptors
		}
		listing.Problems = append(listing.Problems, results[i].problems...)
	}
	return listing, nil
}

// Available returns the sorted names of the template directories of typ.
func Available(cacheDir, typ string) []string {
	entries, err := os.ReadDir(filepath.Join(cacheDir, typ))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Exists reports whether template name of type typ is in the cache.
func Exists(cacheDir, typ, name string) bool {
	info, err := os.Stat(Dir(cacheDir, typ, name))
	return err == nil && info.IsDir()
}
