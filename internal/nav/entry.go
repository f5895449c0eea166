package nav

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
)

const RootPath = "/"

// Entry is one link of the navigation panel.
type Entry struct {
	Label          string
	Destination    string
	Icon           string
	HighlightPaths []string
	// Separated entries are rendered with extra space above them.
	Separated bool
	// Count is an optional badge value, zero hides it.
	Count  int
	Active bool
}

// Matches reports whether the entry should be highlighted for the given path.
// The root entry only matches itself, other entries match by prefix on their
// destination or any of their highlight paths.
func (e Entry) Matches(path string) bool {
	if e.Destination == RootPath {
		return path == RootPath
	}

	if strings.HasPrefix(path, e.Destination) {
		return true
	}

	return slices.ContainsFunc(e.HighlightPaths, func(highlight string) bool {
		return strings.HasPrefix(path, highlight)
	})
}

func (e Entry) prefixes() []string {
	prefixes := make([]string, 0, len(e.HighlightPaths)+1)
	prefixes = append(prefixes, e.Destination)

	for _, h := range e.HighlightPaths {
		if !slices.Contains(prefixes, h) {
			prefixes = append(prefixes, h)
		}
	}

	return prefixes
}

var ErrAmbiguousPrefix = errors.New("ambiguous highlight prefix")

// CheckPrefixDisjoint returns an error if two entries can claim the same path,
// i.e. a destination or highlight path of one entry is a prefix of one of
// another entry. The root entry is exempt since it only matches exactly.
func CheckPrefixDisjoint(entries []Entry) error {
	for i, a := range entries {
		if a.Destination == RootPath {
			continue
		}

		for _, b := range entries[i+1:] {
			if b.Destination == RootPath {
				continue
			}

			for _, pa := range a.prefixes() {
				for _, pb := range b.prefixes() {
					if strings.HasPrefix(pa, pb) || strings.HasPrefix(pb, pa) {
						return errors.Wrapf(ErrAmbiguousPrefix, "entries '%s' (%s) and '%s' (%s) overlap", a.Label, pa, b.Label, pb)
					}
				}
			}
		}
	}

	return nil
}

// MarkActive returns a copy of entries with the Active flag computed for path.
func MarkActive(entries []Entry, path string) []Entry {
	marked := make([]Entry, len(entries))

	for idx, e := range entries {
		e.Active = e.Matches(path)
		marked[idx] = e
	}

	return marked
}
