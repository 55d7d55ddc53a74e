package domain

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	m "gooze.dev/pkg/darwin/internal/model"
)

// DiffContext is the number of unchanged lines shown around a mutation.
const DiffContext = 3

// Applier expands sites into numbered candidates.
type Applier interface {
	// Apply returns one candidate per (site, replacement) pair, numbered from
	// zero in site order and then catalog order.
	Apply(sites []m.Site, sources []m.SourceFile) ([]m.Candidate, error)
}

type applier struct {
	catalog *Catalog
}

// NewApplier constructs an Applier over catalog.
func NewApplier(catalog *Catalog) Applier {
	return &applier{catalog: catalog}
}

func (a *applier) Apply(sites []m.Site, sources []m.SourceFile) ([]m.Candidate, error) {
	byPath := make(map[m.Path]m.SourceFile, len(sources))
	for _, source := range sources {
		byPath[source.Path] = source
	}

	var candidates []m.Candidate

	for _, site := range sites {
		source, ok := byPath[site.File]
		if !ok {
			return nil, fmt.Errorf("no source loaded for %s", site.File)
		}

		for _, replacement := range a.catalog.ReplacementsFor(site.Operator) {
			mutated, err := MutateSource(source.Content, site.Offset, site.Operator, replacement)
			if err != nil {
				return nil, fmt.Errorf("mutate %s:%d:%d: %w", site.Rel, site.Line, site.Column, err)
			}

			candidates = append(candidates, m.Candidate{
				ID:          uint(len(candidates)),
				Site:        site,
				Replacement: replacement,
				Diff:        UnifiedDiff(site.Rel, source.Content, mutated),
			})
		}
	}

	return candidates, nil
}

// MutateSource returns a copy of content with the operator at offset replaced.
// The bytes at offset must equal original.
func MutateSource(content []byte, offset int, original, replacement string) ([]byte, error) {
	end := offset + len(original)
	if offset < 0 || end > len(content) || !bytes.Equal(content[offset:end], []byte(original)) {
		return nil, fmt.Errorf("operator %q not found at offset %d", original, offset)
	}

	mutated := make([]byte, 0, len(content)-len(original)+len(replacement))
	mutated = append(mutated, content[:offset]...)
	mutated = append(mutated, replacement...)
	mutated = append(mutated, content[end:]...)

	return mutated, nil
}

// UnifiedDiff renders a unified diff between two versions of rel.
//
// Versions with the same number of lines, as produced by an operator swap,
// are compared line by line so the hunk always sits on the changed lines with
// DiffContext lines around them. Other inputs go through the difflib matcher.
func UnifiedDiff(rel m.Path, original, mutated []byte) string {
	name := filepath.ToSlash(string(rel))
	a := splitLinesKeepNL(original)
	b := splitLinesKeepNL(mutated)

	if len(a) == len(b) {
		return alignedDiff(name, a, b)
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  DiffContext,
	})
	if err != nil {
		return ""
	}

	return diff
}

// alignedDiff writes a single hunk covering every changed line of two
// equally long versions.
func alignedDiff(name string, a, b []string) string {
	first, last := -1, -1

	for i := range a {
		if a[i] != b[i] {
			if first < 0 {
				first = i
			}

			last = i
		}
	}

	if first < 0 {
		return ""
	}

	start := max(0, first-DiffContext)
	stop := min(len(a), last+1+DiffContext)
	hunk := unifiedRange(start, stop)

	var sb strings.Builder

	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n@@ -%s +%s @@\n", name, name, hunk, hunk)

	for i := start; i < stop; {
		if a[i] == b[i] {
			sb.WriteString(" " + a[i])
			i++

			continue
		}

		j := i
		for j < stop && a[j] != b[j] {
			j++
		}

		for k := i; k < j; k++ {
			sb.WriteString("-" + a[k])
		}

		for k := i; k < j; k++ {
			sb.WriteString("+" + b[k])
		}

		i = j
	}

	return sb.String()
}

// unifiedRange formats a [start, stop) line range the way difflib does.
func unifiedRange(start, stop int) string {
	length := stop - start

	switch length {
	case 0:
		return fmt.Sprintf("%d,0", start)
	case 1:
		return fmt.Sprintf("%d", start+1)
	default:
		return fmt.Sprintf("%d,%d", start+1, length)
	}
}

func splitLinesKeepNL(content []byte) []string {
	if len(content) == 0 {
		return []string{}
	}

	lines := strings.SplitAfter(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}

	return lines
}
