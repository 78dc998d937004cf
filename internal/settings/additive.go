package settings

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed additive_defaults.yaml
var defaultAdditiveYAML []byte

// AdditiveList matches setting names whose values merge across policies
// instead of overriding one another (exclusion lists and similar). Matches
// downgrade a would-be conflict to a warning.
type AdditiveList struct {
	exact    map[string]struct{}
	contains []string
}

// additiveFile is the YAML shape of an allow-list file.
type additiveFile struct {
	// Exact entries match a leaf's unqualified setting name verbatim.
	Exact []string `yaml:"exact"`
	// Contains entries match when the qualified name contains the
	// fragment, case-insensitively.
	Contains []string `yaml:"contains"`
}

// DefaultAdditiveList returns the embedded allow-list.
func DefaultAdditiveList() *AdditiveList {
	list, err := parseAdditive(defaultAdditiveYAML)
	if err != nil {
		// The embedded file is part of the build; a parse failure is a
		// programming error, not a runtime condition.
		panic(fmt.Sprintf("settings: embedded additive list: %v", err))
	}
	return list
}

// LoadAdditiveList reads an allow-list file, merged over the embedded
// defaults. An empty path returns the defaults unchanged.
func LoadAdditiveList(path string) (*AdditiveList, error) {
	list := DefaultAdditiveList()
	if path == "" {
		return list, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read additive list %s: %w", path, err)
	}
	extra, err := parseAdditive(raw)
	if err != nil {
		return nil, fmt.Errorf("parse additive list %s: %w", path, err)
	}

	for name := range extra.exact {
		list.exact[name] = struct{}{}
	}
	list.contains = append(list.contains, extra.contains...)
	return list, nil
}

func parseAdditive(raw []byte) (*AdditiveList, error) {
	var file additiveFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}

	list := &AdditiveList{exact: make(map[string]struct{}, len(file.Exact))}
	for _, name := range file.Exact {
		list.exact[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	for _, frag := range file.Contains {
		if frag = strings.ToLower(strings.TrimSpace(frag)); frag != "" {
			list.contains = append(list.contains, frag)
		}
	}
	return list, nil
}

// Matches reports whether a leaf's qualified name falls under the
// allow-list. The final breadcrumb segment is checked against exact
// entries; the whole path against contains-fragments.
func (l *AdditiveList) Matches(qualifiedName string) bool {
	lower := strings.ToLower(qualifiedName)

	last := lower
	if i := strings.LastIndex(lower, strings.ToLower(breadcrumbSep)); i >= 0 {
		last = lower[i+len(breadcrumbSep):]
	}
	if _, ok := l.exact[last]; ok {
		return true
	}

	for _, frag := range l.contains {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
