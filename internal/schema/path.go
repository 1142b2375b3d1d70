package schema

import "strings"

// Path is the list of node ids from a top-level section down to a node.
type Path []string

// Child returns a new path extended by id.
func (p Path) Child(id string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = id
	return out
}

// Section returns the top-level id.
func (p Path) Section() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Last returns the id of the addressed node.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its last element.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Equal reports whether both paths address the same node.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Join renders the path with sep between ids.
func (p Path) Join(sep string) string {
	return strings.Join(p, sep)
}

func (p Path) String() string {
	return "/" + strings.Join(p, "/")
}

// ParsePath splits a path rendered with sep.
func ParsePath(s, sep string) Path {
	s = strings.Trim(s, sep)
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, sep))
}
