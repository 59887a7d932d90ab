package usagecfg

// Wildcard is the type-set entry meaning "every type".
const Wildcard = "*"

// TypeSet is a set of type-module prefixes, with optional wildcard.
// A nil TypeSet contains nothing.
type TypeSet struct {
	all   bool
	names map[string]struct{}
}

// NewTypeSet builds a set from the given prefixes. A Wildcard entry makes
// the set contain every prefix.
func NewTypeSet(prefixes []string) *TypeSet {
	s := &TypeSet{names: make(map[string]struct{}, len(prefixes))}
	for _, p := range prefixes {
		if p == Wildcard {
			s.all = true
			continue
		}
		s.names[p] = struct{}{}
	}
	return s
}

// Contains reports whether the prefix is in the set.
func (s *TypeSet) Contains(prefix string) bool {
	if s == nil {
		return false
	}
	if s.all {
		return true
	}
	_, ok := s.names[prefix]
	return ok
}

// All reports whether the set was built with a wildcard.
func (s *TypeSet) All() bool {
	return s != nil && s.all
}

// Empty reports whether the set matches nothing.
func (s *TypeSet) Empty() bool {
	return s == nil || (!s.all && len(s.names) == 0)
}
