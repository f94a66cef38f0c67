package directory

// Resource is one server returned by the directory.
type Resource struct {
	ID         string
	Name       string
	Private    bool
	RconActive bool
}

// Eligible reports whether the resource can be subscribed to: public and with RCON
// active.
func (r Resource) Eligible() bool {
	return !r.Private && r.RconActive
}

// Snapshot is an immutable, ordered set of eligible resources from one fetch.
type Snapshot struct {
	resources []Resource
	byID      map[string]int
}

// NewSnapshot keeps the eligible resources of rs, in order. A repeated id stays in
// the list; Lookup resolves it to the first occurrence.
func NewSnapshot(rs []Resource) Snapshot {
	s := Snapshot{byID: make(map[string]int, len(rs))}
	for _, r := range rs {
		if !r.Eligible() {
			continue
		}
		if _, seen := s.byID[r.ID]; !seen {
			s.byID[r.ID] = len(s.resources)
		}
		s.resources = append(s.resources, r)
	}
	return s
}

func (s Snapshot) Len() int { return len(s.resources) }

// IDs returns the resource ids in fetch order.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.resources))
	for _, r := range s.resources {
		ids = append(ids, r.ID)
	}
	return ids
}

func (s Snapshot) Lookup(id string) (Resource, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Resource{}, false
	}
	return s.resources[i], true
}
