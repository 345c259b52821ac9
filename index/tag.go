// Package index holds the local and remote pieces of one process's view of
// the distributed index space: the attribute carried by each local index
// (LocalTag), the ordered set of (global, tag) pairs a process owns
// (Set/SortedSet), and the non-owning reference a remote process attaches to
// one of those pairs (RemoteEntry).
package index

// Attribute is a small, domain-defined tag attached to a local index —
// typically owner/border/overlap. The package never inspects its value.
type Attribute uint8

// State distinguishes a tag that is still part of the live index set from
// one that has been logically removed. Only Valid tags are ever exposed by
// Set.
type State uint8

const (
	Valid State = iota
	Deleted
)

func (s State) String() string {
	if s == Deleted {
		return "deleted"
	}
	return "valid"
}

// LocalTag is the attribute a process attaches to one of its local indices.
// IsPublic marks an index that may also be known to another process; State
// must be Valid for every tag a Set exposes through iteration.
type LocalTag struct {
	LocalIndex uint32
	Attribute  Attribute
	IsPublic   bool
	State      State
}
