package fbas

import "strconv"

// ID identifies a participant within one canonical topology.
// IDs are dense and assigned in the order of the participants' public identifiers,
// so they are not stable across topologies.
type ID uint32

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
