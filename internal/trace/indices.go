package trace

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// sectionOrder fixes the serialization order of known section names;
// anything else follows sorted.
var sectionOrder = []string{"opener", "validation", "action", "closure"}

// OrderedIndices serializes selected variant indices with the canonical
// section ordering instead of Go's alphabetical map order.
type OrderedIndices struct {
	indices map[string]int
}

// NewOrderedIndices copies the given index map.
func NewOrderedIndices(indices map[string]int) OrderedIndices {
	copied := make(map[string]int, len(indices))
	for section, index := range indices {
		copied[section] = index
	}
	return OrderedIndices{indices: copied}
}

// Get returns the index for a section.
func (o OrderedIndices) Get(section string) (int, bool) {
	index, ok := o.indices[section]
	return index, ok
}

// Len returns the number of recorded sections.
func (o OrderedIndices) Len() int {
	return len(o.indices)
}

// MarshalJSON emits opener, validation, action, closure first (when
// present), then any remaining sections sorted by name.
func (o OrderedIndices) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	emitted := make(map[string]bool, len(o.indices))
	first := true
	write := func(section string) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(section)
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(o.indices[section]))
		emitted[section] = true
	}

	for _, section := range sectionOrder {
		if _, ok := o.indices[section]; ok {
			write(section)
		}
	}
	rest := make([]string, 0, len(o.indices))
	for section := range o.indices {
		if !emitted[section] {
			rest = append(rest, section)
		}
	}
	sort.Strings(rest)
	for _, section := range rest {
		write(section)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores the index map.
func (o *OrderedIndices) UnmarshalJSON(data []byte) error {
	var indices map[string]int
	if err := json.Unmarshal(data, &indices); err != nil {
		return err
	}
	o.indices = indices
	return nil
}
