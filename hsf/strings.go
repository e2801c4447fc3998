package hsf

import (
	"github.com/mogaika/hsf_browser/readat"
)

// StringTable resolves names stored as offsets into string table section.
// Lookups do not move cursor of caller.
type StringTable struct {
	c       *readat.Cursor
	section Section
}

func NewStringTable(c *readat.Cursor, section Section) *StringTable {
	return &StringTable{c: c, section: section}
}

// Lookup returns string at offset relative to table start. Negative offset is empty name.
func (st *StringTable) Lookup(offset int) (string, error) {
	if offset < 0 {
		return "", nil
	}
	if !st.section.Present() {
		return "", newError(KindOutOfBounds, SECTION_STRINGTABLE, -1, offset, "string table is absent")
	}

	var s string
	position := int(st.section.Offset) + offset
	err := st.c.At(position, func() (err error) {
		s, err = st.c.ReadCString()
		return err
	})
	if err != nil {
		return "", wrapError(err, SECTION_STRINGTABLE, -1, position)
	}
	return s, nil
}
