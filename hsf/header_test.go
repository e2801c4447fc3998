package hsf

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/hsf_browser/readat"
)

func TestHeaderSize(t *testing.T) {
	if HEADER_SIZE != 0xb0 {
		t.Errorf("HEADER_SIZE=0x%x; expected 0xb0", HEADER_SIZE)
	}
}

func TestSectionPresent(t *testing.T) {
	for _, c := range []struct {
		s      Section
		expect bool
	}{
		{Section{0, 0}, false},
		{Section{0, 5}, false},
		{Section{0xffffffff, 5}, false},
		{Section{0x100, 0}, false},
		{Section{0x100, 1}, true},
	} {
		if got := c.s.Present(); got != c.expect {
			t.Errorf("%+v.Present()=%v; expected %v", c.s, got, c.expect)
		}
	}
}

func TestParseDirectory(t *testing.T) {
	f := newTestFile()
	f.add(SECTION_FOGS, 1, (&bw{}).zero(FOG_SIZE))
	f.name("x")
	d, err := ParseDirectory(readat.NewCursor(f.bytes()))
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}
	if fogs := d.Section(SECTION_FOGS); fogs.Offset != uint32(HEADER_SIZE) || fogs.Count != 1 {
		t.Errorf("fogs=%+v; expected offset 0x%x count 1", fogs, HEADER_SIZE)
	}
	if st, ok := d.SectionByName("stringtable"); !ok || !st.Present() {
		t.Errorf("SectionByName(stringtable)=%+v,%v; expected present", st, ok)
	}
	if _, ok := d.SectionByName("vertices"); ok {
		t.Errorf("SectionByName(vertices) expected not found")
	}
}

func TestDecodeInvalidMagic(t *testing.T) {
	data := newTestFile().bytes()
	copy(data, "HSFV036")
	_, err := Decode(data, nil)
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != KindInvalidMagic {
		t.Fatalf("Decode(HSFV036)=%v; expected InvalidMagic", err)
	}
	if de.Offset != 0 {
		t.Errorf("magic error offset %d; expected 0", de.Offset)
	}
}

func TestDecodeTruncatedHeader(t *testing.T) {
	data := newTestFile().bytes()[:HEADER_SIZE-3]
	if _, err := Decode(data, nil); err == nil {
		t.Errorf("Decode(truncated header) expected error")
	}
	if _, err := Decode([]byte("HSF"), nil); err == nil {
		t.Errorf("Decode(3 bytes) expected error")
	}
}

func TestDecodeEmptyFile(t *testing.T) {
	s, err := Decode(newTestFile().bytes(), nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s.Nodes) != 0 || s.RootIndex != -1 {
		t.Errorf("empty file: %d nodes, root %d; expected none", len(s.Nodes), s.RootIndex)
	}
	for _, st := range s.Report.Sections {
		if st.State != SECTION_ABSENT {
			t.Errorf("section %s is %v; expected absent", st.Name, st.State)
		}
	}
	if len(s.Report.Sections) != int(SECTIONS_COUNT) {
		t.Errorf("report has %d sections; expected %d", len(s.Report.Sections), SECTIONS_COUNT)
	}
}

func TestDecodeErrorString(t *testing.T) {
	err := newError(KindOutOfBounds, SECTION_TEXTURES, 2, 0x40, "palette %d", 7)
	expect := "OutOfBounds in textures[2] at 0x40: palette 7"
	if err.Error() != expect {
		t.Errorf("Error()=%q; expected %q", err.Error(), expect)
	}
	if wrapped := wrapError(err, SECTION_NODES, 0, 0); wrapped != err {
		t.Errorf("wrapError replaced located error")
	}
	if kind := wrapError(errors.Wrap(readat.ErrUnexpectedEOF, "x"), SECTION_FOGS, -1, 0).Kind; kind != KindUnexpectedEOF {
		t.Errorf("wrapError(eof).Kind=%v; expected UnexpectedEof", kind)
	}
}
