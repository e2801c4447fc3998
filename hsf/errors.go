package hsf

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/hsf_browser/gcn/gx"
	"github.com/mogaika/hsf_browser/readat"
)

type ErrorKind int

const (
	// whole file can not be decoded
	KindInvalidMagic ErrorKind = iota
	// section is dropped, offsets inside of it can not be trusted anymore
	KindUnexpectedEOF
	KindOutOfBounds
	// only one item (texture, track) is dropped
	KindUnsupportedFormat
	// data kept, violation reported
	KindConsistency
	KindCyclicGraph
)

var kindNames = map[ErrorKind]string{
	KindInvalidMagic:      "InvalidMagic",
	KindUnexpectedEOF:     "UnexpectedEof",
	KindOutOfBounds:       "OutOfBounds",
	KindUnsupportedFormat: "UnsupportedFormat",
	KindConsistency:       "ConsistencyViolation",
	KindCyclicGraph:       "CyclicGraph",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DecodeError locates problem inside of file.
// Item is -1 when error is about whole section.
type DecodeError struct {
	Kind    ErrorKind
	Section string
	Item    int
	Offset  int
	Err     error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Section != "" {
		fmt.Fprintf(&b, " in %s", e.Section)
	}
	if e.Item >= 0 {
		fmt.Fprintf(&b, "[%d]", e.Item)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at 0x%x", e.Offset)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DecodeError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(&struct {
		Kind    ErrorKind
		Section string `json:",omitempty"`
		Item    int
		Offset  int
		Message string
	}{e.Kind, e.Section, e.Item, e.Offset, msg})
}

func (e *DecodeError) Unwrap() error { return e.Err }
func (e *DecodeError) Cause() error  { return e.Err }

// classify guesses kind of low level error
func classify(err error) ErrorKind {
	var de *DecodeError
	var ue *gx.UnsupportedFormatError
	switch {
	case errors.As(err, &de):
		return de.Kind
	case errors.Is(err, readat.ErrUnexpectedEOF):
		return KindUnexpectedEOF
	case errors.Is(err, readat.ErrOutOfBounds):
		return KindOutOfBounds
	case errors.Is(err, readat.ErrInvalidString), errors.As(err, &ue):
		return KindUnsupportedFormat
	}
	return KindConsistency
}

func newError(kind ErrorKind, section SectionId, item int, offset int, format string, a ...interface{}) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Section: section.String(),
		Item:    item,
		Offset:  offset,
		Err:     errors.Errorf(format, a...),
	}
}

// wrapError turns err into DecodeError keeping already attached location
func wrapError(err error, section SectionId, item int, offset int) *DecodeError {
	var de *DecodeError
	if errors.As(err, &de) {
		return de
	}
	return &DecodeError{
		Kind:    classify(err),
		Section: section.String(),
		Item:    item,
		Offset:  offset,
		Err:     err,
	}
}

type SectionState int

const (
	SECTION_ABSENT SectionState = iota
	SECTION_PARSED
	SECTION_FAILED
	SECTION_SKIPPED
)

func (s SectionState) String() string {
	switch s {
	case SECTION_ABSENT:
		return "absent"
	case SECTION_PARSED:
		return "parsed"
	case SECTION_FAILED:
		return "failed"
	case SECTION_SKIPPED:
		return "skipped"
	}
	return fmt.Sprintf("SectionState(%d)", int(s))
}

func (s SectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type SectionStatus struct {
	Name  string
	State SectionState
	Count int
	Error string `json:",omitempty"`
}

// Report collects per section results and every non fatal problem of one file
type Report struct {
	Sections []SectionStatus
	Warnings []*DecodeError
}

func (r *Report) setSection(id SectionId, state SectionState, count int, err error) {
	st := SectionStatus{Name: id.String(), State: state, Count: count}
	if err != nil {
		st.Error = err.Error()
	}
	for i := range r.Sections {
		if r.Sections[i].Name == st.Name {
			r.Sections[i] = st
			return
		}
	}
	r.Sections = append(r.Sections, st)
}

func (r *Report) warn(err *DecodeError) {
	r.Warnings = append(r.Warnings, err)
}

func (r *Report) Section(name string) (SectionStatus, bool) {
	for _, st := range r.Sections {
		if st.Name == name {
			return st, true
		}
	}
	return SectionStatus{}, false
}

func (r *Report) count(state SectionState) int {
	n := 0
	for _, st := range r.Sections {
		if st.State == state {
			n++
		}
	}
	return n
}

func (r *Report) Parsed() int { return r.count(SECTION_PARSED) }
func (r *Report) Failed() int { return r.count(SECTION_FAILED) }

// WarningsOf returns warnings of given kind
func (r *Report) WarningsOf(kind ErrorKind) []*DecodeError {
	result := make([]*DecodeError, 0)
	for _, w := range r.Warnings {
		if w.Kind == kind {
			result = append(result, w)
		}
	}
	return result
}

func (r *Report) Summary() string {
	return fmt.Sprintf("%d sections parsed, %d failed, %d skipped, %d warnings",
		r.Parsed(), r.Failed(), r.count(SECTION_SKIPPED), len(r.Warnings))
}

func (r *Report) Messages() []string {
	msgs := make([]string, 0, len(r.Warnings))
	for _, st := range r.Sections {
		if st.State == SECTION_FAILED {
			msgs = append(msgs, fmt.Sprintf("section %s failed: %s", st.Name, st.Error))
		}
	}
	for _, w := range r.Warnings {
		msgs = append(msgs, w.Error())
	}
	return msgs
}
