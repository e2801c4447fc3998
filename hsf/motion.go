package hsf

import (
	"fmt"
	"math"
)

const (
	FOG_SIZE          = 16
	SKELETON_SIZE     = 40
	MOTION_SIZE       = 16
	MOTION_TRACK_SIZE = 16
)

type Fog struct {
	Type  uint32
	Start float32
	End   float32
	Color [4]uint8
}

func readFog(ctx *ParseContext) (f Fog, err error) {
	c := ctx.c
	if f.Type, err = c.ReadU32(); err != nil {
		return
	}
	if err = readFloats(c, &f.Start, &f.End); err != nil {
		return
	}
	var raw []byte
	if raw, err = c.ReadBytes(4); err == nil {
		copy(f.Color[:], raw)
	}
	return
}

func readFogs(ctx *ParseContext) ([]Fog, error) {
	return readRecords(ctx, SECTION_FOGS, FOG_SIZE, readFog)
}

// Skeleton is bind pose of one joint
type Skeleton struct {
	Name      string
	Transform Transform
}

func readSkeleton(ctx *ParseContext) (s Skeleton, err error) {
	if s.Name, err = readName(ctx); err != nil {
		return
	}
	s.Transform, err = readTransform(ctx.c)
	return
}

func readSkeletons(ctx *ParseContext) ([]Skeleton, error) {
	return readRecords(ctx, SECTION_SKELETONS, SKELETON_SIZE, readSkeleton)
}

type CurveType uint16

const (
	CURVE_STEP CurveType = iota
	CURVE_LINEAR
	CURVE_BEZIER
	CURVE_BITMAP
	CURVE_CONSTANT
)

var curveNames = map[CurveType]string{
	CURVE_STEP:     "step",
	CURVE_LINEAR:   "linear",
	CURVE_BEZIER:   "bezier",
	CURVE_BITMAP:   "bitmap",
	CURVE_CONSTANT: "constant",
}

func (ct CurveType) String() string {
	if name, ok := curveNames[ct]; ok {
		return name
	}
	return fmt.Sprintf("CurveType(%d)", uint16(ct))
}

func (ct CurveType) MarshalText() ([]byte, error) {
	return []byte(ct.String()), nil
}

// KeySize returns size of one keyframe record, 0 for inline constant
func (ct CurveType) KeySize() (int, bool) {
	switch ct {
	case CURVE_STEP, CURVE_LINEAR, CURVE_BITMAP:
		return 8, true
	case CURVE_BEZIER:
		return 16, true
	case CURVE_CONSTANT:
		return 0, true
	}
	return 0, false
}

type Keyframe struct {
	Time  float32
	Value float32
	// bezier tangents
	In  float32 `json:",omitempty"`
	Out float32 `json:",omitempty"`
	// bitmap curves store frame of bitmap instead of value
	Bitmap int32 `json:",omitempty"`
}

type Track struct {
	Type     uint8
	Start    uint8
	Target   uint16
	Param    uint16
	Channel  uint16
	Curve    CurveType
	KeyCount uint16
	// value of constant curve, otherwise offset of keys
	ValueOrOffset uint32
	Keys          []Keyframe `json:",omitempty"`
	// set when keys could not be decoded
	Error string `json:",omitempty"`
}

type Motion struct {
	Name        string
	TrackCount  int
	TrackOffset int
	Length      float32
	Tracks      []*Track
}

func readTrack(ctx *ParseContext) (t *Track, err error) {
	c := ctx.c
	t = &Track{}
	if t.Type, err = c.ReadU8(); err != nil {
		return
	}
	if t.Start, err = c.ReadU8(); err != nil {
		return
	}
	var curve uint16
	for _, field := range []*uint16{&t.Target, &t.Param, &t.Channel, &curve, &t.KeyCount} {
		if *field, err = c.ReadU16(); err != nil {
			return
		}
	}
	t.Curve = CurveType(curve)
	t.ValueOrOffset, err = c.ReadU32()
	return
}

func readKeys(ctx *ParseContext, t *Track, start int) error {
	c := ctx.c
	size, _ := t.Curve.KeySize()
	if err := c.Fits(start, int64(t.KeyCount), size); err != nil {
		return err
	}
	if err := c.Seek(start); err != nil {
		return err
	}
	t.Keys = make([]Keyframe, t.KeyCount)
	for i := range t.Keys {
		k := &t.Keys[i]
		var err error
		if k.Time, err = c.ReadF32(); err != nil {
			return err
		}
		switch t.Curve {
		case CURVE_BITMAP:
			k.Bitmap, err = c.ReadI32()
		case CURVE_BEZIER:
			err = readFloats(c, &k.Value, &k.In, &k.Out)
		default:
			k.Value, err = c.ReadF32()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readMotions reads motion headers, then tracks placed after all headers,
// then keys placed after all tracks. Motions are decoded but never evaluated.
func readMotions(ctx *ParseContext) ([]*Motion, error) {
	section := ctx.Directory.Section(SECTION_MOTIONS)
	c := ctx.c

	motions, err := readRecords(ctx, SECTION_MOTIONS, MOTION_SIZE, func(ctx *ParseContext) (m *Motion, err error) {
		m = &Motion{}
		if m.Name, err = readName(ctx); err != nil {
			return
		}
		var v int32
		if v, err = c.ReadI32(); err != nil {
			return
		}
		m.TrackCount = int(v)
		if v, err = c.ReadI32(); err != nil {
			return
		}
		m.TrackOffset = int(v)
		m.Length, err = c.ReadF32()
		if m.TrackCount < 0 || m.TrackCount*MOTION_TRACK_SIZE > c.Len() {
			err = newError(KindOutOfBounds, SECTION_MOTIONS, -1, c.Tell(), "bad track count %d", m.TrackCount)
		}
		return
	})
	if err != nil {
		return nil, err
	}

	tracksBase := int(section.Offset) + len(motions)*MOTION_SIZE
	totalTracks := 0
	for _, m := range motions {
		totalTracks += m.TrackCount
	}
	keysBase := tracksBase + totalTracks*MOTION_TRACK_SIZE

	for iMotion, m := range motions {
		m.Tracks = make([]*Track, m.TrackCount)
		for i := range m.Tracks {
			start := tracksBase + m.TrackOffset + i*MOTION_TRACK_SIZE
			if err := c.Seek(start); err != nil {
				return nil, wrapError(err, SECTION_MOTIONS, iMotion, start)
			}
			t, err := readTrack(ctx)
			if err != nil {
				return nil, wrapError(err, SECTION_MOTIONS, iMotion, start)
			}
			m.Tracks[i] = t

			if _, known := t.Curve.KeySize(); !known {
				de := newError(KindUnsupportedFormat, SECTION_MOTIONS, iMotion, start, "motion %q track %d: %v", m.Name, i, t.Curve)
				t.Error = de.Error()
				ctx.report.warn(de)
				continue
			}
			if t.Curve == CURVE_CONSTANT {
				continue
			}
			if err := readKeys(ctx, t, keysBase+int(t.ValueOrOffset)); err != nil {
				return nil, wrapError(err, SECTION_MOTIONS, iMotion, keysBase+int(t.ValueOrOffset))
			}
		}
		ctx.log.Section(SECTION_MOTIONS.String()).Printf("%d %q: %d tracks, length %v", iMotion, m.Name, len(m.Tracks), m.Length)
	}
	return motions, nil
}

// ConstantValue returns inline value of constant curve
func (t *Track) ConstantValue() float32 {
	return math.Float32frombits(t.ValueOrOffset)
}
