package rlp

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type testRec struct {
	Key  [4]byte
	ID   uint64
	Tag  []byte
	Val  uint256.Int
	Note []byte // trailing
}

var testRecSchema = &Schema[testRec]{
	Name: "testRec",
	Fields: []Field[testRec]{
		FixedBytes("key", 4, func(r *testRec, b []byte) { copy(r.Key[:], b) }),
		Uint64("id", 64, func(r *testRec, v uint64) { r.ID = v }),
		Bytes("tag", func(r *testRec, b []byte) error { r.Tag = append([]byte(nil), b...); return nil }),
		Uint("val", 256, func(r *testRec, x *uint256.Int) { r.Val = *x }),
	},
	Trailing: []Field[testRec]{
		Bytes("note", func(r *testRec, b []byte) error { r.Note = append([]byte(nil), b...); return nil }),
	},
}

type testOuter struct {
	Rec  *testRec
	Recs []*testRec
}

var testOuterSchema = &Schema[testOuter]{
	Name: "testOuter",
	Fields: []Field[testOuter]{
		Nested("rec", testRecSchema, func(o *testOuter, r *testRec) { o.Rec = r }),
		NestedList("recs", testRecSchema, func(o *testOuter, rs []*testRec) { o.Recs = rs }),
	},
}

func str(b ...byte) Item  { return Item{str: b} }
func list(c ...Item) Item { return Item{list: true, children: c} }

func TestMapRecord(t *testing.T) {
	require := require.New(t)

	it := list(str(1, 2, 3, 4), str(0x04), str(0xde, 0xad), str(0x01, 0x00))
	var r testRec
	require.NoError(Map(testRecSchema, it, TrailingStrict, &r))
	require.Equal([4]byte{1, 2, 3, 4}, r.Key)
	require.Equal(uint64(4), r.ID)
	require.Equal([]byte{0xde, 0xad}, r.Tag)
	require.Equal(uint256.NewInt(256), &r.Val)
	require.Nil(r.Note)
}

func TestMapRejectsStringItem(t *testing.T) {
	var r testRec
	err := Map(testRecSchema, str(0x01), TrailingStrict, &r)
	require.ErrorIs(t, err, ErrUnexpectedKind)
}

func TestMapFieldCount(t *testing.T) {
	require := require.New(t)

	it := list(str(1, 2, 3, 4), str(0x04), str(0xde, 0xad)) // one child short
	var r testRec
	err := Map(testRecSchema, it, TrailingStrict, &r)
	var fieldCount *FieldCountError
	require.ErrorAs(err, &fieldCount)
	require.Equal("testRec", fieldCount.Type)
	require.Equal(4, fieldCount.Expected)
	require.Equal(3, fieldCount.Got)
}

func TestMapFixedSize(t *testing.T) {
	require := require.New(t)

	it := list(str(1, 2, 3), str(0x04), str(0xde, 0xad), str(0x05)) // key is 3 bytes
	var r testRec
	err := Map(testRecSchema, it, TrailingStrict, &r)
	var fixedSize *FixedSizeError
	require.ErrorAs(err, &fixedSize)
	require.Equal("key", fixedSize.Field)
	require.Equal(4, fixedSize.Expected)
	require.Equal(3, fixedSize.Got)
}

func TestMapKindMismatch(t *testing.T) {
	it := list(list(), str(0x04), str(0xde, 0xad), str(0x05)) // key is a list
	var r testRec
	err := Map(testRecSchema, it, TrailingStrict, &r)
	require.ErrorIs(t, err, ErrUnexpectedKind)
}

func TestMapIntegerChecks(t *testing.T) {
	require := require.New(t)

	// leading zero
	it := list(str(1, 2, 3, 4), str(0x00, 0x05), str(0xde), str(0x05))
	var r testRec
	require.ErrorIs(Map(testRecSchema, it, TrailingStrict, &r), ErrNonCanonicalInt)

	// wider than 64 bits
	it = list(str(1, 2, 3, 4), str(1, 0, 0, 0, 0, 0, 0, 0, 0), str(0xde), str(0x05))
	require.ErrorIs(Map(testRecSchema, it, TrailingStrict, &r), ErrIntTooLarge)
}

func TestMapTrailing(t *testing.T) {
	require := require.New(t)

	mandatory := []Item{str(1, 2, 3, 4), str(0x04), str(0xde), str(0x05)}

	// matching trailing field is mapped
	var r testRec
	require.NoError(Map(testRecSchema, list(append(mandatory, str(0xbe, 0xef))...), TrailingStrict, &r))
	require.Equal([]byte{0xbe, 0xef}, r.Note)

	// a child beyond the declared trailing set is rejected under strict
	r = testRec{}
	err := Map(testRecSchema, list(append(mandatory, str(0xbe, 0xef), str(0x01))...), TrailingStrict, &r)
	var fieldCount *FieldCountError
	require.ErrorAs(err, &fieldCount)
	require.Equal(5, fieldCount.Expected)
	require.Equal(6, fieldCount.Got)

	// and ignored under tolerant
	r = testRec{}
	require.NoError(Map(testRecSchema, list(append(mandatory, str(0xbe, 0xef), str(0x01))...), TrailingTolerant, &r))
	require.Equal([]byte{0xbe, 0xef}, r.Note)
}

func TestMapNested(t *testing.T) {
	require := require.New(t)

	rec := list(str(1, 2, 3, 4), str(0x04), str(0xde), str(0x05))
	other := list(str(4, 3, 2, 1), str(0x09), str(0xad), str(0x06))

	var o testOuter
	require.NoError(Map(testOuterSchema, list(rec, list(rec, other)), TrailingStrict, &o))
	require.NotNil(o.Rec)
	require.Equal(uint64(4), o.Rec.ID)
	require.Len(o.Recs, 2)
	require.Equal(uint64(9), o.Recs[1].ID)
	require.Equal([4]byte{4, 3, 2, 1}, o.Recs[1].Key)

	// empty nested list
	o = testOuter{}
	require.NoError(Map(testOuterSchema, list(rec, list()), TrailingStrict, &o))
	require.Empty(o.Recs)

	// nested list element errors propagate
	bad := list(str(1, 2, 3), str(0x09), str(0xad), str(0x06))
	err := Map(testOuterSchema, list(rec, list(bad)), TrailingStrict, &o)
	var fixedSize *FixedSizeError
	require.ErrorAs(err, &fixedSize)
	require.Equal("key", fixedSize.Field)
}
