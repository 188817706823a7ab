/*
   Copyright 2024 Erigon contributors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package rlp

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Schema-driven decoding. A record type describes itself once as an ordered
// list of field kinds; one generic mapper interprets that description against
// a decoded Item. No reflection - field assignment happens through typed
// setter closures bound when the schema value is constructed.

// TrailingPolicy controls what happens to children beyond a schema's mandatory
// fields once the declared trailing fields are exhausted.
type TrailingPolicy uint8

const (
	// TrailingStrict rejects children that match no declared trailing field.
	TrailingStrict TrailingPolicy = iota
	// TrailingTolerant ignores children that match no declared trailing field.
	TrailingTolerant
)

// Kind is the tagged field-kind variant a schema is built from.
type Kind uint8

const (
	KindFixedBytes Kind = iota // string of exactly Width bytes
	KindUint                   // canonical big-endian unsigned, at most MaxBits wide
	KindBytes                  // opaque string, any length
	KindNested                 // embedded record (list)
	KindNestedList             // sequence of embedded records (list of lists)
)

// Field describes one positional field of a record. Width and MaxBits
// parameterize the kind; set assigns the checked child to the record.
type Field[T any] struct {
	Name    string
	Kind    Kind
	Width   int // KindFixedBytes: exact payload width
	MaxBits int // KindUint: maximum bit width
	set     func(*T, Item, TrailingPolicy) error
}

// Schema is the ordered field description of exactly one record type.
// Fields are mandatory and consumed strictly by position. Trailing fields are
// well-known optional extensions that newer format revisions append; they are
// matched in order when present. Check, when set, runs after mapping and
// carries domain-level validation that is distinct from decode errors.
type Schema[T any] struct {
	Name     string
	Fields   []Field[T]
	Trailing []Field[T]
	Check    func(*T) error
}

// Map interprets it against the schema and fills dst. The input item must be a
// list; children are consumed by position. Decoding is fail-fast: the first
// field error aborts the record.
func Map[T any](s *Schema[T], it Item, policy TrailingPolicy, dst *T) error {
	if !it.IsList() {
		return fmt.Errorf("%w: %s must be a list, not string", ErrUnexpectedKind, s.Name)
	}
	children := it.Children()
	if len(children) < len(s.Fields) {
		return &FieldCountError{Type: s.Name, Expected: len(s.Fields), Got: len(children)}
	}
	for i := range s.Fields {
		if err := s.Fields[i].mapInto(children[i], policy, dst); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	extra := children[len(s.Fields):]
	for i := range extra {
		if i >= len(s.Trailing) {
			if policy == TrailingTolerant {
				break
			}
			return &FieldCountError{Type: s.Name, Expected: len(s.Fields) + len(s.Trailing), Got: len(children)}
		}
		if err := s.Trailing[i].mapInto(extra[i], policy, dst); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	if s.Check != nil {
		return s.Check(dst)
	}
	return nil
}

func (f *Field[T]) mapInto(it Item, policy TrailingPolicy, dst *T) error {
	switch f.Kind {
	case KindFixedBytes:
		if it.IsList() {
			return fmt.Errorf("%w: %s must be a string, not list", ErrUnexpectedKind, f.Name)
		}
		if len(it.Str()) != f.Width {
			return &FixedSizeError{Field: f.Name, Expected: f.Width, Got: len(it.Str())}
		}
	case KindUint:
		if it.IsList() {
			return fmt.Errorf("%w: %s must be a string, not list", ErrUnexpectedKind, f.Name)
		}
		b := it.Str()
		if maxBytes := (f.MaxBits + 7) / 8; len(b) > maxBytes {
			return fmt.Errorf("%w: %s must not be more than %d bytes long, got %d", ErrIntTooLarge, f.Name, maxBytes, len(b))
		}
		if len(b) > 0 && b[0] == 0 {
			return fmt.Errorf("%w: %s must not have leading zeros: %x", ErrNonCanonicalInt, f.Name, b)
		}
	case KindBytes:
		if it.IsList() {
			return fmt.Errorf("%w: %s must be a string, not list", ErrUnexpectedKind, f.Name)
		}
	case KindNested, KindNestedList:
		if !it.IsList() {
			return fmt.Errorf("%w: %s must be a list, not string", ErrUnexpectedKind, f.Name)
		}
	}
	return f.set(dst, it, policy)
}

// FixedBytes declares a string field of exactly width bytes.
func FixedBytes[T any](name string, width int, set func(*T, []byte)) Field[T] {
	return Field[T]{Name: name, Kind: KindFixedBytes, Width: width,
		set: func(dst *T, it Item, _ TrailingPolicy) error {
			set(dst, it.Str())
			return nil
		}}
}

// Uint declares an unsigned integer field of at most maxBits bits, materialized
// as a 256-bit integer.
func Uint[T any](name string, maxBits int, set func(*T, *uint256.Int)) Field[T] {
	return Field[T]{Name: name, Kind: KindUint, MaxBits: maxBits,
		set: func(dst *T, it Item, _ TrailingPolicy) error {
			var x uint256.Int
			x.SetBytes(it.Str())
			set(dst, &x)
			return nil
		}}
}

// Uint64 declares an unsigned integer field of at most maxBits bits (maxBits
// must be 64 or less), materialized as a uint64.
func Uint64[T any](name string, maxBits int, set func(*T, uint64)) Field[T] {
	if maxBits > 64 {
		panic("rlp: Uint64 field wider than 64 bits")
	}
	return Field[T]{Name: name, Kind: KindUint, MaxBits: maxBits,
		set: func(dst *T, it Item, _ TrailingPolicy) error {
			var r uint64
			for _, b := range it.Str() {
				r = (r << 8) | uint64(b)
			}
			set(dst, r)
			return nil
		}}
}

// Bytes declares an opaque string field. The setter may reject the payload,
// which lets callers fold field-specific bounds into the schema.
func Bytes[T any](name string, set func(*T, []byte) error) Field[T] {
	return Field[T]{Name: name, Kind: KindBytes,
		set: func(dst *T, it Item, _ TrailingPolicy) error {
			return set(dst, it.Str())
		}}
}

// Nested declares an embedded record field mapped against elem.
func Nested[T, E any](name string, elem *Schema[E], set func(*T, *E)) Field[T] {
	return Field[T]{Name: name, Kind: KindNested,
		set: func(dst *T, it Item, policy TrailingPolicy) error {
			e := new(E)
			if err := Map(elem, it, policy, e); err != nil {
				return err
			}
			set(dst, e)
			return nil
		}}
}

// NestedList declares a field holding a sequence of embedded records, each
// mapped against elem in encounter order.
func NestedList[T, E any](name string, elem *Schema[E], set func(*T, []*E)) Field[T] {
	return Field[T]{Name: name, Kind: KindNestedList,
		set: func(dst *T, it Item, policy TrailingPolicy) error {
			children := it.Children()
			if len(children) == 0 {
				set(dst, nil)
				return nil
			}
			es := make([]*E, len(children))
			for i := range children {
				e := new(E)
				if err := Map(elem, children[i], policy, e); err != nil {
					return err
				}
				es[i] = e
			}
			set(dst, es)
			return nil
		}}
}
