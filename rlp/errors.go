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
	"errors"
	"fmt"
)

var (
	// ErrUnderflow means a size prefix declared more payload than the buffer holds.
	ErrUnderflow = errors.New("rlp: buffer underflow")
	// ErrNonCanonicalSize means a value was encoded with a longer form than the
	// minimal one the format requires.
	ErrNonCanonicalSize = errors.New("rlp: non-canonical size information")
	// ErrNonCanonicalInt means an integer was encoded with leading zero bytes.
	ErrNonCanonicalInt = errors.New("rlp: non-canonical integer")
	// ErrUnexpectedKind means a string was found where a list was required, or
	// the other way around.
	ErrUnexpectedKind = errors.New("rlp: unexpected item kind")
	// ErrIntTooLarge means an integer field exceeds its declared bit width.
	ErrIntTooLarge = errors.New("rlp: integer larger than declared width")
	// ErrTooDeep means lists nested beyond the supported depth.
	ErrTooDeep = errors.New("rlp: list nesting too deep")
)

// FieldCountError reports a record whose child count is below the mandatory
// arity of its schema, or above it under the strict trailing policy.
type FieldCountError struct {
	Type     string
	Expected int
	Got      int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("rlp: %s must have %d fields, got %d", e.Type, e.Expected, e.Got)
}

// FixedSizeError reports a fixed-width field whose payload has the wrong length.
type FixedSizeError struct {
	Field    string
	Expected int
	Got      int
}

func (e *FixedSizeError) Error() string {
	return fmt.Sprintf("rlp: wrong size for %s: expected %d, got %d", e.Field, e.Expected, e.Got)
}
