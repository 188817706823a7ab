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

// Package rlp implements the recursive length-prefix encoding in its canonical
// form: non-minimal encodings are rejected, never normalized.
//
// General design:
//   - parsing functions take a position in the payload and return the new position,
//   - they never copy or mutate the payload, only return views into it,
//   - encoding functions write to a caller-provided buffer and return the written length.
package rlp

import (
	"fmt"

	"github.com/holiman/uint256"
)

// BeInt parses a big-endian integer from payload[pos:pos+length]. It is used
// for length-of-length prefixes, so a leading zero byte is a canonicality
// violation, not a value to be skipped.
func BeInt(payload []byte, pos, length int) (int, error) {
	if pos+length > len(payload) {
		return 0, fmt.Errorf("%w: need %d bytes for length prefix at %d", ErrUnderflow, length, pos)
	}
	if length > 0 && payload[pos] == 0 {
		return 0, fmt.Errorf("%w: length prefix must not have leading zeros: %x", ErrNonCanonicalSize, payload[pos:pos+length])
	}
	if length > 8 {
		return 0, fmt.Errorf("%w: %d-byte length prefix at %d", ErrUnderflow, length, pos)
	}
	var r int
	for _, b := range payload[pos : pos+length] {
		r = (r << 8) | int(b)
	}
	if r < 0 {
		return 0, fmt.Errorf("%w: length prefix overflows at %d", ErrUnderflow, pos)
	}
	return r, nil
}

// Prefix parses the RLP prefix at the given position. It returns the position
// and length of the element's payload, and whether the element is a list.
// The canonicality rules of the format are enforced here: a one-byte string
// below 0x80 must use the single-byte form, and the long form must not be used
// for payloads that fit the short form.
func Prefix(payload []byte, pos int) (dataPos, dataLen int, isList bool, err error) {
	if pos >= len(payload) {
		return 0, 0, false, fmt.Errorf("%w: empty input at %d", ErrUnderflow, pos)
	}
	switch first := payload[pos]; {
	case first < 0x80:
		dataPos = pos
		dataLen = 1
	case first < 0xB8:
		// string of len < 56
		dataPos = pos + 1
		dataLen = int(first) - 0x80
		if dataLen == 1 {
			if dataPos >= len(payload) {
				return 0, 0, false, fmt.Errorf("%w: string at %d cut off", ErrUnderflow, pos)
			}
			if payload[dataPos] < 0x80 {
				return 0, 0, false, fmt.Errorf("%w: single byte below 128 must be encoded as itself at %d", ErrNonCanonicalSize, pos)
			}
		}
	case first < 0xC0:
		// string of len >= 56
		beLen := int(first) - 0xB7
		dataPos = pos + 1 + beLen
		dataLen, err = BeInt(payload, pos+1, beLen)
		if err == nil && dataLen < 56 {
			err = fmt.Errorf("%w: long string form for %d-byte payload at %d", ErrNonCanonicalSize, dataLen, pos)
		}
	case first < 0xF8:
		// list of len < 56
		dataPos = pos + 1
		dataLen = int(first) - 0xC0
		isList = true
	default:
		// list of len >= 56
		beLen := int(first) - 0xF7
		dataPos = pos + 1 + beLen
		dataLen, err = BeInt(payload, pos+1, beLen)
		if err == nil && dataLen < 56 {
			err = fmt.Errorf("%w: long list form for %d-byte payload at %d", ErrNonCanonicalSize, dataLen, pos)
		}
		isList = true
	}
	if err != nil {
		return 0, 0, false, err
	}
	// subtraction form: dataPos+dataLen can overflow for an 8-byte length
	// prefix near MaxInt64
	if dataLen > len(payload)-dataPos {
		return 0, 0, false, fmt.Errorf("%w: %d bytes declared at %d, %d remain", ErrUnderflow, dataLen, pos, len(payload)-dataPos)
	}
	return dataPos, dataLen, isList, nil
}

// U64 parses a canonical uint64 from the payload at the given position.
// The empty string decodes to zero.
func U64(payload []byte, pos int) (int, uint64, error) {
	dataPos, dataLen, isList, err := Prefix(payload, pos)
	if err != nil {
		return 0, 0, err
	}
	if isList {
		return 0, 0, fmt.Errorf("%w: uint64 must be a string, not list", ErrUnexpectedKind)
	}
	if dataLen > 8 {
		return 0, 0, fmt.Errorf("%w: uint64 must not be more than 8 bytes long, got %d", ErrIntTooLarge, dataLen)
	}
	if dataLen > 0 && payload[dataPos] == 0 {
		return 0, 0, fmt.Errorf("%w: integer encoding must not have leading zeros: %x", ErrNonCanonicalInt, payload[dataPos:dataPos+dataLen])
	}
	var r uint64
	for _, b := range payload[dataPos : dataPos+dataLen] {
		r = (r << 8) | uint64(b)
	}
	return dataPos + dataLen, r, nil
}

// U32 parses a canonical uint32 from the payload at the given position.
func U32(payload []byte, pos int) (int, uint32, error) {
	newPos, r, err := U64(payload, pos)
	if err != nil {
		return 0, 0, err
	}
	if r > 0xFFFFFFFF {
		return 0, 0, fmt.Errorf("%w: uint32 must not be more than 4 bytes long", ErrIntTooLarge)
	}
	return newPos, uint32(r), nil
}

// U256 parses a canonical 256-bit unsigned integer into x.
func U256(payload []byte, pos int, x *uint256.Int) (int, error) {
	dataPos, dataLen, isList, err := Prefix(payload, pos)
	if err != nil {
		return 0, err
	}
	if isList {
		return 0, fmt.Errorf("%w: uint256 must be a string, not list", ErrUnexpectedKind)
	}
	if dataLen > 32 {
		return 0, fmt.Errorf("%w: uint256 must not be more than 32 bytes long, got %d", ErrIntTooLarge, dataLen)
	}
	if dataLen > 0 && payload[dataPos] == 0 {
		return 0, fmt.Errorf("%w: integer encoding must not have leading zeros: %x", ErrNonCanonicalInt, payload[dataPos:dataPos+dataLen])
	}
	x.SetBytes(payload[dataPos : dataPos+dataLen])
	return dataPos + dataLen, nil
}

// String parses a string element and returns a view of its payload.
func String(payload []byte, pos int) (int, []byte, error) {
	dataPos, dataLen, isList, err := Prefix(payload, pos)
	if err != nil {
		return 0, nil, err
	}
	if isList {
		return 0, nil, fmt.Errorf("%w: expected a string, got a list", ErrUnexpectedKind)
	}
	return dataPos + dataLen, payload[dataPos : dataPos+dataLen], nil
}
