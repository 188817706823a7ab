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
	"encoding/binary"
	"math/bits"

	"github.com/holiman/uint256"
)

// Write path. The rlp package doesn't manage memory - the caller must ensure
// buffers are big enough. Functions that compute sizes are pure and cheap, so
// encoders call them twice: once to size the buffer, once while writing.

// ListPrefixLen returns the length of the prefix for a list payload of dataLen bytes.
func ListPrefixLen(dataLen int) int {
	if dataLen >= 56 {
		return 1 + (bits.Len64(uint64(dataLen))+7)/8
	}
	return 1
}

// EncodeListPrefix writes the list prefix for a payload of dataLen bytes.
func EncodeListPrefix(dataLen int, to []byte) int {
	if dataLen >= 56 {
		beLen := (bits.Len64(uint64(dataLen)) + 7) / 8
		to[0] = 0xF7 + byte(beLen)
		for i := 0; i < beLen; i++ {
			to[1+i] = byte(dataLen >> (8 * (beLen - 1 - i)))
		}
		return 1 + beLen
	}
	to[0] = 0xC0 + byte(dataLen)
	return 1
}

// U64Len returns the encoded length of i.
func U64Len(i uint64) int {
	if i >= 128 {
		return 1 + (bits.Len64(i)+7)/8
	}
	return 1
}

// EncodeU64 writes the canonical minimal big-endian encoding of i.
func EncodeU64(i uint64, to []byte) int {
	if i >= 128 {
		beLen := (bits.Len64(i) + 7) / 8
		to[0] = 0x80 + byte(beLen)
		var be [8]byte
		binary.BigEndian.PutUint64(be[:], i)
		copy(to[1:], be[8-beLen:])
		return 1 + beLen
	}
	if i == 0 {
		to[0] = 0x80
		return 1
	}
	to[0] = byte(i)
	return 1
}

// U256Len returns the encoded length of x.
func U256Len(x *uint256.Int) int {
	if x.IsUint64() {
		return U64Len(x.Uint64())
	}
	return 1 + (x.BitLen()+7)/8
}

// EncodeU256 writes the canonical minimal big-endian encoding of x.
func EncodeU256(x *uint256.Int, to []byte) int {
	return EncodeString(x.Bytes(), to)
}

// StringLen returns the encoded length of the string s.
func StringLen(s []byte) int {
	switch {
	case len(s) >= 56:
		return 1 + (bits.Len64(uint64(len(s)))+7)/8 + len(s)
	case len(s) == 1 && s[0] < 0x80:
		return 1
	default:
		return 1 + len(s)
	}
}

// EncodeString writes the canonical encoding of the string s.
func EncodeString(s []byte, to []byte) int {
	switch {
	case len(s) >= 56:
		beLen := (bits.Len64(uint64(len(s))) + 7) / 8
		to[0] = 0xB7 + byte(beLen)
		for i := 0; i < beLen; i++ {
			to[1+i] = byte(len(s) >> (8 * (beLen - 1 - i)))
		}
		copy(to[1+beLen:], s)
		return 1 + beLen + len(s)
	case len(s) == 0:
		to[0] = 0x80
		return 1
	case len(s) == 1 && s[0] < 0x80:
		to[0] = s[0]
		return 1
	default:
		to[0] = 0x80 + byte(len(s))
		copy(to[1:], s)
		return 1 + len(s)
	}
}
