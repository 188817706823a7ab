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

import "fmt"

// Item is one decoded RLP value: either a string (a flat byte view into the
// input buffer) or an ordered list of child items. Items are transient - they
// live for one decode step, get mapped into a typed record, and are discarded.
// They never own memory; string payloads alias the input buffer.
type Item struct {
	list     bool
	str      []byte
	children []Item
}

func (it Item) IsList() bool     { return it.list }
func (it Item) Str() []byte      { return it.str }
func (it Item) Children() []Item { return it.children }

// maxDepth bounds list recursion in Parse. Real chain data nests a handful of
// levels; anything deeper is a crafted input and is rejected before it can
// exhaust the stack.
const maxDepth = 1024

// Parse decodes one complete item at the given position and returns the item
// together with the position right past it. Lists are decoded by repeated
// application of the same rule over their payload region; a child that crosses
// the region boundary is an underflow, a list nested deeper than maxDepth is
// ErrTooDeep. One descent pass, no backtracking.
func Parse(payload []byte, pos int) (Item, int, error) {
	return parse(payload, pos, 0)
}

func parse(payload []byte, pos, depth int) (Item, int, error) {
	dataPos, dataLen, isList, err := Prefix(payload, pos)
	if err != nil {
		return Item{}, 0, err
	}
	end := dataPos + dataLen
	if !isList {
		return Item{str: payload[dataPos:end]}, end, nil
	}
	if depth >= maxDepth {
		return Item{}, 0, fmt.Errorf("%w: more than %d levels at %d", ErrTooDeep, maxDepth, pos)
	}
	it := Item{list: true}
	// children may not read past the list payload
	region := payload[:end]
	for p := dataPos; p < end; {
		var child Item
		child, p, err = parse(region, p, depth+1)
		if err != nil {
			return Item{}, 0, err
		}
		it.children = append(it.children, child)
	}
	return it, end, nil
}
