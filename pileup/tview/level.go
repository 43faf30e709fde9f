// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tview

import "github.com/biogo/store/llrb"

type level int

// Compare implements llrb.Comparable.
func (l level) Compare(c llrb.Comparable) int {
	return int(l) - int(c.(level))
}

// levelAllocator hands out stacking levels, always the lowest one that is not
// held.  Levels below next that are not held sit in free.
type levelAllocator struct {
	free llrb.Tree
	next int
}

func (a *levelAllocator) alloc() int {
	if a.free.Len() > 0 {
		l := a.free.Min().(level)
		a.free.DeleteMin()
		return int(l)
	}
	a.next++
	return a.next - 1
}

func (a *levelAllocator) release(l int) {
	a.free.Insert(level(l))
}

// depth is the number of levels ever handed out.
func (a *levelAllocator) depth() int { return a.next }
