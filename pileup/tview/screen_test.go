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

import (
	"bytes"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestScreenSet(t *testing.T) {
	s := NewScreen(5)
	expect.EQ(t, s.NRows(), 2)
	s.Set(3, 2, 'x')
	s.Set(0, 5, 'y')
	s.Set(0, -1, 'y')
	s.Set(-1, 0, 'y')
	s.Set(1, 4, 'z')
	expect.EQ(t, s.NRows(), 4)
	expect.EQ(t, rows(s), []string{"     ", "    z", "     ", "  x  "})

	var buf bytes.Buffer
	assert.NoError(t, s.Dump(&buf))
	expect.EQ(t, buf.String(), "     \n    z\n     \n  x  \n")
	expect.EQ(t, s.String(), buf.String())
}

func TestScreenPrintf(t *testing.T) {
	s := NewScreen(6)
	s.Printf(0, 3, "%d", 12345)
	s.Printf(2, 0, "%s", "ab")
	expect.EQ(t, rows(s), []string{"   123", "      ", "ab    "})
}

func TestScreenClear(t *testing.T) {
	s := NewScreen(3)
	s.Set(5, 0, 'a')
	s.Set(0, 0, 'b')
	expect.EQ(t, s.NRows(), 6)
	s.Clear()
	expect.EQ(t, rows(s), []string{"   ", "   "})
	// Rows are blank when they come back.
	s.Set(3, 1, 'c')
	expect.EQ(t, rows(s), []string{"   ", "   ", "   ", " c "})
}

func TestScreenChecksum(t *testing.T) {
	s0, s1 := NewScreen(4), NewScreen(4)
	s0.Set(2, 1, 'a')
	s1.Set(2, 1, 'a')
	expect.EQ(t, s0.Checksum(), s1.Checksum())
	s1.Set(2, 2, 'a')
	expect.True(t, s0.Checksum() != s1.Checksum())
}
