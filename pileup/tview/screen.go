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
	"fmt"
	"io"
	"strings"

	"blainsmith.com/go/seahash"
)

// Fixed rows of the screen.
const (
	rulerRow = 0
	refRow   = 1
	// stackRow is the row of stacking level 0.
	stackRow = 2
)

// Screen is a fixed-width grid of characters.  Rows are created on demand,
// filled with spaces, and are never removed during a pass.  Row storage is
// kept across Clear calls.
type Screen struct {
	width int
	nRows int
	rows  [][]byte
}

// NewScreen creates an empty screen with the given width.  The ruler and
// reference rows are always present.
func NewScreen(width int) *Screen {
	s := &Screen{width: width}
	s.Clear()
	return s
}

// Width returns the number of columns.
func (s *Screen) Width() int { return s.width }

// NRows returns the number of rows, including the two fixed rows.
func (s *Screen) NRows() int { return s.nRows }

// Row returns row i.  The slice is owned by the screen and is valid until the
// next Clear.
func (s *Screen) Row(i int) []byte { return s.rows[i] }

// Clear discards all rows and re-reserves the ruler and reference rows.
func (s *Screen) Clear() {
	s.nRows = 0
	s.grow(refRow + 1)
}

// grow makes sure rows [0, n) exist.
func (s *Screen) grow(n int) {
	for s.nRows < n {
		if s.nRows == len(s.rows) {
			s.rows = append(s.rows, make([]byte, s.width))
		}
		row := s.rows[s.nRows]
		for i := range row {
			row[i] = ' '
		}
		s.nRows++
	}
}

// Set writes c at (row, col).  Writes outside [0, width) or to a negative row
// are ignored.
func (s *Screen) Set(row, col int, c byte) {
	if row < 0 || col < 0 || col >= s.width {
		return
	}
	s.grow(row + 1)
	s.rows[row][col] = c
}

// Printf writes a formatted string starting at (row, col), truncated at the
// right edge.
func (s *Screen) Printf(row, col int, format string, args ...interface{}) {
	str := fmt.Sprintf(format, args...)
	for i := 0; i < len(str) && col+i < s.width; i++ {
		s.Set(row, col+i, str[i])
	}
}

// Dump writes every row followed by a newline.
func (s *Screen) Dump(w io.Writer) error {
	for i := 0; i < s.nRows; i++ {
		if _, err := w.Write(s.rows[i]); err != nil {
			return err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return nil
}

// String returns the output of Dump.
func (s *Screen) String() string {
	var b strings.Builder
	_ = s.Dump(&b) // strings.Builder never fails
	return b.String()
}

// Checksum returns the seahash of the output of Dump.
func (s *Screen) Checksum() uint64 {
	h := seahash.New()
	_ = s.Dump(h)
	return h.Sum64()
}
