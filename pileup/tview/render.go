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

// rulerStep is the spacing of ruler labels, in reference positions.
const rulerStep = 10

// renderer draws the columns of one pass into a Screen.
type renderer struct {
	opts   *Opts
	screen *Screen
	ref    refSlice
	caller consensusCaller
	// ccol is the next display column, lastPos the last reference position
	// drawn.
	ccol    int
	lastPos int
	calls   []ColumnCall
}

func (r *renderer) reset(start int, bases []byte) {
	r.screen.Clear()
	if r.opts.Painter != nil {
		r.opts.Painter.Clear(r.screen.Width())
	}
	r.ref = refSlice{start: start, bases: bases}
	r.ccol = 0
	r.lastPos = start - 1
	// Calls escape into the Pass, so every pass gets its own slice.
	r.calls = nil
}

func (r *renderer) full() bool { return r.ccol >= r.screen.Width() }

func (r *renderer) ruler(pos int) {
	if pos%rulerStep == 0 && r.screen.Width()-r.ccol >= rulerStep {
		r.screen.Printf(rulerRow, r.ccol, "%d", pos+1)
	}
}

// refColumn draws a position that no read covers.
func (r *renderer) refColumn(pos int) {
	r.ruler(pos)
	r.screen.Set(refRow, r.ccol, r.ref.at(pos))
	r.ccol++
	r.lastPos = pos
}

// fillTo draws reference-only columns up to, but excluding, end.
func (r *renderer) fillTo(end int) {
	for pos := r.lastPos + 1; pos < end && !r.full(); pos++ {
		r.refColumn(pos)
	}
}

// column draws col, preceded by any uncovered positions since the last one.
func (r *renderer) column(col *Column) {
	if col.Pos < r.ref.start {
		return
	}
	r.fillTo(col.Pos)
	if r.full() {
		return
	}
	rb := r.ref.at(col.Pos)
	call := r.caller.call(col, rb)
	r.calls = append(r.calls, ColumnCall{Pos: col.Pos, Call: call})
	if r.opts.Painter != nil {
		r.opts.Painter.PaintConsensus(r.ccol, call)
	}
	r.ruler(col.Pos)
	maxIns := 0
	if r.opts.Insertions {
		maxIns = col.MaxIns
	}
	for j := 0; j <= maxIns; j++ {
		for i := range col.Reads {
			p := &col.Reads[i]
			row := stackRow + p.Level
			c := r.readChar(p, j, rb)
			r.screen.Set(row, r.ccol, c)
			if r.opts.Painter != nil {
				r.opts.Painter.PaintRead(row, r.ccol, c, bucket(r.opts.Quality, p))
			}
		}
		if j == 0 {
			r.screen.Set(refRow, r.ccol, rb)
		} else {
			r.screen.Set(refRow, r.ccol, '*')
		}
		r.ccol++
	}
	r.lastPos = col.Pos
}

func dot(reverse bool) byte {
	if reverse {
		return ','
	}
	return '.'
}

// readChar returns the character of read p in sub-column j of a column whose
// reference base is rb.
func (r *renderer) readChar(p *ReadOverlap, j int, rb byte) byte {
	rev := p.Reverse()
	var c byte
	switch {
	case j == 0 && p.IsRefSkip:
		if rev {
			c = '<'
		} else {
			c = '>'
		}
	case j == 0 && p.IsDel, j > 0 && j > p.Indel:
		c = '*'
	default:
		if r.opts.Mode == ColorSpace {
			if c = p.Color(j); c != 0 && r.opts.Dot && p.ColorError(j) == '-' {
				c = dot(rev)
			}
		}
		if c == 0 {
			if r.opts.ShowName {
				c = p.NameChar(j)
			} else if c = p.Base(j); j == 0 && r.opts.Dot && upper(c) == upper(rb) {
				c = dot(rev)
			}
		}
	}
	if rev {
		return lower(c)
	}
	return upper(c)
}
