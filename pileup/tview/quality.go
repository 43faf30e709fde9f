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

import "github.com/grailbio/tview/pileup"

// Painter receives the emphasis of every cell the renderer draws.  Buckets
// 0..4 are quality levels (higher is better); buckets 5..9 identify a base or
// color (5+enum).
type Painter interface {
	// Clear is called at the start of every pass with the width of its
	// screen.
	Clear(width int)
	// PaintRead is called for every read cell, after c was written at (row,
	// col).
	PaintRead(row, col int, c byte, bucket int)
	// PaintConsensus is called once per reference column.
	PaintConsensus(col int, call ConsensusCall)
}

// Bucket for the quality-level sources.
func qualityBucket(q int) int {
	b := q/10 + 1
	if b > 4 {
		b = 4
	}
	return b
}

// bucket computes the emphasis bucket of read p from source src.
func bucket(src QualitySource, p *ReadOverlap) int {
	switch src {
	case QualBaseQ:
		return qualityBucket(int(p.Qual(0)))
	case QualNucleotide:
		return int(p.baseEnum(0)) + 5
	case QualColor:
		c := p.Color(0)
		if c >= '0' && c <= '4' {
			return int(c-'0') + 5
		}
		return int(pileup.ASCIIToEnumTable[p.Base(0)]) + 5
	case QualColorQual:
		q := int(p.ColorQual(0))
		if q == 0 {
			q = int(p.Qual(0))
		}
		return qualityBucket(q)
	default:
		return qualityBucket(int(p.MapQ()))
	}
}

// EmphasisGrid is a Painter that records buckets as digits in a grid with the
// geometry of the screen.  Row 1 shows the consensus confidence.
type EmphasisGrid struct {
	*Screen
}

// NewEmphasisGrid creates an EmphasisGrid for a screen of the given width.
func NewEmphasisGrid(width int) *EmphasisGrid {
	return &EmphasisGrid{Screen: NewScreen(width)}
}

// Clear implements Painter.  The grid follows the width of the pass.
func (g *EmphasisGrid) Clear(width int) {
	if width != g.Width() {
		g.Screen = NewScreen(width)
		return
	}
	g.Screen.Clear()
}

// PaintRead implements Painter.
func (g *EmphasisGrid) PaintRead(row, col int, _ byte, bucket int) {
	g.Set(row, col, byte('0'+bucket))
}

// PaintConsensus implements Painter.
func (g *EmphasisGrid) PaintConsensus(col int, call ConsensusCall) {
	g.Set(refRow, col, byte('0'+call.Confidence))
}
