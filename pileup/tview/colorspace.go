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
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/tview/pileup"
)

// Aux tags of two-base-encoded (SOLiD) reads: the color calls, starting with
// the primer base, and their qualities.
var (
	csTag = sam.NewTag("CS")
	cqTag = sam.NewTag("CQ")
)

func auxString(rec *sam.Record, tag sam.Tag) []byte {
	aux := rec.AuxFields.Get(tag)
	if aux == nil {
		return nil
	}
	if s, ok := aux.Value().(string); ok {
		return []byte(s)
	}
	return nil
}

// colorOf returns the color that encodes the transition from base a to base
// b, '4' if either is not A/C/G/T.
func colorOf(a, b byte) byte {
	ea, eb := pileup.ASCIIToEnumTable[a], pileup.ASCIIToEnumTable[b]
	if ea == pileup.BaseX || eb == pileup.BaseX {
		return '4'
	}
	return "0123"[ea^eb]
}

// complement of an A/C/G/T/X enum.
var complementASCII = [...]byte{'T', 'G', 'C', 'A', 'N'}

// csIndex maps a query offset to an index into the CS tag.  The CS tag is in
// sequencing order, so reverse-strand reads count from its end; a leading hard
// clip is not part of the query.  The forward strand skips the primer base.
func (r *activeRead) csIndex(i int) int {
	if r.strand == pileup.StrandRev {
		return len(r.cs) - 1 - i - r.hardClip
	}
	return i + 1
}

// cqIndex is csIndex for the CQ tag, which has no primer entry.
func (r *activeRead) cqIndex(i int) int {
	if r.strand == pileup.StrandRev {
		return len(r.cq) - 1 - i - r.hardClip
	}
	return i
}

func (r *activeRead) color(i int) byte {
	ci := r.csIndex(i)
	if ci < 0 || ci >= len(r.cs) {
		return 0
	}
	return r.cs[ci]
}

// colorQual returns the decoded quality of the color at query offset i, 0 if
// there is none.
func (r *activeRead) colorQual(i int) byte {
	ci := r.cqIndex(i)
	if ci < 0 || ci >= len(r.cq) || r.cq[ci] < 33 {
		return 0
	}
	return r.cq[ci] - 33
}

// colorError compares the color call at query offset i with the color implied
// by the decoded bases.  It returns '-' if they agree, the implied color if
// not, and 0 when the read has no usable CS tag.
func (r *activeRead) colorError(i int) byte {
	ci := r.csIndex(i)
	if ci < 1 || ci >= len(r.cs) || i < 0 || i >= len(r.seq8) {
		return 0
	}
	cur := pileup.Seq8ToASCIITable[r.seq8[i]]
	var prev byte
	if r.strand == pileup.StrandRev {
		if ci == 1 {
			prev = complementASCII[pileup.ASCIIToEnumTable[r.cs[0]]]
		} else if i+1 < len(r.seq8) {
			prev = pileup.Seq8ToASCIITable[r.seq8[i+1]]
		} else {
			return 0
		}
	} else {
		if i == 0 {
			prev = r.cs[0]
		} else {
			prev = pileup.Seq8ToASCIITable[r.seq8[i-1]]
		}
	}
	if c := colorOf(prev, cur); c != r.cs[ci] {
		return c
	}
	return '-'
}

// Color returns the color call at query offset Qpos+j, 0 if the read has
// none.
func (p *ReadOverlap) Color(j int) byte { return p.read.color(p.Qpos + j) }

// ColorError is '-' if the color call at Qpos+j agrees with the read bases,
// otherwise the color implied by the bases (0 if there is no color call).
func (p *ReadOverlap) ColorError(j int) byte { return p.read.colorError(p.Qpos + j) }

// ColorQual returns the quality of the color call at Qpos+j.
func (p *ReadOverlap) ColorQual(j int) byte { return p.read.colorQual(p.Qpos + j) }
