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
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/tview/encoding/bamprovider"
)

// levelsOf runs an Assembler over reads in window [start, start+width) and
// returns the stacking level of every read name, and the positions of the
// columns.
func levelsOf(t *testing.T, reads []testRead, start, width int) (map[string]int, []int) {
	header := newTestHeader(t)
	ref := header.Refs()[0]
	p := bamprovider.NewFakeProvider(header, newRecords(t, ref, reads))
	opts := DefaultOpts
	iter := p.NewIterator(ref, start, start+width)
	a := NewAssembler(iter, Window{Ref: ref, Start: start, Width: width}, &opts)
	levels := map[string]int{}
	var positions []int
	for a.Scan() {
		col := a.Column()
		positions = append(positions, col.Pos)
		for i := range col.Reads {
			r := &col.Reads[i]
			name := r.Record().Name
			if l, ok := levels[name]; ok {
				expect.EQ(t, r.Level, l, "read %s changed level at %d", name, col.Pos)
			}
			levels[name] = r.Level
		}
	}
	assert.NoError(t, a.Err())
	assert.NoError(t, iter.Close())
	return levels, positions
}

var stackReads = []testRead{
	{name: "A", pos: 0, cigar: "10M", seq: "ACGTACGTAC"},
	{name: "B", pos: 5, cigar: "10M", seq: "CGTACGTACG"},
	{name: "C", pos: 12, cigar: "5M", seq: "ACGTA"},
	{name: "D", pos: 14, cigar: "3M", seq: "GTA"},
	{name: "E", pos: 40, cigar: "2M", seq: "AC"},
}

func TestAssemblerStacking(t *testing.T) {
	levels, positions := levelsOf(t, stackReads, 0, 50)
	expect.EQ(t, levels, map[string]int{"A": 0, "B": 1, "C": 0, "D": 2, "E": 0})
	var want []int
	for pos := 0; pos < 17; pos++ {
		want = append(want, pos)
	}
	want = append(want, 40, 41)
	expect.EQ(t, positions, want)
}

func TestAssemblerStackingLeftOfWindow(t *testing.T) {
	// A does not overlap the window, so B gets level 0.
	levels, positions := levelsOf(t, stackReads, 12, 10)
	expect.EQ(t, levels, map[string]int{"B": 0, "C": 1, "D": 2})
	expect.EQ(t, positions, []int{12, 13, 14, 15, 16})
}

func TestAssemblerWindowEnd(t *testing.T) {
	levels, positions := levelsOf(t, stackReads, 0, 3)
	expect.EQ(t, levels, map[string]int{"A": 0})
	expect.EQ(t, positions, []int{0, 1, 2})
}

// columnAt returns the overlap of the only read at pos.
func columnAt(t *testing.T, r testRead, opts Opts, pos int) (ReadOverlap, int) {
	header := newTestHeader(t)
	ref := header.Refs()[0]
	iter := &sliceIterator{recs: []*sam.Record{newRecord(t, ref, r)}}
	a := NewAssembler(iter, Window{Ref: ref, Start: 0, Width: 100}, &opts)
	for a.Scan() {
		col := a.Column()
		if col.Pos == pos {
			assert.EQ(t, len(col.Reads), 1)
			return col.Reads[0], col.MaxIns
		}
	}
	assert.NoError(t, a.Err())
	t.Fatalf("no column at %d", pos)
	return ReadOverlap{}, 0
}

func TestAssemblerIndels(t *testing.T) {
	opts := DefaultOpts
	ins := testRead{name: "ins", pos: 0, cigar: "2S3M2I3M", seq: "TTACGGGTAC"}
	p, maxIns := columnAt(t, ins, opts, 2)
	expect.EQ(t, p.Indel, 2)
	expect.EQ(t, maxIns, 2)
	expect.EQ(t, p.Qpos, 4)
	expect.EQ(t, p.Base(0), byte('G'))
	expect.EQ(t, p.Base(1), byte('G'))
	expect.EQ(t, p.Base(2), byte('G'))
	p, _ = columnAt(t, ins, opts, 3)
	expect.EQ(t, p.Qpos, 7)
	expect.EQ(t, p.Base(0), byte('T'))

	padded := testRead{name: "pad", pos: 0, cigar: "2M1I1P1I2M", seq: "ACTTGT"}
	p, maxIns = columnAt(t, padded, opts, 1)
	expect.EQ(t, p.Indel, 2)
	expect.EQ(t, maxIns, 2)

	del := testRead{name: "del", pos: 0, cigar: "3M2D3M", seq: "ACGCGT"}
	p, maxIns = columnAt(t, del, opts, 2)
	expect.EQ(t, p.Indel, -2)
	expect.EQ(t, maxIns, 0)
	p, _ = columnAt(t, del, opts, 3)
	expect.True(t, p.IsDel)
	expect.False(t, p.IsRefSkip)
	expect.EQ(t, p.Qpos, 3)
	p, _ = columnAt(t, del, opts, 5)
	expect.False(t, p.IsDel)
	expect.EQ(t, p.Base(0), byte('C'))

	skip := testRead{name: "skip", pos: 0, cigar: "2M3N2M", seq: "ACTA"}
	p, _ = columnAt(t, skip, opts, 3)
	expect.True(t, p.IsDel)
	expect.True(t, p.IsRefSkip)
	opts.NoSkip = true
	p, _ = columnAt(t, skip, opts, 3)
	expect.True(t, p.IsDel)
	expect.False(t, p.IsRefSkip)
	p, _ = columnAt(t, skip, opts, 1)
	expect.EQ(t, p.Indel, -3)
}

func TestAssemblerFilters(t *testing.T) {
	reads := []testRead{
		{name: "dup", pos: 0, cigar: "4M", seq: "ACGT", flags: sam.Duplicate},
		{name: "secondary", pos: 0, cigar: "4M", seq: "ACGT", flags: sam.Secondary},
		{name: "lowq", pos: 0, cigar: "4M", seq: "ACGT", mapq: 5},
		{name: "good", pos: 1, cigar: "4M", seq: "CGTA"},
	}
	header := newTestHeader(t)
	ref := header.Refs()[0]
	opts := DefaultOpts
	opts.MinMapQ = 10
	a := NewAssembler(&sliceIterator{recs: newRecords(t, ref, reads)}, Window{Ref: ref, Start: 0, Width: 10}, &opts)
	var names []string
	for a.Scan() {
		for i := range a.Column().Reads {
			names = append(names, a.Column().Reads[i].Record().Name)
		}
	}
	assert.NoError(t, a.Err())
	expect.EQ(t, names, []string{"good", "good", "good", "good"})
}

func TestAssemblerIntegrity(t *testing.T) {
	header := newTestHeader(t)
	chr1, chr2 := header.Refs()[0], header.Refs()[1]
	w := Window{Ref: chr1, Start: 0, Width: 20}
	opts := DefaultOpts

	outOfOrder := newRecords(t, chr1, []testRead{
		{name: "r1", pos: 5, cigar: "3M", seq: "ACG"},
		{name: "r2", pos: 2, cigar: "3M", seq: "ACG"},
	})
	otherRef := []*sam.Record{newRecord(t, chr2, testRead{name: "r3", pos: 0, cigar: "3M", seq: "ACG"})}
	badSeq := newRecord(t, chr1, testRead{name: "r4", pos: 0, cigar: "3M", seq: "ACG"})
	badSeq.Seq = sam.NewSeq([]byte("AC"))
	badSeq.Qual = badSeq.Qual[:2]

	for _, recs := range [][]*sam.Record{outOfOrder, otherRef, {badSeq}} {
		a := NewAssembler(&sliceIterator{recs: recs}, w, &opts)
		for a.Scan() {
		}
		expect.True(t, errors.Is(errors.Integrity, a.Err()), "err: %v", a.Err())
	}
}

func TestAssemblerIteratorError(t *testing.T) {
	header := newTestHeader(t)
	w := Window{Ref: header.Refs()[0], Start: 0, Width: 20}
	opts := DefaultOpts
	a := NewAssembler(bamprovider.NewErrorIterator(errors.E(errors.NotExist, "index missing")), w, &opts)
	expect.False(t, a.Scan())
	expect.True(t, a.Err() != nil)
	expect.HasSubstr(t, a.Err().Error(), "index missing")
}

func TestColorSpace(t *testing.T) {
	opts := DefaultOpts
	fwd := testRead{name: "cs", pos: 0, cigar: "4M", seq: "ACGT",
		aux: []sam.Aux{newAux(t, "CS", "T3121"), newAux(t, "CQ", "+5?I")}}
	p, _ := columnAt(t, fwd, opts, 0)
	expect.EQ(t, p.Color(0), byte('3'))
	expect.EQ(t, p.ColorError(0), byte('-'))
	expect.EQ(t, p.ColorQual(0), byte(10))
	p, _ = columnAt(t, fwd, opts, 2)
	expect.EQ(t, p.Color(0), byte('2'))
	expect.EQ(t, p.ColorError(0), byte('3'))
	expect.EQ(t, p.ColorQual(0), byte(30))

	// Sequenced as ACGT (primer T), stored reverse-complemented.
	rev := testRead{name: "csrev", pos: 0, cigar: "4M", seq: "ACGT", reverse: true,
		aux: []sam.Aux{newAux(t, "CS", "T3131")}}
	p, _ = columnAt(t, rev, opts, 3)
	expect.EQ(t, p.Color(0), byte('3'))

	plain := testRead{name: "plain", pos: 0, cigar: "4M", seq: "ACGT"}
	p, _ = columnAt(t, plain, opts, 1)
	expect.EQ(t, p.Color(0), byte(0))
	expect.EQ(t, p.ColorError(0), byte(0))
	expect.EQ(t, p.ColorQual(0), byte(0))
}
