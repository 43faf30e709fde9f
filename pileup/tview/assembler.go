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

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/tview/pileup"
)

// ReadOverlap describes one read at one reference position.
type ReadOverlap struct {
	read *activeRead
	// Qpos is the query offset of the base aligned to the position.  For a
	// deleted position it is the offset of the next aligned base.
	Qpos int
	// Indel is +k when the base is followed by a k-base insertion, -k when it
	// is followed by a k-base deletion, and 0 otherwise.
	Indel int
	// Level is the stacking level of the read.
	Level int
	// IsDel is set when the position is deleted from the read, or skipped.
	IsDel bool
	// IsRefSkip is set when the position is skipped ('N' CIGAR operation).
	IsRefSkip bool
}

// Column collects the reads overlapping one reference position.
type Column struct {
	Pos   int
	Reads []ReadOverlap
	// MaxIns is the length of the longest insertion following this position.
	MaxIns int
}

// Record returns the underlying record.
func (p *ReadOverlap) Record() *sam.Record { return p.read.rec }

// Reverse reports whether the read is on the reverse strand.
func (p *ReadOverlap) Reverse() bool { return p.read.strand == pileup.StrandRev }

// MapQ returns the mapping quality of the read.
func (p *ReadOverlap) MapQ() byte { return p.read.rec.MapQ }

// Base returns the ASCII base at query offset Qpos+j, or 'N' if there is none.
func (p *ReadOverlap) Base(j int) byte {
	i := p.Qpos + j
	if i < 0 || i >= len(p.read.seq8) {
		return 'N'
	}
	return pileup.Seq8ToASCIITable[p.read.seq8[i]]
}

// baseEnum returns the A/C/G/T/X enum of the base at query offset Qpos+j.
func (p *ReadOverlap) baseEnum(j int) byte {
	i := p.Qpos + j
	if i < 0 || i >= len(p.read.seq8) {
		return pileup.BaseX
	}
	return pileup.Seq8ToEnumTable[p.read.seq8[i]]
}

// Qual returns the base quality at query offset Qpos+j.  0xff means that the
// quality is not available.
func (p *ReadOverlap) Qual(j int) byte {
	i := p.Qpos + j
	if i < 0 || i >= len(p.read.rec.Qual) {
		return 0xff
	}
	return p.read.rec.Qual[i]
}

// NameChar returns character Qpos+j of the read name, or ' ' past its end.
func (p *ReadOverlap) NameChar(j int) byte {
	i := p.Qpos + j
	if i < 0 || i >= len(p.read.rec.Name) {
		return ' '
	}
	return p.read.rec.Name[i]
}

// activeRead is a read that has been admitted and not yet retired.  It walks
// its CIGAR in step with the assembler.
type activeRead struct {
	rec    *sam.Record
	strand pileup.StrandType
	ops    []sam.CigarOp
	// seq8 holds the 4-bit base codes of the read.
	seq8  []byte
	end   int
	level int

	// CIGAR cursor: current op, and the reference and query positions at its
	// start.
	opIdx  int
	refPos int
	qpos   int

	cs, cq   []byte
	hardClip int
}

func newActiveRead(rec *sam.Record, noSkip bool) (*activeRead, error) {
	r := &activeRead{
		rec:    rec,
		strand: pileup.GetStrand(rec),
		ops:    make([]sam.CigarOp, len(rec.Cigar)),
		refPos: rec.Pos,
	}
	for i, op := range rec.Cigar {
		if noSkip && op.Type() == sam.CigarSkipped {
			op = sam.NewCigarOp(sam.CigarDeletion, op.Len())
		}
		r.ops[i] = op
	}
	refLen, queryLen := sam.Cigar(r.ops).Lengths()
	r.end = rec.Pos + refLen
	if n := rec.Seq.Length; n > 0 {
		if n != queryLen {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("tview: read %s: CIGAR %v covers %d query bases, sequence has %d", rec.Name, rec.Cigar, queryLen, n))
		}
		r.seq8 = make([]byte, n)
		for i := range r.seq8 {
			d := rec.Seq.Seq[i>>1]
			if i&1 == 0 {
				r.seq8[i] = byte(d >> 4)
			} else {
				r.seq8[i] = byte(d & 0xf)
			}
		}
	}
	if len(r.ops) > 0 && r.ops[0].Type() == sam.CigarHardClipped {
		r.hardClip = r.ops[0].Len()
	}
	r.cs = auxString(rec, csTag)
	r.cq = auxString(rec, cqTag)
	return r, nil
}

// overlap fills p with the state of the read at pos.  Calls must have
// non-decreasing pos in [rec.Pos, end).
func (r *activeRead) overlap(pos int, p *ReadOverlap) {
	for {
		op := r.ops[r.opIdx]
		con := op.Type().Consumes()
		if con.Reference == 1 {
			if pos < r.refPos+op.Len() {
				break
			}
			r.refPos += op.Len()
		}
		r.qpos += op.Len() * con.Query
		r.opIdx++
	}
	op := r.ops[r.opIdx]
	*p = ReadOverlap{read: r, Level: r.level}
	switch op.Type() {
	case sam.CigarDeletion, sam.CigarSkipped:
		p.IsDel = true
		p.IsRefSkip = op.Type() == sam.CigarSkipped
		p.Qpos = r.qpos
	default:
		off := pos - r.refPos
		p.Qpos = r.qpos + off
		if off == op.Len()-1 {
			p.Indel = r.indelAfter(r.opIdx)
		}
	}
}

// indelAfter computes the indel that follows op i.  Padding between
// insertions is skipped.
func (r *activeRead) indelAfter(i int) int {
	if i+1 >= len(r.ops) {
		return 0
	}
	if next := r.ops[i+1]; next.Type() == sam.CigarDeletion {
		return -next.Len()
	}
	n := 0
loop:
	for _, op := range r.ops[i+1:] {
		switch op.Type() {
		case sam.CigarInsertion:
			n += op.Len()
		case sam.CigarPadded:
		default:
			break loop
		}
	}
	return n
}

// Assembler turns a stream of records into a stream of Columns covering the
// positions of a window that at least one read overlaps.  Typical usage:
//
//   a := NewAssembler(iter, w, &opts)
//   for a.Scan() {
//     col := a.Column()
//     ...
//   }
//   if err := a.Err(); err != nil {
//     ...
//   }
//
// Reads get stacking levels in order of their start position, including reads
// that start left of the window.
type Assembler struct {
	iter RecordIterator
	w    Window
	opts *Opts

	pending   *sam.Record
	exhausted bool
	lastStart int
	nRecords  int

	active []*activeRead
	levels levelAllocator
	pos    int
	col    Column
	err    error
}

// NewAssembler creates an Assembler reading records from iter.  It does not
// close iter.
func NewAssembler(iter RecordIterator, w Window, opts *Opts) *Assembler {
	return &Assembler{
		iter:      iter,
		w:         w,
		opts:      opts,
		lastStart: -1,
		pos:       w.Start,
	}
}

// Scan advances to the next Column.  It returns false at the end of the
// window or on error.
func (a *Assembler) Scan() bool {
	if a.err != nil {
		return false
	}
	for a.pos < a.w.End() {
		if a.err = a.admit(a.pos); a.err != nil {
			return false
		}
		a.retire(a.pos)
		if len(a.active) == 0 {
			if a.pending == nil {
				break
			}
			a.pos = a.pending.Pos
			continue
		}
		a.fill()
		a.pos++
		return true
	}
	log.Debug.Printf("tview: %v: %d records, %d levels", a.w, a.nRecords, a.levels.depth())
	return false
}

// Column returns the current column.  It is valid until the next call to
// Scan.
func (a *Assembler) Column() *Column { return &a.col }

// Err returns the error that stopped Scan, if any.
func (a *Assembler) Err() error { return a.err }

// Depth returns the number of stacking levels used so far.
func (a *Assembler) Depth() int { return a.levels.depth() }

func (a *Assembler) skip(rec *sam.Record) bool {
	return rec.Flags&sam.Unmapped != 0 ||
		len(rec.Cigar) == 0 ||
		int(rec.Flags)&a.opts.FlagExclude != 0 ||
		int(rec.MapQ) < a.opts.MinMapQ
}

// next reads the next usable record into a.pending.
func (a *Assembler) next() error {
	for a.iter.Scan() {
		rec := a.iter.Record()
		if a.skip(rec) {
			continue
		}
		if rec.Ref == nil || rec.Ref.ID() != a.w.Ref.ID() {
			return errors.E(errors.Integrity, fmt.Sprintf("tview: read %s is not on %s", rec.Name, a.w.Ref.Name()))
		}
		if rec.Pos < a.lastStart {
			return errors.E(errors.Integrity, fmt.Sprintf("tview: read %s at %d follows a read at %d", rec.Name, rec.Pos, a.lastStart))
		}
		a.lastStart = rec.Pos
		a.nRecords++
		a.pending = rec
		return nil
	}
	a.exhausted = true
	if err := a.iter.Err(); err != nil {
		return errors.E(err, "tview: reading alignments for", a.w.String())
	}
	return nil
}

// admit starts every read at or before pos.  Levels are assigned as if the
// reads were swept in start order.
func (a *Assembler) admit(pos int) error {
	for {
		if a.pending == nil {
			if a.exhausted {
				return nil
			}
			if err := a.next(); err != nil {
				return err
			}
			if a.pending == nil {
				return nil
			}
		}
		if a.pending.Pos > pos {
			return nil
		}
		rec := a.pending
		a.pending = nil
		r, err := newActiveRead(rec, a.opts.NoSkip)
		if err != nil {
			return err
		}
		if r.end <= rec.Pos || r.end <= a.w.Start {
			continue
		}
		a.retire(rec.Pos)
		if r.level = a.levels.alloc(); r.level < 0 {
			return errors.E(errors.Integrity, fmt.Sprintf("tview: read %s got stacking level %d", rec.Name, r.level))
		}
		a.active = append(a.active, r)
	}
}

// retire drops the reads that end at or before pos.
func (a *Assembler) retire(pos int) {
	n := 0
	for _, r := range a.active {
		if r.end <= pos {
			a.levels.release(r.level)
			continue
		}
		a.active[n] = r
		n++
	}
	for i := n; i < len(a.active); i++ {
		a.active[i] = nil
	}
	a.active = a.active[:n]
}

func (a *Assembler) fill() {
	a.col.Pos = a.pos
	a.col.MaxIns = 0
	a.col.Reads = a.col.Reads[:0]
	for _, r := range a.active {
		a.col.Reads = append(a.col.Reads, ReadOverlap{})
		p := &a.col.Reads[len(a.col.Reads)-1]
		r.overlap(a.pos, p)
		if p.Indel > a.col.MaxIns {
			a.col.MaxIns = p.Indel
		}
	}
}
