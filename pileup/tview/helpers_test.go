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
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/tview/encoding/bamprovider"
)

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	status := m.Run()
	shutdown()
	os.Exit(status)
}

// chr1Seq is the reference sequence of the test contig chr1.
var chr1Seq = strings.Repeat("ACGT", 25)

func newTestHeader(t *testing.T) *sam.Header {
	chr1, err := sam.NewReference("chr1", "", "", len(chr1Seq), nil, nil)
	assert.NoError(t, err)
	chr2, err := sam.NewReference("chr2", "", "", 1000, nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	assert.NoError(t, err)
	return header
}

type testRead struct {
	name    string
	pos     int
	cigar   string
	seq     string
	reverse bool
	mapq    byte
	flags   sam.Flags
	aux     []sam.Aux
}

func newRecord(t *testing.T, ref *sam.Reference, r testRead) *sam.Record {
	cigar, err := sam.ParseCigar([]byte(r.cigar))
	assert.NoError(t, err)
	qual := make([]byte, len(r.seq))
	for i := range qual {
		qual[i] = 30
	}
	mapq := r.mapq
	if mapq == 0 {
		mapq = 60
	}
	rec, err := sam.NewRecord(r.name, ref, nil, r.pos, -1, 0, mapq, cigar, []byte(r.seq), qual, r.aux)
	assert.NoError(t, err)
	rec.Flags = r.flags
	if r.reverse {
		rec.Flags |= sam.Reverse
	}
	return rec
}

func newRecords(t *testing.T, ref *sam.Reference, reads []testRead) []*sam.Record {
	recs := make([]*sam.Record, len(reads))
	for i, r := range reads {
		recs[i] = newRecord(t, ref, r)
	}
	return recs
}

func newAux(t *testing.T, tag string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(tag), val)
	assert.NoError(t, err)
	return aux
}

// memReference serves reference bases from memory.
type memReference map[string]string

func (m memReference) Fetch(seqName string, start, end int) ([]byte, error) {
	seq, ok := m[seqName]
	if !ok {
		return nil, errors.E(errors.NotExist, "no sequence", seqName)
	}
	if end > len(seq) {
		end = len(seq)
	}
	if start >= end {
		return nil, nil
	}
	return []byte(seq[start:end]), nil
}

var testRef = memReference{"chr1": chr1Seq}

// sliceIterator yields records as they are, without any filtering.
type sliceIterator struct {
	recs []*sam.Record
	rec  *sam.Record
	err  error
}

func (i *sliceIterator) Scan() bool {
	if len(i.recs) == 0 {
		return false
	}
	i.rec, i.recs = i.recs[0], i.recs[1:]
	return true
}
func (i *sliceIterator) Record() *sam.Record { return i.rec }
func (i *sliceIterator) Err() error          { return i.err }
func (i *sliceIterator) Close() error        { return i.err }

// rawStore answers every query with all of its records, or with err.
type rawStore struct {
	header *sam.Header
	recs   []*sam.Record
	err    error
}

func (s *rawStore) GetHeader() (*sam.Header, error) { return s.header, nil }
func (s *rawStore) Query(*sam.Reference, int, int) RecordIterator {
	if s.err != nil {
		return bamprovider.NewErrorIterator(s.err)
	}
	return &sliceIterator{recs: s.recs}
}

func newTestViewer(t *testing.T, reads []testRead, ref Reference, opts Opts) *Viewer {
	header := newTestHeader(t)
	recs := newRecords(t, header.Refs()[0], reads)
	v, err := NewViewer(ProviderStore{bamprovider.NewFakeProvider(header, recs)}, ref, opts)
	assert.NoError(t, err)
	return v
}

func testOpts(width int) Opts {
	opts := DefaultOpts
	opts.Width = width
	return opts
}

// render draws chr1:start+1 and returns the rows of the screen.
func render(t *testing.T, v *Viewer, start int) []string {
	pass, err := v.RenderRegion(context.Background(), fmt.Sprintf("chr1:%d", start+1))
	assert.NoError(t, err)
	return rows(pass.Screen)
}

func rows(s *Screen) []string {
	var r []string
	for i := 0; i < s.NRows(); i++ {
		r = append(r, string(s.Row(i)))
	}
	return r
}
