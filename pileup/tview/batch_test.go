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
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/tview/encoding/bamprovider"
	"github.com/grailbio/tview/encoding/fasta"
)

func TestRenderBatch(t *testing.T) {
	ctx := context.Background()
	v := newTestViewer(t, nil, testRef, testOpts(10))
	input := "chr1:1\n\n# comment\nchr1:abc\nchrZ:5\n  chr1:5  \n"
	var out bytes.Buffer
	nBad, err := v.RenderBatch(ctx, strings.NewReader(input), &out)
	assert.NoError(t, err)
	expect.EQ(t, nBad, 2)
	expect.EQ(t, out.String(),
		"\n\n> chr1:1\n"+
			"1         \n"+
			"ACGTACGTAC\n"+
			"\n"+
			"\n\n> chr1:5\n"+
			"          \n"+
			"ACGTACGTAC\n"+
			"\n")
}

func TestRenderBatchMalformedSecondLine(t *testing.T) {
	ctx := context.Background()
	reads := []testRead{{name: "r", pos: 0, cigar: "10M", seq: chr1Seq[:10]}}
	v := newTestViewer(t, reads, testRef, testOpts(10))
	var out bytes.Buffer
	nBad, err := v.RenderBatch(ctx, strings.NewReader("chr1:1-10\nchr1:-\n"), &out)
	assert.NoError(t, err)
	expect.EQ(t, nBad, 1)
	expect.EQ(t, out.String(), "\n\n> chr1:1-10\n1         \nACGTACGTAC\n..........\n\n")
}

func TestRenderBatchFatal(t *testing.T) {
	ctx := context.Background()
	header := newTestHeader(t)
	chr1 := header.Refs()[0]

	v, err := NewViewer(&rawStore{header: header, err: fmt.Errorf("truncated file")}, nil, testOpts(10))
	assert.NoError(t, err)
	var out bytes.Buffer
	_, err = v.RenderBatch(ctx, strings.NewReader("chrZ:1\nchr1:1\nchr1:20\n"), &out)
	expect.HasSubstr(t, err.Error(), "truncated file")
	expect.EQ(t, out.Len(), 0)

	outOfOrder := newRecords(t, chr1, []testRead{
		{name: "r1", pos: 5, cigar: "3M", seq: "ACG"},
		{name: "r2", pos: 2, cigar: "3M", seq: "ACG"},
	})
	v, err = NewViewer(&rawStore{header: header, recs: outOfOrder}, nil, testOpts(10))
	assert.NoError(t, err)
	_, err = v.RenderBatch(ctx, strings.NewReader("chr1:1\n"), &out)
	expect.True(t, errors.Is(errors.Integrity, err), "err: %v", err)
}

func TestRenderBatchStoreNotExist(t *testing.T) {
	header := newTestHeader(t)
	store := &rawStore{header: header, err: errors.E(errors.NotExist, "open test.bam.bai")}
	v, err := NewViewer(store, nil, testOpts(10))
	assert.NoError(t, err)
	var out bytes.Buffer
	nBad, err := v.RenderBatch(context.Background(), strings.NewReader("chrZ:1\nchr1:1\nchr1:5\n"), &out)
	expect.True(t, errors.Is(errors.NotExist, err), "err: %v", err)
	expect.EQ(t, nBad, 1)
	expect.EQ(t, out.Len(), 0)
}

func TestRenderBatchMissingIndex(t *testing.T) {
	ctx := context.Background()
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	header := newTestHeader(t)
	path := filepath.Join(tmpDir, "noindex.bam")
	f, err := file.Create(ctx, path)
	assert.NoError(t, err)
	w, err := bam.NewWriter(f.Writer(ctx), header, 1)
	assert.NoError(t, err)
	for _, rec := range newRecords(t, header.Refs()[0], []testRead{{name: "r", pos: 0, cigar: "4M", seq: "ACGT"}}) {
		assert.NoError(t, w.Write(rec))
	}
	assert.NoError(t, w.Close())
	assert.NoError(t, f.Close(ctx))

	provider := bamprovider.NewProvider(path)
	v, err := NewViewer(ProviderStore{provider}, nil, testOpts(10))
	assert.NoError(t, err)
	var out bytes.Buffer
	nBad, err := v.RenderBatch(ctx, strings.NewReader("chr1:1\nchr1:5\n"), &out)
	expect.HasSubstr(t, err.Error(), "noindex.bam.bai")
	expect.EQ(t, nBad, 0)
	expect.EQ(t, out.Len(), 0)
	expect.True(t, provider.Close() != nil)
}

func TestRenderBED(t *testing.T) {
	ctx := context.Background()
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tmpDir, "windows.bed")
	out, err := file.Create(ctx, path)
	assert.NoError(t, err)
	_, err = out.Writer(ctx).Write([]byte("track name=x\nchr1\t0\t10\nchrZ\t0\t5\nchr1\t4\t8\n"))
	assert.NoError(t, err)
	assert.NoError(t, out.Close(ctx))

	opts := testOpts(10)
	opts.Shift = 2
	v := newTestViewer(t, nil, testRef, opts)
	var labels []string
	var starts []int
	nBad, err := v.RenderBED(ctx, path, func(label string, p *Pass) error {
		labels = append(labels, label)
		starts = append(starts, p.Window.Start)
		expect.EQ(t, p.Screen.NRows(), 2)
		return nil
	})
	assert.NoError(t, err)
	expect.EQ(t, nBad, 1)
	expect.EQ(t, labels, []string{"chr1:1-10", "chr1:5-8"})
	expect.EQ(t, starts, []int{0, 2})

	_, err = v.RenderBED(ctx, filepath.Join(tmpDir, "missing.bed"), WritePass(&bytes.Buffer{}))
	expect.True(t, err != nil)
}

func TestRenderBatchFuncStops(t *testing.T) {
	v := newTestViewer(t, nil, testRef, testOpts(10))
	n := 0
	_, err := v.RenderBatchFunc(context.Background(), strings.NewReader("chr1:1\nchr1:11\n"), func(string, *Pass) error {
		n++
		return fmt.Errorf("stop")
	})
	expect.HasSubstr(t, err.Error(), "stop")
	expect.EQ(t, n, 1)
}

func TestFastaReference(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(">chr1 test\nACGTA\nCGTAC\n"))
	assert.NoError(t, err)
	ref := FastaReference{fa}
	bases, err := ref.Fetch("chr1", 2, 20)
	assert.NoError(t, err)
	expect.EQ(t, string(bases), "GTACGTAC")
	_, err = ref.Fetch("chr2", 0, 5)
	expect.True(t, errors.Is(errors.NotExist, err), "err: %v", err)

	header := newTestHeader(t)
	recs := newRecords(t, header.Refs()[0], []testRead{{name: "r", pos: 8, cigar: "3M", seq: "ACA"}})
	v, err := NewViewer(&rawStore{header: header, recs: recs}, ref, testOpts(4))
	assert.NoError(t, err)
	pass, err := v.RenderRegion(context.Background(), "chr1:8")
	assert.NoError(t, err)
	expect.EQ(t, rows(pass.Screen), []string{"    ", "TACN", " ..A"})
}
