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


package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// faiEntry is one line of a .fai file.
type faiEntry struct {
	name string
	// length is the number of bases, offset the byte offset of the first base.
	length, offset int64
	// lineBases and lineWidth describe every line but the last; lineWidth
	// includes the line terminator.
	lineBases, lineWidth int
	// short is set once a line shorter than lineBases was seen.  Only the
	// last line of a sequence may be short.
	short bool
}

// indexer accumulates faiEntry values while a FASTA file is read line by
// line.
type indexer struct {
	out *tsv.Writer
	off int64
	cur *faiEntry
}

func (ix *indexer) write() error {
	e := ix.cur
	ix.cur = nil
	if e == nil || e.lineWidth == 0 {
		// Sequences without bases have nothing to seek to.
		return nil
	}
	ix.out.WriteString(e.name)
	ix.out.WriteInt64(e.length)
	ix.out.WriteInt64(e.offset)
	ix.out.WriteInt64(int64(e.lineBases))
	ix.out.WriteInt64(int64(e.lineWidth))
	return ix.out.EndLine()
}

// add processes one line of input, terminator included.
func (ix *indexer) add(full []byte) error {
	ix.off += int64(len(full))
	line := bytes.TrimRight(full, "\r\n")
	if len(line) == 0 {
		return nil
	}
	if line[0] == '>' {
		if err := ix.write(); err != nil {
			return err
		}
		ix.cur = &faiEntry{name: seqNameFromHeader(line), offset: ix.off}
		return nil
	}
	e := ix.cur
	if e == nil {
		return errors.E(errors.Invalid, "fasta.GenerateIndex: malformed FASTA file, bases before the first header")
	}
	switch {
	case e.lineWidth == 0:
		e.lineBases, e.lineWidth = len(line), len(full)
	case e.short || len(line) > e.lineBases:
		return errors.E(errors.Invalid, fmt.Sprintf("fasta.GenerateIndex: sequence %s has lines of different lengths", e.name))
	case len(line) < e.lineBases:
		e.short = true
	}
	e.length += int64(len(line))
	return nil
}

// GenerateIndex writes the index (.fai) of the FASTA data in "in" to "out", in
// the format of "samtools faidx" (http://www.htslib.org/doc/faidx.html).
// NewIndexed reads it back.  Every sequence must use one line length,
// except for a shorter last line.
func GenerateIndex(out io.Writer, in io.Reader) error {
	ix := indexer{out: tsv.NewWriter(out)}
	r := bufio.NewReader(in)
	for {
		full, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if aerr := ix.add(full); aerr != nil {
			return aerr
		}
		if err == io.EOF {
			break
		}
	}
	if ix.off == 0 {
		return errors.E(errors.Invalid, "fasta.GenerateIndex: empty FASTA file")
	}
	if err := ix.write(); err != nil {
		return err
	}
	return ix.out.Flush()
}
