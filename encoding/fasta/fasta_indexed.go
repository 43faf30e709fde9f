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
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Index files consist of one tab-separated line per sequence in the associated
// FASTA file.  The format is: "<sequence name>\t<length>\t<byte
// offset>\t<bases per line>\t<bytes per line>".
// For example: "chr3\t12345\t9000\t80\t81".
type indexEntry struct {
	length    uint64
	offset    uint64
	lineBase  uint64
	lineWidth uint64
}

func parseIndexLine(line string) (name string, ent indexEntry, err error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 5 || fields[0] == "" {
		return "", ent, errors.Errorf("invalid index line: %s", line)
	}
	var vals [4]uint64
	for i := range vals {
		if vals[i], err = strconv.ParseUint(fields[i+1], 10, 64); err != nil {
			return "", ent, errors.Wrapf(err, "invalid index line: %s", line)
		}
	}
	ent = indexEntry{length: vals[0], offset: vals[1], lineBase: vals[2], lineWidth: vals[3]}
	if ent.lineBase == 0 || ent.lineWidth < ent.lineBase {
		return "", ent, errors.Errorf("invalid line geometry in index line: %s", line)
	}
	return fields[0], ent, nil
}

type indexedFasta struct {
	seqs      map[string]indexEntry
	seqNames  []string // returned by SeqNames()
	reader    io.ReadSeeker
	bufOff    int64
	buf       []byte // caches file contents starting at bufOff.
	resultBuf []byte // temp for concatenating multi-line sequences.
	mutex     sync.Mutex
}

// NewIndexed creates a new Fasta that can perform efficient random lookups
// using the provided index, without reading the data into memory.  Sequence
// names are reported in index order.
func NewIndexed(fasta io.ReadSeeker, index io.Reader) (Fasta, error) {
	f := &indexedFasta{seqs: make(map[string]indexEntry), reader: fasta}
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		name, ent, err := parseIndexLine(line)
		if err != nil {
			return nil, err
		}
		if _, dup := f.seqs[name]; dup {
			return nil, errors.Errorf("duplicate sequence %s in index", name)
		}
		f.seqs[name] = ent
		f.seqNames = append(f.seqNames, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA index")
	}
	return f, nil
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return ent.length, nil
}

// read returns the range [off, off+n) of the underlying fasta file, refilling
// the cache when the range isn't already in it.
func (f *indexedFasta) read(off int64, n int) ([]byte, error) {
	limit := off + int64(n)
	if off >= f.bufOff && limit <= f.bufOff+int64(len(f.buf)) {
		return f.buf[off-f.bufOff : limit-f.bufOff], nil
	}
	if newOffset, err := f.reader.Seek(off, io.SeekStart); err != nil || newOffset != off {
		return nil, errors.Errorf("failed to seek to offset %d: %d, %v", off, newOffset, err)
	}
	bufSize := 8192
	if bufSize < n {
		bufSize = n
	}
	resizeBuf(&f.buf, bufSize)
	bytesRead, err := io.ReadFull(f.reader, f.buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	if bytesRead < n {
		return nil, errors.Errorf("encountered unexpected end of file (bad index? file doesn't end in newline?)")
	}
	f.bufOff = off
	f.buf = f.buf[:bytesRead]
	return f.buf[:n], nil
}

func resizeBuf(buf *[]byte, n int) {
	if cap(*buf) < n {
		*buf = make([]byte, n)
	} else {
		*buf = (*buf)[0:n]
	}
}

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start uint64, end uint64) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	ent, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if err := checkRange(seqName, start, end, ent.length); err != nil {
		return "", err
	}

	// Start the read at a byte offset allowing for the presence of newline
	// characters.
	charsPerNewline := ent.lineWidth - ent.lineBase
	offset := ent.offset + start + charsPerNewline*(start/ent.lineBase)

	// Figure out how many characters (including the line terminators strictly
	// inside the range) we should read, and read them.
	firstLineBases := ent.lineBase - (start % ent.lineBase)
	newlinesToRead := uint64(0)
	if end-start > firstLineBases {
		newlinesToRead = (end - start - firstLineBases + ent.lineBase - 1) / ent.lineBase
	}
	capacity := end - start + newlinesToRead*charsPerNewline

	buffer, err := f.read(int64(offset), int(capacity))
	if err != nil {
		return "", err
	}

	// Copy the non-newline characters to the result.
	resizeBuf(&f.resultBuf, int(end-start))
	linePos := (offset - ent.offset) % ent.lineWidth
	resultPos := 0
	for i := range buffer {
		if linePos < ent.lineBase {
			f.resultBuf[resultPos] = buffer[i]
			resultPos++
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	return string(f.resultBuf[:resultPos]), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}
