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

package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// isBEDHeader returns true for comment, "track", and "browser" lines.
func isBEDHeader(tok []byte) bool {
	if tok[0] == '#' {
		return true
	}
	s := gunsafe.BytesToString(tok)
	return s == "track" || s == "browser"
}

// ReadBED loads the intervals of a BED file in file order, without merging or
// sorting them: every line is one window for the viewer.  Columns past the
// third are ignored.
func ReadBED(reader io.Reader) (entries []Entry, err error) {
	scanner := bufio.NewScanner(reader)
	var tokens [3][]byte
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 || isBEDHeader(tokens[0]) {
			continue
		}
		if nToken != 3 {
			err = fmt.Errorf("interval.ReadBED: line %d has fewer tokens than expected", lineIdx)
			return
		}
		var parsedStart, parsedEnd int
		if parsedStart, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
			return
		}
		if parsedStart < 0 {
			err = fmt.Errorf("interval.ReadBED: negative start coordinate %s on line %d", tokens[1], lineIdx)
			return
		}
		if parsedEnd, err = strconv.Atoi(gunsafe.BytesToString(tokens[2])); err != nil {
			return
		}
		if (parsedEnd < parsedStart) || (parsedEnd >= PosTypeMax) {
			err = fmt.Errorf("interval.ReadBED: invalid coordinate pair on line %d", lineIdx)
			return
		}
		entries = append(entries, Entry{
			// Copy: tokens[0] points into the scanner's buffer.
			RefName: string(tokens[0]),
			Start0:  PosType(parsedStart),
			End:     PosType(parsedEnd),
		})
	}
	err = scanner.Err()
	return
}

// ReadBEDFromPath is a wrapper for ReadBED that takes a path instead of an
// io.Reader.  Gzipped files are recognized by their extension.
func ReadBEDFromPath(ctx context.Context, path string) (entries []Entry, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return ReadBED(reader)
}
