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
	"github.com/grailbio/base/errors"
	"github.com/grailbio/tview/encoding/fasta"
)

// Reference provides reference bases.  Fetch returns the bases in [start,
// end) of the named sequence; the result may be shorter than requested near
// the end of the sequence.  A sequence that is not present is reported with
// errors.NotExist.
type Reference interface {
	Fetch(seqName string, start, end int) ([]byte, error)
}

// FastaReference adapts a fasta.Fasta to Reference.
type FastaReference struct {
	Fasta fasta.Fasta
}

// Fetch implements Reference.
func (r FastaReference) Fetch(seqName string, start, end int) ([]byte, error) {
	if _, err := r.Fasta.Len(seqName); err != nil {
		return nil, errors.E(errors.NotExist, err)
	}
	s, err := fasta.Subseq(r.Fasta, seqName, uint64(start), uint64(end))
	if err != nil {
		return nil, errors.E(err, "tview.FastaReference", seqName)
	}
	return []byte(s), nil
}

// refSlice holds the reference bases of one window.  Positions not covered by
// the slice read as 'N'.
type refSlice struct {
	start int
	bases []byte
}

// at returns the base at the 0-based position pos.
func (r *refSlice) at(pos int) byte {
	i := pos - r.start
	if i < 0 || i >= len(r.bases) {
		return 'N'
	}
	return r.bases[i]
}
