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
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/tview/encoding/bamprovider"
)

// RecordIterator iterates over the records of one range query, in
// non-decreasing order of start position.
type RecordIterator interface {
	Scan() bool
	Record() *sam.Record
	Err() error
	Close() error
}

// AlignmentStore answers range queries over aligned reads.  Query yields the
// records on ref whose alignment overlaps [start, end).
type AlignmentStore interface {
	GetHeader() (*sam.Header, error)
	Query(ref *sam.Reference, start, end int) RecordIterator
}

// ProviderStore adapts a bamprovider.Provider to AlignmentStore.
type ProviderStore struct {
	Provider bamprovider.Provider
}

// GetHeader implements AlignmentStore.
func (s ProviderStore) GetHeader() (*sam.Header, error) {
	return s.Provider.GetHeader()
}

// Query implements AlignmentStore.
func (s ProviderStore) Query(ref *sam.Reference, start, end int) RecordIterator {
	return s.Provider.NewIterator(ref, start, end)
}

// Window is the genomic range shown by one pass: Width reference positions
// of Ref starting at the 0-based position Start.  Insertion sub-columns make
// the display end before Start+Width.
type Window struct {
	Ref   *sam.Reference
	Start int
	Width int
}

// End is the exclusive end of the window.
func (w Window) End() int { return w.Start + w.Width }

// String returns the window in 1-based region syntax.
func (w Window) String() string {
	name := "<nil>"
	if w.Ref != nil {
		name = w.Ref.Name()
	}
	return fmt.Sprintf("%s:%d-%d", name, w.Start+1, w.End())
}

func (w Window) validate() error {
	if w.Ref == nil {
		return errors.E(errors.Invalid, "tview: window has no reference sequence")
	}
	if w.Start < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("tview: negative window start %d", w.Start))
	}
	if w.Width <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("tview: window width must be positive, got %d", w.Width))
	}
	return nil
}
