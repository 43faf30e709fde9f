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
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// PosType is the type used to represent interval coordinates.  int32 should be
// enough for BAM/PAM positions.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	RefName string
	Start0  PosType
	End     PosType
}

// String returns the interval in 1-based region syntax.
func (e Entry) String() string {
	return fmt.Sprintf("%s:%d-%d", e.RefName, e.Start0+1, e.End)
}

// parsePos parses a 1-based coordinate.  Thousands separators are accepted,
// since samtools accepts them and they show up in copy-pasted regions.
func parsePos(s string) (int, error) {
	s = strings.Replace(s, ",", "", -1)
	return strconv.Atoi(s)
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, PosTypeMax - 1) is returned if there is no positional restriction.
// Surrounding whitespace is ignored.
func ParseRegionString(region string) (result Entry, err error) {
	region = strings.TrimSpace(region)
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos == -1 {
		result.RefName = region
		result.Start0 = 0
		result.End = PosTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.RefName = region[0:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int
		if pos1, err = parsePos(rangeStr); err != nil {
			return
		}
		if pos1 <= 0 || pos1 >= PosTypeMax {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	start1Str := rangeStr[:dashPos]
	endStr := rangeStr[dashPos+1:]
	var start1 int
	if start1, err = parsePos(start1Str); err != nil {
		return
	}
	if start1 <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", start1Str)
		return
	}
	var end0 int
	if end0, err = parsePos(endStr); err != nil {
		return
	}
	// "chr1:5-5" is the single base at 1-based position 5.
	if end0 < start1 || end0 >= PosTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end0)
	return
}

// Resolver maps region strings onto the references of a BAM header.
type Resolver struct {
	Header *sam.Header
}

// Resolve parses region and looks up its contig.  A syntax error is reported
// with kind errors.Invalid; an unknown contig with kind errors.NotExist.
func (r Resolver) Resolve(region string) (*sam.Reference, Entry, error) {
	entry, err := ParseRegionString(region)
	if err != nil {
		return nil, Entry{}, errors.E(errors.Invalid, err)
	}
	ref := r.Lookup(entry.RefName)
	if ref == nil {
		return nil, Entry{}, errors.E(errors.NotExist, fmt.Sprintf("interval.Resolve: unknown sequence %q in region %q", entry.RefName, strings.TrimSpace(region)))
	}
	if end := PosType(ref.Len()); entry.End > end {
		entry.End = end
	}
	return ref, entry, nil
}

// Lookup finds a sam.Reference with the given name.  It returns nil if a
// reference is not found.
func (r Resolver) Lookup(refName string) *sam.Reference {
	if r.Header == nil {
		return nil
	}
	for _, ref := range r.Header.Refs() {
		if ref.Name() == refName {
			return ref
		}
	}
	return nil
}
