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
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestParseRegionString(t *testing.T) {
	tests := []struct {
		region  string
		refName string
		start0  PosType
		end     PosType
	}{
		{
			"chr1:1-1000",
			"chr1",
			0,
			1000,
		},
		{
			"chr1:1000",
			"chr1",
			999,
			1000,
		},
		{
			"chr1",
			"chr1",
			0,
			PosTypeMax - 1,
		},
		{
			"chr1:5-5",
			"chr1",
			4,
			5,
		},
		{
			"  chr2:1,001-2,000\n",
			"chr2",
			1000,
			2000,
		},
		{
			"HLA-A*01:01:01:01:10-20",
			"HLA-A*01:01:01:01",
			9,
			20,
		},
	}

	for _, tt := range tests {
		result, err := ParseRegionString(tt.region)
		expect.NoError(t, err)
		expect.EQ(t, result.RefName, tt.refName)
		expect.EQ(t, result.Start0, tt.start0)
		expect.EQ(t, result.End, tt.end)
	}
}

func TestParseRegionStringErrors(t *testing.T) {
	for _, region := range []string{
		"",
		"   ",
		":1-10",
		"chr1:0",
		"chr1:0-10",
		"chr1:10-5",
		"chr1:abc",
		"chr1:1-xyz",
	} {
		_, err := ParseRegionString(region)
		expect.NotNil(t, err, "region %q", region)
	}
}

func TestResolver(t *testing.T) {
	ref1, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	assert.NoError(t, err)
	ref2, err := sam.NewReference("chr2", "", "", 500, nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{ref1, ref2})
	assert.NoError(t, err)
	r := Resolver{Header: header}

	ref, entry, err := r.Resolve("chr2:101-200")
	assert.NoError(t, err)
	expect.EQ(t, ref.Name(), "chr2")
	expect.EQ(t, entry.Start0, PosType(100))
	expect.EQ(t, entry.End, PosType(200))

	// Unrestricted regions are clipped to the contig.
	ref, entry, err = r.Resolve("chr1")
	assert.NoError(t, err)
	expect.EQ(t, ref.ID(), 0)
	expect.EQ(t, entry.End, PosType(1000))

	_, _, err = r.Resolve("chrX:1-10")
	expect.True(t, errors.Is(errors.NotExist, err))

	_, _, err = r.Resolve("chr1:10-1")
	expect.True(t, errors.Is(errors.Invalid, err))

	expect.Nil(t, r.Lookup("chr3"))
	expect.Nil(t, Resolver{}.Lookup("chr1"))
}

func TestEntryString(t *testing.T) {
	expect.EQ(t, Entry{RefName: "chr7", Start0: 99, End: 200}.String(), "chr7:100-200")
}
