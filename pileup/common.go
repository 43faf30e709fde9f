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

package pileup

import (
	"context"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/tview/encoding/fasta"
	"github.com/grailbio/tview/interval"
)

// Common pileup components.

// PosType is the integer type used to represent genomic positions.
type PosType = interval.PosType

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = interval.PosTypeMax

// These constants are the natural value for A/C/G/T in a packed 2-bit
// representation, and double as the allele index of the genotype caller.

const (
	// BaseA represents an A base.
	BaseA byte = iota
	// BaseC represents an C base.
	BaseC
	// BaseG represents an G base.
	BaseG
	// BaseT represents an T base.
	BaseT
	// BaseX is a catch-all.
	BaseX
)

const (
	// NBase is the number of regular base types.
	NBase = 4
	// NBaseEnum counts BaseX as well as the regular base types.
	NBaseEnum = 5
)

// Seq8ToEnumTable is the .bam seq nibble -> A/C/G/T/X enum mapping.
var Seq8ToEnumTable = [...]byte{BaseX, BaseA, BaseC, BaseX, BaseG, BaseX, BaseX, BaseX, BaseT, BaseX, BaseX, BaseX, BaseX, BaseX, BaseX, BaseX}

// EnumToASCIITable is the A/C/G/T/X -> ASCII mapping, with X rendered as 'N'.
var EnumToASCIITable = [...]byte{'A', 'C', 'G', 'T', 'N'}

// Seq8ToASCIITable is the .bam seq nibble -> ASCII mapping.
var Seq8ToASCIITable = [...]byte{'=', 'A', 'C', 'M', 'G', 'R', 'S', 'V', 'T', 'W', 'Y', 'H', 'K', 'D', 'B', 'N'}

// ASCIIToEnumTable is the case-insensitive ASCII -> A/C/G/T/X mapping.
var ASCIIToEnumTable [256]byte

func init() {
	for i := range ASCIIToEnumTable {
		ASCIIToEnumTable[i] = BaseX
	}
	for e, c := range EnumToASCIITable[:NBase] {
		ASCIIToEnumTable[c] = byte(e)
		ASCIIToEnumTable[c|0x20] = byte(e)
	}
}

// StrandType describes which strand a single read is aligned to.
type StrandType int

const (
	// StrandFwd means the read is aligned to the forward strand.
	StrandFwd StrandType = iota
	// StrandRev means the read is reverse-complemented.
	StrandRev
)

// GetStrand returns the strand the read is aligned to.
func GetStrand(samr *sam.Record) StrandType {
	if samr.Flags&sam.Reverse != 0 {
		return StrandRev
	}
	return StrandFwd
}

// LoadFa is a thin wrapper around fasta.New().  Compressed inputs are
// decompressed on the fly.
func LoadFa(ctx context.Context, fapath string) (fa fasta.Fasta, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, fapath); err != nil {
		return
	}
	defer func() {
		if e := infile.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	reader, _ := compress.NewReader(infile.Reader(ctx))
	defer func() {
		if e := reader.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if fa, err = fasta.New(reader); err != nil {
		return
	}
	return
}

// OpenFa opens fapath for random access.  If fapath+".fai" exists, the FASTA
// is read lazily through the index, and the returned closer must be called
// when the caller is done with fa.  Otherwise the whole file is loaded with
// LoadFa.
func OpenFa(ctx context.Context, fapath string) (fa fasta.Fasta, closer func() error, err error) {
	faipath := fapath + ".fai"
	idxfile, err := file.Open(ctx, faipath)
	if err != nil {
		log.Debug.Printf("pileup.OpenFa: %s not readable (%v); loading %s into memory", faipath, err, fapath)
		fa, err = LoadFa(ctx, fapath)
		return fa, func() error { return nil }, err
	}
	defer func() {
		if e := idxfile.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	var infile file.File
	if infile, err = file.Open(ctx, fapath); err != nil {
		return nil, nil, errors.E(err, "pileup.OpenFa", fapath)
	}
	if fa, err = fasta.NewIndexed(infile.Reader(ctx), idxfile.Reader(ctx)); err != nil {
		_ = infile.Close(ctx)
		return nil, nil, errors.E(err, "pileup.OpenFa", faipath)
	}
	return fa, func() error { return infile.Close(ctx) }, nil
}

// IndexFa writes fapath+".fai" for the (uncompressed) FASTA file fapath.
func IndexFa(ctx context.Context, fapath string) (err error) {
	var infile, outfile file.File
	if infile, err = file.Open(ctx, fapath); err != nil {
		return errors.E(err, "pileup.IndexFa", fapath)
	}
	defer func() {
		if e := infile.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	faipath := fapath + ".fai"
	if outfile, err = file.Create(ctx, faipath); err != nil {
		return errors.E(err, "pileup.IndexFa", faipath)
	}
	if err = fasta.GenerateIndex(outfile.Writer(ctx), infile.Reader(ctx)); err != nil {
		_ = outfile.Close(ctx)
		return errors.E(err, "pileup.IndexFa", fapath)
	}
	return outfile.Close(ctx)
}
