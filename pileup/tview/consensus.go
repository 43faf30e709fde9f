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
	"math"

	"github.com/grailbio/tview/pileup"
)

const (
	// hetPrior is the phred-scaled prior against a heterozygous call.
	hetPrior = 30
	// maxEvidenceQual caps the quality of a single observation.
	maxEvidenceQual = 63
	// minEvidenceQual is the floor applied after capping by mapping quality.
	minEvidenceQual = 4
	// unknownMapQ is the MAPQ value meaning "not available", and
	// unknownMapQCap the cap used for it.
	unknownMapQ    = 255
	unknownMapQCap = 20
	// maxConfidence is the highest confidence bucket.
	maxConfidence = 3
)

// iupacCodes maps an A=1/C=2/G=4/T=8 allele mask to its IUPAC code.
const iupacCodes = ",ACMGRSVTWYHKDBN"

// ConsensusCall is the genotype called for one reference column.
type ConsensusCall struct {
	// Char is the IUPAC code of the call, '.' if it is homozygous for the
	// reference base.  Without evidence it is the reference base.
	Char byte
	// AlleleMask has bit 1<<e set for every called allele with enum e.
	AlleleMask uint8
	// Confidence is the phred-scaled margin of the call, in tens, clamped to
	// [0, 3].
	Confidence int
}

// ColumnCall is the consensus call of the reference position Pos.
type ColumnCall struct {
	Pos  int
	Call ConsensusCall
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// CallConsensus calls the genotype supported by obs at a position whose
// reference base is ref.
//
// The two bases with the highest summed quality (ties broken in A, C, G, T
// order) are the candidate alleles a1 and a2.  The homozygous a1, heterozygous
// and homozygous a2 genotypes are scored from em, with hetPrior added to the
// heterozygous genotype and hetPrior+3 added to each homozygous genotype that
// differs from the reference; the strictly lowest score wins, with the
// heterozygous call as the fallback.
func CallConsensus(obs []Evidence, ref byte, em ErrorModel) ConsensusCall {
	if len(obs) == 0 {
		return ConsensusCall{Char: ref}
	}
	var qsum [pileup.NBase]int
	for _, o := range obs {
		if o.Base >= pileup.NBase {
			continue
		}
		q := int(o.Qual)
		if q > maxEvidenceQual {
			q = maxEvidenceQual
		}
		qsum[o.Base] += q
	}
	order := [pileup.NBase]int{0, 1, 2, 3}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && qsum[order[j]] > qsum[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	a1, a2 := order[0], order[1]

	var l GenotypeLikelihoods
	em.Likelihoods(obs, &l)
	refUpper := upper(ref)
	p0 := l[a1][a1]
	p1 := l[a1][a2] + hetPrior
	p2 := l[a2][a2]
	if pileup.EnumToASCIITable[a1] != refUpper {
		p0 += hetPrior + 3
	}
	if pileup.EnumToASCIITable[a2] != refUpper {
		p2 += hetPrior + 3
	}

	var call ConsensusCall
	var margin float64
	switch {
	case p0 < p1 && p0 < p2:
		call.AlleleMask = 1 << uint(a1)
		margin = math.Min(p1, p2) - p0
	case p2 < p1 && p2 < p0:
		call.AlleleMask = 1 << uint(a2)
		margin = math.Min(p0, p1) - p2
	default:
		call.AlleleMask = 1<<uint(a1) | 1<<uint(a2)
		margin = math.Abs(math.Min(p0, p2) - p1)
	}
	call.Confidence = int(margin+0.499) / 10
	if call.Confidence > maxConfidence {
		call.Confidence = maxConfidence
	}
	call.Char = iupacCodes[call.AlleleMask]
	if call.Char == refUpper {
		call.Char = '.'
	}
	return call
}

// consensusCaller gathers the evidence of a Column and calls it.
type consensusCaller struct {
	em          ErrorModel
	minBaseQual int
	obs         []Evidence
}

func (c *consensusCaller) call(col *Column, ref byte) ConsensusCall {
	c.obs = c.obs[:0]
	for i := range col.Reads {
		p := &col.Reads[i]
		if p.IsDel {
			continue
		}
		b := p.baseEnum(0)
		if b == pileup.BaseX {
			continue
		}
		q := int(p.Qual(0))
		if q < c.minBaseQual {
			continue
		}
		mq := int(p.MapQ())
		if mq == unknownMapQ {
			mq = unknownMapQCap
		}
		if q > mq {
			q = mq
		}
		if q > maxEvidenceQual {
			q = maxEvidenceQual
		}
		if q < minEvidenceQual {
			q = minEvidenceQual
		}
		c.obs = append(c.obs, Evidence{Base: b, Qual: byte(q)})
	}
	return CallConsensus(c.obs, ref, c.em)
}
