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

// Evidence is one base observation: an A/C/G/T enum and a phred-scaled
// quality.
type Evidence struct {
	Base byte
	Qual byte
}

// GenotypeLikelihoods holds phred-scaled likelihoods of the unordered
// genotypes {g1, g2}, indexed by base enum.  It is symmetric.
type GenotypeLikelihoods [pileup.NBase][pileup.NBase]float64

// ErrorModel computes genotype likelihoods for a set of observations.
type ErrorModel interface {
	// Likelihoods overwrites l.  Smaller values are more likely.
	Likelihoods(obs []Evidence, l *GenotypeLikelihoods)
}

// PhredErrorModel treats every observation as independent, with error rate
// 10^(-q/10) spread evenly over the three other bases.  Likelihoods are
// normalized so that the best genotype has likelihood 0.
type PhredErrorModel struct{}

// Range of qualities understood by PhredErrorModel.
const (
	minModelQual = 1
	maxModelQual = 63
)

var phredErr [maxModelQual + 1]float64

func init() {
	for q := range phredErr {
		phredErr[q] = math.Pow(10, -float64(q)/10)
	}
}

// Likelihoods implements ErrorModel.
func (PhredErrorModel) Likelihoods(obs []Evidence, l *GenotypeLikelihoods) {
	*l = GenotypeLikelihoods{}
	for _, o := range obs {
		if o.Base >= pileup.NBase {
			continue
		}
		q := int(o.Qual)
		if q < minModelQual {
			q = minModelQual
		} else if q > maxModelQual {
			q = maxModelQual
		}
		e := phredErr[q]
		var pb [pileup.NBase]float64
		for g := range pb {
			if byte(g) == o.Base {
				pb[g] = 1 - e
			} else {
				pb[g] = e / 3
			}
		}
		for g1 := 0; g1 < pileup.NBase; g1++ {
			for g2 := g1; g2 < pileup.NBase; g2++ {
				l[g1][g2] -= 10 * math.Log10((pb[g1]+pb[g2])/2)
			}
		}
	}
	min := math.Inf(1)
	for g1 := 0; g1 < pileup.NBase; g1++ {
		for g2 := g1; g2 < pileup.NBase; g2++ {
			min = math.Min(min, l[g1][g2])
		}
	}
	for g1 := 0; g1 < pileup.NBase; g1++ {
		for g2 := g1; g2 < pileup.NBase; g2++ {
			l[g1][g2] -= min
			l[g2][g1] = l[g1][g2]
		}
	}
}
