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
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// BaseMode selects how read bases are displayed.
type BaseMode int

const (
	// Nucleotide shows the read bases.
	Nucleotide BaseMode = iota
	// ColorSpace shows the two-base-encoded calls of the CS aux tag, falling
	// back to the read bases for reads without one.
	ColorSpace
)

// QualitySource selects what the per-cell emphasis bucket is computed from.
type QualitySource int

const (
	// QualMapQ buckets by mapping quality.
	QualMapQ QualitySource = iota
	// QualBaseQ buckets by base quality.
	QualBaseQ
	// QualNucleotide buckets by base identity.
	QualNucleotide
	// QualColor buckets by color-space call identity.
	QualColor
	// QualColorQual buckets by color-space call quality (CQ tag).
	QualColorQual
)

var qualitySourceNames = map[string]QualitySource{
	"mapq":  QualMapQ,
	"baseq": QualBaseQ,
	"nucl":  QualNucleotide,
	"col":   QualColor,
	"colq":  QualColorQual,
}

// ParseQualitySource parses one of "mapq", "baseq", "nucl", "col", "colq".
func ParseQualitySource(s string) (QualitySource, error) {
	q, ok := qualitySourceNames[strings.ToLower(s)]
	if !ok {
		return QualMapQ, errors.E(errors.Invalid, fmt.Sprintf("tview: unknown quality source %q", s))
	}
	return q, nil
}

// String implements fmt.Stringer.
func (q QualitySource) String() string {
	for name, v := range qualitySourceNames {
		if v == q {
			return name
		}
	}
	return fmt.Sprintf("QualitySource(%d)", int(q))
}

// Opts controls a Viewer.
type Opts struct {
	// Width is the number of display columns.
	Width int
	// Mode selects nucleotide or color-space display.
	Mode BaseMode
	// ShowName draws read names instead of bases.
	ShowName bool
	// Dot collapses bases (or colors) that agree with the reference to '.' on
	// the forward strand and ',' on the reverse strand.
	Dot bool
	// Insertions widens the display to show inserted bases.
	Insertions bool
	// NoSkip draws reference skips ('N' CIGAR operations) as deletions.
	NoSkip bool
	// Quality selects the source of the emphasis bucket handed to Painter.
	Quality QualitySource
	// Shift moves the window start this many bases to the left of the
	// requested position, clamped at 0.
	Shift int
	// FlagExclude: reads with a FLAG bit intersecting this value are skipped.
	FlagExclude int
	// MinMapQ: reads with MAPQ below this level are skipped.
	MinMapQ int
	// MinBaseQual: bases below this quality don't count as consensus evidence.
	MinBaseQual int
	// ErrorModel computes genotype likelihoods for the consensus caller.  nil
	// means PhredErrorModel.
	ErrorModel ErrorModel
	// Painter, if set, receives the emphasis bucket of every drawn cell.
	Painter Painter
}

// DefaultOpts are the defaults of the viewer.
var DefaultOpts = Opts{
	Width:       80,
	Mode:        Nucleotide,
	Dot:         true,
	Insertions:  true,
	Quality:     QualMapQ,
	FlagExclude: int(sam.Unmapped | sam.Secondary | sam.QCFail | sam.Duplicate),
	MinBaseQual: 13,
}

func (o *Opts) validate() error {
	if o.Width <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("tview: width must be positive, got %d", o.Width))
	}
	if o.Shift < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("tview: shift must be non-negative, got %d", o.Shift))
	}
	if o.Mode != Nucleotide && o.Mode != ColorSpace {
		return errors.E(errors.Invalid, fmt.Sprintf("tview: unknown base mode %d", o.Mode))
	}
	if _, ok := qualitySourceNamesByValue()[o.Quality]; !ok {
		return errors.E(errors.Invalid, fmt.Sprintf("tview: unknown quality source %d", o.Quality))
	}
	return nil
}

func qualitySourceNamesByValue() map[QualitySource]string {
	m := make(map[QualitySource]string, len(qualitySourceNames))
	for name, v := range qualitySourceNames {
		m[v] = name
	}
	return m
}
