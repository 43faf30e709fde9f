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
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/tview/interval"
)

// Viewer renders windows of an AlignmentStore.  It is not safe for
// concurrent use: all passes share one Screen.
type Viewer struct {
	store    AlignmentStore
	ref      Reference
	opts     Opts
	header   *sam.Header
	resolver interval.Resolver
	r        renderer
}

// Pass is the result of rendering one window.  Screen is owned by the Viewer
// and is overwritten by the next pass; Calls belongs to the Pass.
type Pass struct {
	Window Window
	Screen *Screen
	// Calls holds the consensus call of every drawn position that at least
	// one read covers.
	Calls []ColumnCall
	// Depth is the number of stacking levels used.
	Depth int
}

// Dump writes the screen of the pass.
func (p *Pass) Dump(w io.Writer) error { return p.Screen.Dump(w) }

// NewViewer creates a Viewer.  ref may be nil, in which case the reference
// track shows 'N' and every base differs from the reference.
func NewViewer(store AlignmentStore, ref Reference, opts Opts) (*Viewer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	header, err := store.GetHeader()
	if err != nil {
		return nil, errors.E(err, "tview: reading header")
	}
	if opts.ErrorModel == nil {
		opts.ErrorModel = PhredErrorModel{}
	}
	v := &Viewer{
		store:    store,
		ref:      ref,
		opts:     opts,
		header:   header,
		resolver: interval.Resolver{Header: header},
	}
	v.r = renderer{
		opts:   &v.opts,
		screen: NewScreen(opts.Width),
		caller: consensusCaller{em: opts.ErrorModel, minBaseQual: opts.MinBaseQual},
	}
	return v, nil
}

// Header returns the header of the alignment store.
func (v *Viewer) Header() *sam.Header { return v.header }

// Render draws window w.
func (v *Viewer) Render(ctx context.Context, w Window) (*Pass, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	if v.r.screen.Width() != w.Width {
		v.r.screen = NewScreen(w.Width)
	}
	bases, err := v.fetchReference(w)
	if err != nil {
		return nil, err
	}
	v.r.reset(w.Start, bases)

	iter := v.store.Query(w.Ref, w.Start, w.End())
	a := NewAssembler(iter, w, &v.opts)
	for !v.r.full() && a.Scan() {
		v.r.column(a.Column())
	}
	err = a.Err()
	if cerr := iter.Close(); cerr != nil && err == nil {
		err = errors.E(cerr, "tview: closing query for", w.String())
	}
	if err != nil {
		return nil, err
	}
	v.r.fillTo(w.End())
	log.Debug.Printf("tview: rendered %v: %d columns, %d rows", w, v.r.ccol, v.r.screen.NRows())
	return &Pass{
		Window: w,
		Screen: v.r.screen,
		Calls:  v.r.calls,
		Depth:  a.Depth(),
	}, nil
}

// fetchReference returns the reference bases of w, nil if there is no
// reference or it lacks the sequence.
func (v *Viewer) fetchReference(w Window) ([]byte, error) {
	if v.ref == nil {
		return nil, nil
	}
	bases, err := v.ref.Fetch(w.Ref.Name(), w.Start, w.End())
	if err != nil {
		if errors.Is(errors.NotExist, err) {
			log.Printf("tview: reference sequence %s not found, showing N", w.Ref.Name())
			return nil, nil
		}
		return nil, errors.E(err, "tview: fetching reference for", w.String())
	}
	if len(bases) > w.Width {
		bases = bases[:w.Width]
	}
	return bases, nil
}

// windowAt returns the window that shows start0 of ref, after applying the
// configured shift.
func (v *Viewer) windowAt(ref *sam.Reference, start0 int) Window {
	start := start0 - v.opts.Shift
	if start < 0 {
		start = 0
	}
	return Window{Ref: ref, Start: start, Width: v.opts.Width}
}

// RenderRegion draws the window starting at a samtools-style region.  Only
// the start of the region is used; the window is always Opts.Width wide.
func (v *Viewer) RenderRegion(ctx context.Context, region string) (*Pass, error) {
	ref, entry, err := v.resolver.Resolve(region)
	if err != nil {
		return nil, err
	}
	return v.Render(ctx, v.windowAt(ref, int(entry.Start0)))
}

// RenderDefault draws the start of the first reference sequence.
func (v *Viewer) RenderDefault(ctx context.Context) (*Pass, error) {
	refs := v.header.Refs()
	if len(refs) == 0 {
		return nil, errors.E(errors.NotExist, "tview: header has no reference sequences")
	}
	return v.Render(ctx, v.windowAt(refs[0], 0))
}
