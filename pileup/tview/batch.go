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
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/tview/interval"
)

// PassFunc consumes the result of one batch pass.  label is the input line or
// BED interval that produced it.
type PassFunc func(label string, p *Pass) error

// WritePass returns a PassFunc that writes the label and the screen of every
// pass to out, separated by blank lines.
func WritePass(out io.Writer) PassFunc {
	return func(label string, p *Pass) error {
		if _, err := fmt.Fprintf(out, "\n\n> %s\n", label); err != nil {
			return err
		}
		if err := p.Dump(out); err != nil {
			return err
		}
		_, err := io.WriteString(out, "\n")
		return err
	}
}

// RenderBatch renders one region per line of r and writes the results to out
// (see WritePass).  Blank lines and lines starting with '#' are ignored.
// Regions that don't parse or name an unknown sequence are logged and counted
// in nBad.  Any error while rendering a resolved region, such as a missing
// index, stops the batch.
func (v *Viewer) RenderBatch(ctx context.Context, r io.Reader, out io.Writer) (nBad int, err error) {
	return v.RenderBatchFunc(ctx, r, WritePass(out))
}

// RenderBatchFunc is RenderBatch with a custom consumer.
func (v *Viewer) RenderBatchFunc(ctx context.Context, r io.Reader, fn PassFunc) (nBad int, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		ref, entry, rerr := v.resolver.Resolve(line)
		if rerr != nil {
			log.Printf("tview: bad region %q: %v", line, rerr)
			nBad++
			continue
		}
		var pass *Pass
		if pass, err = v.Render(ctx, v.windowAt(ref, int(entry.Start0))); err != nil {
			return
		}
		if err = fn(line, pass); err != nil {
			return
		}
	}
	err = scanner.Err()
	return
}

// RenderEntries renders the window starting at every entry.  Entries on
// unknown sequences are logged and counted in nBad.
func (v *Viewer) RenderEntries(ctx context.Context, entries []interval.Entry, fn PassFunc) (nBad int, err error) {
	for _, e := range entries {
		ref := v.resolver.Lookup(e.RefName)
		if ref == nil {
			log.Printf("tview: bad interval %v: unknown sequence %q", e, e.RefName)
			nBad++
			continue
		}
		var pass *Pass
		if pass, err = v.Render(ctx, v.windowAt(ref, int(e.Start0))); err != nil {
			return
		}
		if err = fn(e.String(), pass); err != nil {
			return
		}
	}
	return
}

// RenderBED renders the window starting at every interval of a BED file,
// which may be gzipped.
func (v *Viewer) RenderBED(ctx context.Context, path string, fn PassFunc) (nBad int, err error) {
	entries, err := interval.ReadBEDFromPath(ctx, path)
	if err != nil {
		return 0, errors.E(err, "tview: reading", path)
	}
	return v.RenderEntries(ctx, entries, fn)
}
