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

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/tview/encoding/bamprovider"
	"github.com/grailbio/tview/pileup"
	"github.com/grailbio/tview/pileup/tview"
)

var (
	region       = flag.String("region", "", "Show the window starting at this region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>")
	regionsPath  = flag.String("regions", "", "File with one region per line, each shown in turn; '-' reads stdin")
	bedPath      = flag.String("bed", "", "BED file; the window starting at each interval is shown in turn")
	bamIndexPath = flag.String("index", "", "Input BAM index path. Defaults to bampath + .bai")
	width        = flag.Int("width", tview.DefaultOpts.Width, "Display width, in columns")
	shift        = flag.Int("shift", tview.DefaultOpts.Shift, "Start each window this many bases left of the requested position")
	dot          = flag.Bool("dot", tview.DefaultOpts.Dot, "Show bases matching the reference as '.' (forward) or ',' (reverse)")
	showName     = flag.Bool("name", tview.DefaultOpts.ShowName, "Show read names instead of bases")
	colorSpace   = flag.Bool("cs", false, "Show color-space calls (CS aux tag) instead of bases")
	insertions   = flag.Bool("ins", tview.DefaultOpts.Insertions, "Widen the display to show inserted bases")
	noSkip       = flag.Bool("no-skip", tview.DefaultOpts.NoSkip, "Show reference skips ('N' CIGAR operations) as deletions")
	quality      = flag.String("quality", tview.DefaultOpts.Quality.String(), "Emphasis source for -emphasis: mapq, baseq, nucl, col or colq")
	emphasis     = flag.Bool("emphasis", false, "Print a grid of emphasis digits below each window")
	checksum     = flag.Bool("checksum", false, "Print a 64-bit hash of each window instead of the window")
	flagExclude  = flag.Int("flag-exclude", tview.DefaultOpts.FlagExclude, "Reads with a FLAG bit intersecting this value are skipped")
	mapq         = flag.Int("mapq", tview.DefaultOpts.MinMapQ, "Reads with MAPQ below this level are skipped")
	minBaseQual  = flag.Int("min-base-qual", tview.DefaultOpts.MinBaseQual, "Bases below this quality don't count toward the consensus")
	writeFai     = flag.Bool("write-fai", false, "Write fapath.fai if it doesn't exist yet")
)

func init() {
	// samtools tview spellings.
	flag.StringVar(region, "g", "", "Alias of -region")
	flag.StringVar(regionsPath, "f", "", "Alias of -regions")
	flag.IntVar(width, "X", tview.DefaultOpts.Width, "Alias of -width")
	flag.IntVar(shift, "T", tview.DefaultOpts.Shift, "Alias of -shift")
}

func bioTviewUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath [fapath]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

// openRegions opens the region list at path, decompressing it if needed.
func openRegions(ctx context.Context, path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	r, _ := compress.NewReader(in.Reader(ctx))
	return r, func() error {
		err := r.Close()
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
		return err
	}, nil
}

// openReference opens the FASTA file, indexing it first if requested.
func openReference(ctx context.Context, fapath string) (tview.Reference, func() error, error) {
	if *writeFai {
		if _, err := file.Stat(ctx, fapath+".fai"); err != nil {
			log.Printf("indexing %s", fapath)
			if err := pileup.IndexFa(ctx, fapath); err != nil {
				return nil, nil, err
			}
		}
	}
	fa, closer, err := pileup.OpenFa(ctx, fapath)
	if err != nil {
		return nil, nil, err
	}
	return tview.FastaReference{Fasta: fa}, closer, nil
}

// passWriter formats the result of one pass.
type passWriter struct {
	w    io.Writer
	grid *tview.EmphasisGrid
}

func (pw passWriter) write(label string, p *tview.Pass) error {
	if label != "" {
		if _, err := fmt.Fprintf(pw.w, "\n\n> %s\n", label); err != nil {
			return err
		}
	}
	if *checksum {
		if _, err := fmt.Fprintf(pw.w, "%v\t%016x\n", p.Window, p.Screen.Checksum()); err != nil {
			return err
		}
	} else {
		if err := p.Dump(pw.w); err != nil {
			return err
		}
		if pw.grid != nil {
			if _, err := io.WriteString(pw.w, "\n"); err != nil {
				return err
			}
			if err := pw.grid.Dump(pw.w); err != nil {
				return err
			}
		}
	}
	if label != "" {
		_, err := io.WriteString(pw.w, "\n")
		return err
	}
	return nil
}

func run(ctx context.Context, bampath, fapath string, out io.Writer) (nBad int, err error) {
	opts := tview.DefaultOpts
	opts.Width = *width
	opts.Shift = *shift
	opts.Dot = *dot
	opts.ShowName = *showName
	opts.Insertions = *insertions
	opts.NoSkip = *noSkip
	opts.FlagExclude = *flagExclude
	opts.MinMapQ = *mapq
	opts.MinBaseQual = *minBaseQual
	if *colorSpace {
		opts.Mode = tview.ColorSpace
	}
	if opts.Quality, err = tview.ParseQualitySource(*quality); err != nil {
		return 0, err
	}
	pw := passWriter{w: out}
	if *emphasis {
		pw.grid = tview.NewEmphasisGrid(opts.Width)
		opts.Painter = pw.grid
	}

	provider := bamprovider.NewProvider(bampath, bamprovider.ProviderOpts{Index: *bamIndexPath})
	defer func() {
		if e := provider.Close(); e != nil && err == nil {
			err = e
		}
	}()
	var ref tview.Reference
	if fapath != "" {
		var closer func() error
		if ref, closer, err = openReference(ctx, fapath); err != nil {
			return 0, err
		}
		defer func() {
			if e := closer(); e != nil && err == nil {
				err = e
			}
		}()
	}
	v, err := tview.NewViewer(tview.ProviderStore{Provider: provider}, ref, opts)
	if err != nil {
		return 0, err
	}

	var pass *tview.Pass
	switch {
	case *regionsPath != "":
		r, closer, err := openRegions(ctx, *regionsPath)
		if err != nil {
			return 0, err
		}
		nBad, err = v.RenderBatchFunc(ctx, r, pw.write)
		if e := closer(); e != nil && err == nil {
			err = e
		}
		return nBad, err
	case *bedPath != "":
		return v.RenderBED(ctx, *bedPath, pw.write)
	case *region != "":
		pass, err = v.RenderRegion(ctx, *region)
	default:
		pass, err = v.RenderDefault(ctx)
	}
	if err != nil {
		return 0, err
	}
	return 0, pw.write("", pass)
}

func main() {
	flag.Usage = bioTviewUsage
	shutdown := grail.Init()

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		log.Fatalf("Expected bampath and an optional fapath; please check flag syntax: '%s'", strings.Join(args, " "))
	}
	if *regionsPath != "" && *bedPath != "" {
		log.Fatalf("-regions and -bed are mutually exclusive")
	}
	fapath := ""
	if len(args) == 2 {
		fapath = args[1]
	}
	ctx := vcontext.Background()
	out := bufio.NewWriter(os.Stdout)
	nBad, err := run(ctx, args[0], fapath, out)
	if e := out.Flush(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
	shutdown()
	if nBad > 0 {
		log.Printf("%d regions could not be shown", nBad)
		os.Exit(1)
	}
}
