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

/*
bio-tview prints a text alignment view of a coordinate-sorted, indexed BAM
file, like "samtools tview -d T": reads are stacked against the reference,
with '.' and ',' for bases that match it on the forward and reverse strand.

The first row is a ruler with 1-based positions, the second the reference
('*' where some read has an insertion), and every further row holds reads.

Sample usage:
bio-tview -region chr1:1000000 -width 120 my.bam ref.fa

bio-tview -regions regions.txt -name my.bam

Without -region, -regions or -bed, the start of the first reference sequence
is shown.  With -regions or -bed, each window is preceded by a "> region"
line; regions that can't be resolved are reported and skipped, and the exit
status is nonzero.
*/
package main
