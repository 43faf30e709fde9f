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
Package tview renders a text alignment view of a genomic window, in the
manner of "samtools tview", without any terminal control: the result is a
character grid that can be dumped to a file.

A render pass works like this:

  1. The Viewer clears its Screen and fetches the reference bases of the
     window (if a Reference was configured).
  2. It issues one range query to the AlignmentStore and hands the records to
     an Assembler, which turns them into a stream of Columns, one per covered
     reference position.  Each read is given a stacking level (screen row)
     which it keeps for its whole span.
  3. For every Column, the consensus caller picks the best-supported genotype
     and the renderer writes the ruler, reference, and read characters into
     the Screen.  Insertions widen the display by MaxIns sub-columns.
  4. The rest of the window is padded with reference-only columns, and the
     Screen is dumped.

Row 0 of the Screen is the positional ruler, row 1 is the reference track
(with '*' in insertion sub-columns), and reads at stacking level L are drawn on
row 2+L.
*/
package tview
