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

/*Package interval turns user-supplied genomic coordinates (samtools-style
  region strings and BED lines) into 0-based half-open intervals, and resolves
  contig names against a BAM header.
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that's what BAM files are limited to.
*/
package interval
