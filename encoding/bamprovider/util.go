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

package bamprovider

import "github.com/grailbio/hts/sam"

// overlaps reports whether the alignment of r overlaps [start, limit) on ref.
func overlaps(r *sam.Record, ref *sam.Reference, start, limit int) bool {
	if r.Ref == nil || r.Ref.ID() != ref.ID() {
		return false
	}
	if r.Pos >= limit {
		return false
	}
	end := r.End()
	if end == r.Pos {
		// No reference bases, e.g. an unmapped read placed at its mate.
		end++
	}
	return end > start
}
