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

// Package bamprovider provides range queries over coordinate-sorted BAM
// files.
//
// The Provider is an interface that yields the records overlapping a genomic
// range.  BAMProvider implements it with a BAM index; NewFakeProvider serves
// records from memory for unittests.
package bamprovider
