// Copyright 2026 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collections

import "testing"

func TestSetOfAndContains(t *testing.T) {
	s := SetOf("a", "b", "b")
	if len(s) != 2 {
		t.Fatalf("expected 2 distinct elements, got %d", len(s))
	}
	if !s.Contains("a") || !s.Contains("b") {
		t.Fatal("expected SetOf to contain both elements")
	}
	if s.Contains("c") {
		t.Fatal("expected Set not to contain an element never added")
	}
}

func TestToSetDeduplicates(t *testing.T) {
	s := ToSet([]int{1, 2, 2, 3})
	if len(s) != 3 {
		t.Fatalf("expected 3 distinct elements, got %d", len(s))
	}
}

func TestAddReturnsSetForChaining(t *testing.T) {
	s := make(Set[int]).Add(1).Add(2)
	if !s.Contains(1) || !s.Contains(2) {
		t.Fatal("expected chained Add calls to insert both elements")
	}
}
