// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package group

import (
	"testing"

	"github.com/spaolacci/murmur3"
)

func TestInvokeRejectsEmptyByColumns(t *testing.T) {
	ctx := NewEngineContext()
	_, err := Invoke(ctx, EngineOptions{N: 3})
	if err == nil {
		t.Fatal("expected a schema-rejection error for zero by-columns")
	}
	ee, ok := err.(*EngineError)
	if !ok {
		t.Fatalf("expected *EngineError, got %T", err)
	}
	if ee.Code != CodeUnsupportedSchema {
		t.Fatalf("code = %v, want CodeUnsupportedSchema", ee.Code)
	}
}

func TestInvokeRejectsEmptyRows(t *testing.T) {
	by := Int64Column{}
	ctx := NewEngineContext()
	_, err := Invoke(ctx, EngineOptions{
		Columns: []ColumnView{by},
		Schema:  Schema{Columns: []ColumnSpec{{Kind: KindInt64}}},
		N:       0,
	})
	if err == nil {
		t.Fatal("expected an empty-input error for zero rows")
	}
	ee, ok := err.(*EngineError)
	if !ok {
		t.Fatalf("expected *EngineError, got %T", err)
	}
	if ee.Code != CodeEmptyInput {
		t.Fatalf("code = %v, want CodeEmptyInput", ee.Code)
	}
}

func TestInvokeReducedModeSingleGroup(t *testing.T) {
	by := Int64Column{1, 1, 1}
	values := []float64{2.0, 3.0, 5.0}

	ctx := NewEngineContext()
	res, err := Invoke(ctx, EngineOptions{
		Columns: []ColumnView{by},
		Schema:  Schema{Columns: []ColumnSpec{{Kind: KindInt64}}},
		N:       3,
		Specs:   []AggSpec{{Kind: FuncSum, Values: values}},
		Reduce:  true,
	})
	if err != nil {
		t.Fatalf("Invoke: %s", err)
	}
	if res.J != 1 {
		t.Fatalf("J = %d, want 1", res.J)
	}
	if res.M != 3 {
		t.Fatalf("M = %d, want 3", res.M)
	}
	if !closeEnough(res.GroupValues[0][0], 10.0) {
		t.Fatalf("sum = %v, want 10.0", res.GroupValues[0][0])
	}
}

func TestInvokeBroadcastModeMatchesGroupCount(t *testing.T) {
	by := Int64Column{1, 2, 1, 2}
	values := []float64{10, 20, 30, 40}

	ctx := NewEngineContext()
	res, err := Invoke(ctx, EngineOptions{
		Columns: []ColumnView{by},
		Schema:  Schema{Columns: []ColumnSpec{{Kind: KindInt64}}},
		N:       4,
		Specs:   []AggSpec{{Kind: FuncSum, Values: values}},
		Reduce:  false,
	})
	if err != nil {
		t.Fatalf("Invoke: %s", err)
	}
	if res.J != 2 {
		t.Fatalf("J = %d, want 2", res.J)
	}
	if len(res.GroupValues[0]) != res.M {
		t.Fatalf("broadcast output length = %d, want M = %d", len(res.GroupValues[0]), res.M)
	}
	// every row's broadcast value must equal its group's sum
	for i, g := range res.GroupLabel {
		groupRowSum := map[uint64]float64{1: 40, 2: 60}[g]
		if !closeEnough(res.GroupValues[0][i], groupRowSum) {
			t.Fatalf("row %d: broadcast sum = %v, want %v", i, res.GroupValues[0][i], groupRowSum)
		}
	}
}

// TestInvokeBijectionVsHashEquivalence matches spec.md §8 scenario 6:
// forcing HashMode on an all-integer schema must produce the same
// grouping and aggregates as the default BijectMode fast path.
func TestInvokeBijectionVsHashEquivalence(t *testing.T) {
	col0 := Int64Column{0, 0, 1, 0}
	col1 := Int64Column{0, 1, 0, 0}
	values := []float64{1, 2, 3, 4}
	schema := Schema{Columns: []ColumnSpec{{Kind: KindInt64}, {Kind: KindInt64}}}

	biject, err := Invoke(NewEngineContext(), EngineOptions{
		Columns: []ColumnView{col0, col1},
		Schema:  schema,
		N:       4,
		Specs:   []AggSpec{{Kind: FuncSum, Values: values}, {Kind: FuncCount, Values: values}},
		Reduce:  true,
	})
	if err != nil {
		t.Fatalf("Invoke (biject): %s", err)
	}
	if biject.J != 3 {
		t.Fatalf("expected 3 distinct by-tuples, got J=%d", biject.J)
	}

	// force HashMode by hashing directly, bypassing the biject fast path,
	// then driving the remaining stages exactly like Invoke does.
	fp, perm, err := hashRows([]ColumnView{col0, col1}, schema, 4, nil, nil)
	if err != nil {
		t.Fatalf("hashRows: %s", err)
	}
	fp.Mode = HashMode
	if fp.H2 == nil {
		image := make([]byte, 0, 16)
		fp.H1 = make([]uint64, len(perm))
		fp.H2 = make([]uint64, len(perm))
		for i, row := range perm {
			image = canonicalImage(image[:0], []ColumnView{col0, col1}, schema, int(row))
			a, b := murmur3.Sum128(image)
			fp.H1[i], fp.H2[i] = a, b
		}
	}
	pos := make([]Idx, len(perm))
	for i := range pos {
		pos[i] = Idx(i)
	}
	sortHash(fp.H1, pos)
	sortedPerm := make([]Idx, len(perm))
	sortedH2 := make([]uint64, len(perm))
	for i, p := range pos {
		sortedPerm[i], sortedH2[i] = perm[p], fp.H2[p]
	}
	perm, fp.H2 = sortedPerm, sortedH2
	info, _ := panelSetup(fp.H1, fp.H2, perm, HashMode)
	agg, err := aggregate(perm, info, []AggSpec{{Kind: FuncSum, Values: values}, {Kind: FuncCount, Values: values}})
	if err != nil {
		t.Fatalf("aggregate: %s", err)
	}
	if len(info)-1 != biject.J {
		t.Fatalf("HashMode J = %d, BijectMode J = %d, want equal", len(info)-1, biject.J)
	}

	bijectSums := make(map[float64]bool, len(biject.GroupValues[0]))
	for _, v := range biject.GroupValues[0] {
		bijectSums[v] = true
	}
	for _, v := range agg.GroupValues[0] {
		if !bijectSums[v] {
			t.Fatalf("HashMode produced sum %v not present among BijectMode sums %v", v, biject.GroupValues[0])
		}
	}
}
