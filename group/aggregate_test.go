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
	"math"
	"testing"
)

// TestAggregateSingleGroupSumMeanSD matches spec.md §8 scenario 2.
func TestAggregateSingleGroupSumMeanSD(t *testing.T) {
	values := []float64{2.0, 3.0, 5.0}
	perm := []Idx{0, 1, 2}
	info := []uint64{0, 3}
	specs := []AggSpec{
		{Kind: FuncSum, Values: values},
		{Kind: FuncMean, Values: values},
		{Kind: FuncSD, Values: values},
	}

	res, err := aggregate(perm, info, specs)
	if err != nil {
		t.Fatalf("aggregate: %s", err)
	}
	if !closeEnough(res.GroupValues[0][0], 10.0) {
		t.Fatalf("sum = %v, want 10.0", res.GroupValues[0][0])
	}
	wantMean := 10.0 / 3.0
	if !closeEnough(res.GroupValues[1][0], wantMean) {
		t.Fatalf("mean = %v, want %v", res.GroupValues[1][0], wantMean)
	}
	wantSD := math.Sqrt((math.Pow(2-wantMean, 2) + math.Pow(3-wantMean, 2) + math.Pow(5-wantMean, 2)) / 2)
	if !closeEnough(res.GroupValues[2][0], wantSD) {
		t.Fatalf("sd = %v, want %v", res.GroupValues[2][0], wantSD)
	}
}

// TestAggregateMissingHandling matches spec.md §8 scenario 4.
func TestAggregateMissingHandling(t *testing.T) {
	values := []float64{MissingFloat64(), 2.0, 4.0}
	perm := []Idx{0, 1, 2}
	info := []uint64{0, 3}
	specs := []AggSpec{
		{Kind: FuncSum, Values: values},
		{Kind: FuncMean, Values: values},
		{Kind: FuncCount, Values: values},
		{Kind: FuncFirstNM, Values: values},
		{Kind: FuncFirst, Values: values},
	}

	res, err := aggregate(perm, info, specs)
	if err != nil {
		t.Fatalf("aggregate: %s", err)
	}
	if !closeEnough(res.GroupValues[0][0], 6.0) {
		t.Fatalf("sum = %v, want 6.0", res.GroupValues[0][0])
	}
	if !closeEnough(res.GroupValues[1][0], 3.0) {
		t.Fatalf("mean = %v, want 3.0", res.GroupValues[1][0])
	}
	if res.GroupValues[2][0] != 2.0 {
		t.Fatalf("count = %v, want 2", res.GroupValues[2][0])
	}
	if !closeEnough(res.GroupValues[3][0], 2.0) {
		t.Fatalf("firstnm = %v, want 2.0", res.GroupValues[3][0])
	}
	if !isMissingFloat64(res.GroupValues[4][0]) {
		t.Fatalf("first = %v, want missing", res.GroupValues[4][0])
	}
}

func TestAggregateMultipleGroups(t *testing.T) {
	// two groups of two rows each, already in sorted/grouped order
	values := []float64{1, 2, 10, 20}
	perm := []Idx{0, 1, 2, 3}
	info := []uint64{0, 2, 4}
	specs := []AggSpec{
		{Kind: FuncSum, Values: values},
		{Kind: FuncCount, Values: values},
		{Kind: FuncPercent},
	}

	res, err := aggregate(perm, info, specs)
	if err != nil {
		t.Fatalf("aggregate: %s", err)
	}
	if res.GroupValues[0][0] != 3 || res.GroupValues[0][1] != 30 {
		t.Fatalf("sums = %v, want [3 30]", res.GroupValues[0])
	}
	if res.GroupValues[1][0] != 2 || res.GroupValues[1][1] != 2 {
		t.Fatalf("counts = %v, want [2 2]", res.GroupValues[1])
	}
	if !closeEnough(res.GroupValues[2][0], 50.0) || !closeEnough(res.GroupValues[2][1], 50.0) {
		t.Fatalf("percent = %v, want [50 50]", res.GroupValues[2])
	}
}

func TestAggregateTagAndGroupLabels(t *testing.T) {
	perm := []Idx{3, 1, 0, 2}
	info := []uint64{0, 2, 4}
	specs := []AggSpec{{Kind: FuncTag}, {Kind: FuncGroup}}

	res, err := aggregate(perm, info, specs)
	if err != nil {
		t.Fatalf("aggregate: %s", err)
	}
	if res.GroupValues[0] != nil || res.GroupValues[1] != nil {
		t.Fatal("Tag/Group specs must not populate GroupValues")
	}
	wantTag := []uint8{1, 0, 1, 0}
	for i, v := range wantTag {
		if res.Tag[i] != v {
			t.Fatalf("Tag[%d] = %d, want %d", i, res.Tag[i], v)
		}
	}
	wantLabel := []uint64{1, 1, 2, 2}
	for i, v := range wantLabel {
		if res.GroupLabel[i] != v {
			t.Fatalf("GroupLabel[%d] = %d, want %d", i, res.GroupLabel[i], v)
		}
	}
}

func TestAggregateRejectsOutOfRangePercentile(t *testing.T) {
	specs := []AggSpec{{Kind: FuncPctile, P: 0}}
	_, err := aggregate([]Idx{0}, []uint64{0, 1}, specs)
	if err == nil {
		t.Fatal("expected an invariant-violation error for percentile 0")
	}
	specs = []AggSpec{{Kind: FuncPctile, P: 150}}
	_, err = aggregate([]Idx{0}, []uint64{0, 1}, specs)
	if err == nil {
		t.Fatal("expected an invariant-violation error for percentile 150")
	}
}

func TestMedianAliasesPctile50(t *testing.T) {
	values := []float64{5, 1, 9, 3, 7}
	perm := []Idx{0, 1, 2, 3, 4}
	info := []uint64{0, 5}
	specs := []AggSpec{
		{Kind: FuncMedian, Values: values},
		{Kind: FuncPctile, P: 50, Values: values},
	}
	res, err := aggregate(perm, info, specs)
	if err != nil {
		t.Fatalf("aggregate: %s", err)
	}
	if !closeEnough(res.GroupValues[0][0], res.GroupValues[1][0]) {
		t.Fatalf("median = %v, pctile(50) = %v, want equal", res.GroupValues[0][0], res.GroupValues[1][0])
	}
}
