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

import "math"

// FuncKind is the tagged enumeration used to dispatch aggregate
// functions in constant time (spec.md §9: "Function dispatch by string
// name → tagged enumeration").
type FuncKind int

const (
	FuncSum FuncKind = iota
	FuncMean
	FuncSD
	FuncMax
	FuncMin
	FuncCount
	FuncPercent
	FuncMedian
	FuncIQR
	FuncPctile
	FuncFirst
	FuncLast
	FuncFirstNM
	FuncLastNM
	FuncTag
	FuncGroup
)

// AggSpec is one requested (function, value-column) pair. P is only
// meaningful for FuncPctile. Values is the value column aligned to
// original row indices (length N); it is ignored for FuncPercent,
// FuncTag, and FuncGroup, which do not read a value column.
//
// median is treated as an alias for pctile(50), per the resolution of
// the "mf_code_fun encodes median as 50" open question in spec.md §9:
// FuncMedian and FuncPctile{P: 50} must produce identical results.
type AggSpec struct {
	Kind   FuncKind
	P      float64
	Values []float64
}

// AggregateResult holds the per-group reduced values (one []float64 of
// length J per requested spec, in request order) plus the two row-level
// outputs (Tag, GroupLabel) that every invocation computes once,
// populated regardless of whether they were requested, since they are
// O(M) to produce and are needed to broadcast group-level results back
// onto rows in non-reduced output mode.
type AggregateResult struct {
	GroupValues [][]float64 // len(specs) x J; entries for Tag/Group kinds are nil
	Tag         []uint8     // length M, aligned with perm order
	GroupLabel  []uint64    // length M, aligned with perm order, values 1..J
}

// validateSpecs enforces the invariant-violation class of errors from
// spec.md §7: a negative or out-of-range percentile is a caller bug,
// not a runtime condition to recover from.
func validateSpecs(specs []AggSpec) error {
	for i, s := range specs {
		if s.Kind == FuncPctile && (s.P <= 0 || s.P > 100) {
			return newErr(CodeInvariantViolation, "spec %d: percentile %g out of range (0, 100]", i, s.P)
		}
	}
	return nil
}

// aggregate implements C5: apply every requested function to every
// group range, reading grouped values through perm/info.
func aggregate(perm []Idx, info []uint64, specs []AggSpec) (*AggregateResult, error) {
	if err := validateSpecs(specs); err != nil {
		return nil, err
	}

	n := len(perm)
	j := len(info) - 1
	if j < 0 {
		return nil, newErr(CodeInvariantViolation, "info[] must have at least one entry")
	}

	res := &AggregateResult{
		GroupValues: make([][]float64, len(specs)),
		Tag:         make([]uint8, n),
		GroupLabel:  make([]uint64, n),
	}

	for g := 0; g < j; g++ {
		s, e := info[g], info[g+1]
		if s < e {
			res.Tag[s] = 1
		}
		for k := s; k < e; k++ {
			res.GroupLabel[k] = uint64(g + 1)
		}
	}

	raw := make([]float64, 0, 64)
	for si, spec := range specs {
		switch spec.Kind {
		case FuncTag, FuncGroup:
			continue
		}
		out := make([]float64, j)
		for g := 0; g < j; g++ {
			s, e := info[g], info[g+1]
			if spec.Kind == FuncPercent {
				// FuncPercent reads no value column; it is a statement
				// about group size relative to the total, not a
				// per-value-column reduction.
				out[g] = reduceGroup(nil, spec.Kind, spec.P, int(e-s), n)
				continue
			}
			raw = raw[:0]
			for k := s; k < e; k++ {
				raw = append(raw, spec.Values[perm[k]])
			}
			out[g] = reduceGroup(raw, spec.Kind, spec.P, int(e-s), n)
		}
		res.GroupValues[si] = out
	}
	return res, nil
}

// reduceGroup applies one function to one group's raw values, which
// must already be in original row order (guaranteed by the sorter's
// stability invariant for rows sharing a fingerprint).
func reduceGroup(raw []float64, kind FuncKind, p float64, groupSize, totalRows int) float64 {
	switch kind {
	case FuncSum:
		sum, n := sumNonMissing(raw)
		if n == 0 {
			return MissingFloat64()
		}
		return sum
	case FuncMean:
		sum, n := sumNonMissing(raw)
		if n == 0 {
			return MissingFloat64()
		}
		return sum / float64(n)
	case FuncSD:
		return sdOf(raw)
	case FuncMax:
		return extremumNonMissing(raw, false)
	case FuncMin:
		return extremumNonMissing(raw, true)
	case FuncCount:
		_, n := sumNonMissing(raw)
		return float64(n)
	case FuncPercent:
		if totalRows == 0 {
			return MissingFloat64()
		}
		return 100.0 * float64(groupSize) / float64(totalRows)
	case FuncMedian:
		return medianOf(raw)
	case FuncIQR:
		return iqrOf(raw)
	case FuncPctile:
		return percentileOf(raw, p)
	case FuncFirst:
		if len(raw) == 0 {
			return MissingFloat64()
		}
		return raw[0]
	case FuncLast:
		if len(raw) == 0 {
			return MissingFloat64()
		}
		return raw[len(raw)-1]
	case FuncFirstNM:
		for _, x := range raw {
			if !isMissingFloat64(x) {
				return x
			}
		}
		return MissingFloat64()
	case FuncLastNM:
		for i := len(raw) - 1; i >= 0; i-- {
			if !isMissingFloat64(raw[i]) {
				return raw[i]
			}
		}
		return MissingFloat64()
	default:
		panic("reduceGroup: unhandled FuncKind")
	}
}

func sumNonMissing(raw []float64) (sum float64, n int) {
	for _, x := range raw {
		if !isMissingFloat64(x) {
			sum += x
			n++
		}
	}
	return
}

func sdOf(raw []float64) float64 {
	var vals []float64
	for _, x := range raw {
		if !isMissingFloat64(x) {
			vals = append(vals, x)
		}
	}
	n := len(vals)
	if n < 2 {
		return MissingFloat64()
	}
	var mean float64
	for _, x := range vals {
		mean += x
	}
	mean /= float64(n)
	var ss float64
	for _, x := range vals {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

func extremumNonMissing(raw []float64, wantMin bool) float64 {
	found := false
	best := 0.0
	for _, x := range raw {
		if isMissingFloat64(x) {
			continue
		}
		if !found {
			best, found = x, true
			continue
		}
		if (wantMin && x < best) || (!wantMin && x > best) {
			best = x
		}
	}
	if !found {
		return MissingFloat64()
	}
	return best
}
