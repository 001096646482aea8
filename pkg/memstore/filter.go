package memstore

import (
	"reflect"
	"strings"
	"time"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// matchesFilter reports whether a document satisfies every term of a
// filter. A term is either a literal value compared for equality or an
// operator document such as {"$gt": 21}. A nil term matches documents
// where the field is nil or missing, mirroring MongoDB's null semantics.
func matchesFilter(doc domain.Document, filter domain.Document) bool {
	for field, cond := range filter {
		val, present := doc[field]
		switch c := cond.(type) {
		case map[string]interface{}:
			if !matchTerm(val, present, c) {
				return false
			}
		case domain.Document:
			if !matchTerm(val, present, c) {
				return false
			}
		default:
			if !valuesEqual(val, cond) {
				return false
			}
		}
	}
	return true
}

func matchTerm(val interface{}, present bool, cond map[string]interface{}) bool {
	if !isOperatorDoc(cond) {
		return valuesEqual(val, cond)
	}
	for op, arg := range cond {
		if !matchOperator(val, present, op, arg) {
			return false
		}
	}
	return true
}

func isOperatorDoc(m map[string]interface{}) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func matchOperator(val interface{}, present bool, op string, arg interface{}) bool {
	switch op {
	case "$in":
		return inList(val, arg)
	case "$nin":
		return !inList(val, arg)
	case "$ne":
		return !valuesEqual(val, arg)
	case "$gt":
		c, ok := compareOrdered(val, arg)
		return ok && c > 0
	case "$gte":
		c, ok := compareOrdered(val, arg)
		return ok && c >= 0
	case "$lt":
		c, ok := compareOrdered(val, arg)
		return ok && c < 0
	case "$lte":
		c, ok := compareOrdered(val, arg)
		return ok && c <= 0
	case "$exists":
		want, ok := arg.(bool)
		return ok && present == want
	default:
		return false
	}
}

func inList(val interface{}, arg interface{}) bool {
	switch list := arg.(type) {
	case []interface{}:
		for _, item := range list {
			if valuesEqual(val, item) {
				return true
			}
		}
	case []string:
		for _, item := range list {
			if valuesEqual(val, item) {
				return true
			}
		}
	}
	return false
}

// valuesEqual compares two values the way a filter does: numbers compare
// across Go types, strings compare exactly, times compare by instant.
func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat64(a); ok {
		fb, ok := toFloat64(b)
		return ok && fa == fb
	}
	switch at := a.(type) {
	case string:
		bt, ok := b.(string)
		return ok && at == bt
	case bool:
		bt, ok := b.(bool)
		return ok && at == bt
	case time.Time:
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return reflect.DeepEqual(a, b)
}

const (
	rankNil = iota
	rankNumber
	rankString
	rankBool
	rankTime
	rankOther
)

func typeRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return rankNil
	case string:
		return rankString
	case bool:
		return rankBool
	case time.Time:
		return rankTime
	}
	if _, ok := toFloat64(v); ok {
		return rankNumber
	}
	return rankOther
}

// compareOrdered compares two values of the same orderable kind. The
// second return is false when the pair has no defined order, which makes
// every range operator miss, the same way MongoDB skips documents of a
// different type.
func compareOrdered(a, b interface{}) (int, bool) {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return 0, false
	}
	switch ra {
	case rankNumber:
		fa, _ := toFloat64(a)
		fb, _ := toFloat64(b)
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	case rankString:
		return strings.Compare(a.(string), b.(string)), true
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time)), true
	}
	return 0, false
}

// compareValues orders any two values for sorting. Values of different
// kinds order by kind, so mixed-type fields still sort deterministically.
func compareValues(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case !ab && bb:
			return -1
		case ab && !bb:
			return 1
		}
		return 0
	default:
		if c, ok := compareOrdered(a, b); ok {
			return c
		}
		return 0
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
