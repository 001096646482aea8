package query

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// Errors reported while parsing criteria. Everything wraps
// ErrInvalidCriteria so callers can classify with a single errors.Is.
var (
	ErrInvalidCriteria = errors.New("invalid criteria")
	ErrInvalidGroupBy  = fmt.Errorf("%w: cannot group by a field without a sum, average, min, or max calculation", ErrInvalidCriteria)
)

// Options carries the paging and ordering modifiers of a query.
type Options struct {
	Sort  map[string]int
	Skip  int64
	Limit int64
}

// GroupSpec describes an aggregation: which fields to group on and which
// to run calculations over. An empty By collapses everything matched into
// a single group.
type GroupSpec struct {
	By      []string
	Sum     []string
	Average []string
	Min     []string
	Max     []string
}

// Query is the parsed, backend-ready form of a criteria map. Where uses
// native field names, so an incoming "id" key has already been renamed
// to "_id".
type Query struct {
	Where   domain.Document
	Options Options
	Group   *GroupSpec
}

// Aggregate reports whether the query has to run as a grouping pipeline
// instead of a plain find.
func (q *Query) Aggregate() bool {
	return q.Group != nil
}

var modifierKeys = map[string]bool{
	"where":   true,
	"limit":   true,
	"skip":    true,
	"sort":    true,
	"groupBy": true,
	"sum":     true,
	"average": true,
	"min":     true,
	"max":     true,
}

// Parse validates a criteria map and turns it into a Query. Nil and empty
// criteria select everything. A map containing none of the criteria
// modifiers is shorthand for {where: ...}; mixing a bare filter with
// modifiers is rejected so a typo never silently becomes a filter term.
func Parse(criteria map[string]interface{}) (*Query, error) {
	q := &Query{}
	if len(criteria) == 0 {
		return q, nil
	}

	known := 0
	var unknown []string
	for k := range criteria {
		if modifierKeys[k] {
			known++
		} else {
			unknown = append(unknown, k)
		}
	}
	if known == 0 {
		q.Where = normalizeWhere(criteria)
		return q, nil
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown criteria modifier %q", ErrInvalidCriteria, strings.Join(unknown, ", "))
	}

	var group GroupSpec
	for key, raw := range criteria {
		var err error
		switch key {
		case "where":
			q.Where, err = parseWhere(raw)
		case "limit":
			q.Options.Limit, err = parseCount(key, raw)
		case "skip":
			q.Options.Skip, err = parseCount(key, raw)
		case "sort":
			q.Options.Sort, err = parseSort(raw)
		case "groupBy":
			group.By, err = parseFieldList(key, raw)
		case "sum":
			group.Sum, err = parseFieldList(key, raw)
		case "average":
			group.Average, err = parseFieldList(key, raw)
		case "min":
			group.Min, err = parseFieldList(key, raw)
		case "max":
			group.Max, err = parseFieldList(key, raw)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(group.Sum)+len(group.Average)+len(group.Min)+len(group.Max) > 0 {
		q.Group = &group
	} else if len(group.By) > 0 {
		return nil, ErrInvalidGroupBy
	}
	return q, nil
}

func parseWhere(raw interface{}) (domain.Document, error) {
	switch w := raw.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return normalizeWhere(w), nil
	case domain.Document:
		return normalizeWhere(w), nil
	default:
		return nil, fmt.Errorf("%w: where must be a map, got %T", ErrInvalidCriteria, raw)
	}
}

// normalizeWhere copies the filter and renames the public identifier key
// to the native one. Only the top level is rewritten; operator documents
// under "id" move along with the key.
func normalizeWhere(where map[string]interface{}) domain.Document {
	out := make(domain.Document, len(where))
	for k, v := range where {
		out[k] = v
	}
	if v, ok := out["id"]; ok {
		out["_id"] = v
		delete(out, "id")
	}
	return out
}

func parseCount(key string, raw interface{}) (int64, error) {
	n, ok := toInt64(raw)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a whole number, got %v", ErrInvalidCriteria, key, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidCriteria, key, n)
	}
	return n, nil
}

func parseSort(raw interface{}) (map[string]int, error) {
	switch s := raw.(type) {
	case map[string]interface{}:
		out := make(map[string]int, len(s))
		for field, dir := range s {
			n, ok := toInt64(dir)
			if !ok || (n != 1 && n != -1) {
				return nil, fmt.Errorf("%w: sort direction for %q must be 1 or -1, got %v", ErrInvalidCriteria, field, dir)
			}
			out[field] = int(n)
		}
		return out, nil
	case string:
		// "name ASC" / "name DESC" / bare field name.
		parts := strings.Fields(s)
		switch len(parts) {
		case 1:
			return map[string]int{parts[0]: 1}, nil
		case 2:
			switch strings.ToUpper(parts[1]) {
			case "ASC":
				return map[string]int{parts[0]: 1}, nil
			case "DESC":
				return map[string]int{parts[0]: -1}, nil
			}
		}
		return nil, fmt.Errorf("%w: cannot parse sort clause %q", ErrInvalidCriteria, s)
	default:
		return nil, fmt.Errorf("%w: sort must be a map or a string, got %T", ErrInvalidCriteria, raw)
	}
}

func parseFieldList(key string, raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s entries must be field names, got %T", ErrInvalidCriteria, key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a field name or a list of field names, got %T", ErrInvalidCriteria, key, raw)
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	case float32:
		if float32(int64(n)) == n {
			return int64(n), true
		}
	}
	return 0, false
}
