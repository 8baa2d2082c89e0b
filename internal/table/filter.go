package table

import (
	"context"
	"fmt"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
)

// StringEntry is one row of the interned-string table a filter is
// evaluated against: a generic name alongside its kernel-symbol form,
// since kernel names and everything else share one string index but
// need different matching rules.
type StringEntry struct {
	ID           uint64
	Name         string
	KernelSymbol string
}

// ResolvedFilter is the per-event-operation clause produced by
// remapping a string-table filter through the string index: a set of
// name ids and, separately, kernel ids, since some operations key off
// name_id and others off kernel_id.
type ResolvedFilter struct {
	NameIDs   []uint64
	KernelIDs []uint64
}

// Empty reports whether the filter matched nothing, in which case the
// caller should skip adding a WHERE clause rather than emit "IN ()".
func (r ResolvedFilter) Empty() bool {
	return len(r.NameIDs) == 0 && len(r.KernelIDs) == 0
}

// ResolveStringTableFilter evaluates expr -- a gval boolean expression
// over each string-table row, with jsonpath.Get available as a
// function for expressions that need to reach into structured
// metadata -- and returns the ids of every row it selects, split by
// whether the row has a non-empty KernelSymbol.
func ResolveStringTableFilter(expr string, entries []StringEntry) (ResolvedFilter, error) {
	if expr == "" {
		return ResolvedFilter{}, nil
	}

	lang := gval.Full(
		gval.Function("jsonpath", func(path string, doc interface{}) (interface{}, error) {
			return jsonpath.Get(path, doc)
		}),
	)

	eval, err := lang.NewEvaluable(expr)
	if err != nil {
		return ResolvedFilter{}, fmt.Errorf("parse string-table filter: %w", err)
	}

	var out ResolvedFilter
	for _, e := range entries {
		params := map[string]interface{}{
			"name":          e.Name,
			"kernel_symbol": e.KernelSymbol,
			"id":            e.ID,
		}
		matched, err := eval.EvalBool(context.Background(), params)
		if err != nil {
			return ResolvedFilter{}, fmt.Errorf("evaluate string-table filter for id %d: %w", e.ID, err)
		}
		if !matched {
			continue
		}
		if e.KernelSymbol != "" {
			out.KernelIDs = append(out.KernelIDs, e.ID)
		} else {
			out.NameIDs = append(out.NameIDs, e.ID)
		}
	}
	return out, nil
}
