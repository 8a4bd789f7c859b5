package postgres

import (
	"context"
)

type recordedCall struct {
	query string
	args  []interface{}
}

// fakeExecutor records every statement and replays queued results.
type fakeExecutor struct {
	calls   []recordedCall
	results []*Result
	err     error
}

func (f *fakeExecutor) Query(_ context.Context, query string, args ...interface{}) (*Result, error) {
	f.calls = append(f.calls, recordedCall{query: query, args: args})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return &Result{}, nil
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res, nil
}

func rows(rs ...Row) *Result {
	return &Result{Rows: rs, RowCount: len(rs)}
}
