// Package selection maps typed index expressions onto positions in the
// reference list currently shown to the user.
package selection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSelection is returned when an index expression cannot be parsed.
var ErrInvalidSelection = errors.New("invalid selection")

// IndexList expands an index expression into one-based indices.
//
// The expression is whitespace-separated tokens, each an integer or a
// start:end slice with optional endpoints. Negative values count from the
// end (-1 is total). A slice whose start is past its end wraps around:
// "8:3" over 10 items yields 8 9 10 1 2 3. Range checking is left to the
// caller so out-of-range values can be reported individually.
func IndexList(expr string, total int) ([]int, error) {
	tokens := strings.Fields(expr)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidSelection)
	}
	var out []int
	for _, tok := range tokens {
		start, end, isSlice := strings.Cut(tok, ":")
		if !isSlice {
			n, err := parseIndex(tok, total)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
			continue
		}
		from, to := 1, total
		var err error
		if start != "" {
			if from, err = parseIndex(start, total); err != nil {
				return nil, err
			}
		}
		if end != "" {
			if to, err = parseIndex(end, total); err != nil {
				return nil, err
			}
		}
		out = append(out, expand(from, to, total)...)
	}
	return out, nil
}

// IsIndexList reports whether expr parses as an index expression.
func IsIndexList(expr string) bool {
	_, err := IndexList(expr, 0)
	return err == nil
}

func parseIndex(s string, total int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSelection, s)
	}
	if n < 0 {
		n = total + n + 1
	}
	return n, nil
}

func expand(from, to, total int) []int {
	var out []int
	if from <= to {
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	}
	for i := from; i <= total; i++ {
		out = append(out, i)
	}
	for i := 1; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
