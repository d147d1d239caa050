package query

import (
	"errors"
	"sort"
	"strings"
)

var errFullDepth = errors.New("neighbor_style=full requires depth<=1")

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)

	return out
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
