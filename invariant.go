package bitgo

import "fmt"

// invariant panics when cond is false. Violations are programming errors:
// continuing past one would silently corrupt index results, so they abort
// the operation instead of surfacing as recoverable errors.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("bitgo: "+format, args...))
	}
}
