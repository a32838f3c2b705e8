// Package exec runs external commands (the code formatter) with a spinner on
// interactive terminals and plain, awaited execution elsewhere.
package exec
