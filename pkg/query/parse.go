// Package query parses the line-based command language:
//
//	SET <key> <value>
//	GET <key>
//
// Tokens are whitespace-delimited and keywords are case-sensitive.
// Anything else parses to a Nop command, never to an error.
package query

import (
	"strings"

	"walkv/pkg/types"
)

func Parse(q string) types.Command {
	parts := strings.Fields(q)

	switch {
	case len(parts) == 2 && parts[0] == "GET":
		return types.Get(parts[1])
	case len(parts) == 3 && parts[0] == "SET":
		return types.Set(parts[1], parts[2])
	default:
		return types.Nop()
	}
}
