package config

import (
	"fmt"
	"strings"
)

// section renders one block of the startup config dump. pairs alternate key and value.
func section(title string, pairs ...any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n--- %s ---\n", title)
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "  %v: %v\n", pairs[i], pairs[i+1])
	}
	return b.String()
}
