package directory

import (
	"fmt"
	"strings"
)

const maxRefPrefix = 8

// GenerateReference derives a client reference from name: up to eight
// uppercase letters or digits, a dash and a random three digit suffix.
func GenerateReference(name string, intn func(int) int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == maxRefPrefix {
				break
			}
		}
	}

	prefix := b.String()
	if prefix == "" {
		prefix = "CLIENT"
	}
	return fmt.Sprintf("%s-%03d", prefix, intn(1000))
}
