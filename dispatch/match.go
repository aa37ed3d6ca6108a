package dispatch

import "strings"

// Match reports whether eventType matches a route pattern.
//
//	"invoice.paid"  exact match
//	"invoice.*"     one segment wildcard: invoice.paid, invoice.failed
//	"*"             everything
func Match(pattern, eventType string) bool {
	if pattern == "*" || pattern == eventType {
		return true
	}

	pp := strings.Split(pattern, ".")
	ep := strings.Split(eventType, ".")
	if len(pp) != len(ep) {
		return false
	}
	for i := range pp {
		if pp[i] != "*" && pp[i] != ep[i] {
			return false
		}
	}
	return true
}

// specificity ranks patterns so exact routes beat wildcard routes and
// narrower wildcards beat "*".
func specificity(pattern string) int {
	if pattern == "*" {
		return 0
	}
	n := 1
	for _, seg := range strings.Split(pattern, ".") {
		if seg != "*" {
			n++
		}
	}
	if !strings.Contains(pattern, "*") {
		n += 1 << 10
	}
	return n
}
