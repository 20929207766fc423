package growl

// Priority is a notification priority in [-2, 2]. Any integer converts
// directly, e.g. Priority(2).
type Priority int

// Named priorities.
const (
	VeryLow   Priority = -2
	Moderate  Priority = -1
	Normal    Priority = 0
	High      Priority = 1
	Emergency Priority = 2
)

var priorityNames = map[string]Priority{
	"emergency": Emergency,
	"high":      High,
	"normal":    Normal,
	"moderate":  Moderate,
	"very_low":  VeryLow,
}

// ParsePriority resolves a named priority. Unknown names are Normal.
func ParsePriority(name string) Priority {
	return priorityNames[name]
}

// LookupPriority resolves a named priority and reports whether it was known.
func LookupPriority(name string) (Priority, bool) {
	p, ok := priorityNames[name]
	return p, ok
}
