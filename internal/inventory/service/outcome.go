package service

import "strconv"

// Outcome is the result of a stock operation whose preconditions were anticipated.
type Outcome int

const (
	Purchased Outcome = iota + 1
	InsufficientStock
	NotFound
	Restored
	Updated
)

var outcomeNames = map[Outcome]string{
	Purchased:         "Purchased",
	InsufficientStock: "InsufficientStock",
	NotFound:          "NotFound",
	Restored:          "Restored",
	Updated:           "Updated",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "Outcome(" + strconv.Itoa(int(o)) + ")"
}

// Succeeded reports whether the outcome changed the stored quantity.
func (o Outcome) Succeeded() bool {
	return o == Purchased || o == Restored || o == Updated
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(name string) (Outcome, bool) {
	for o, n := range outcomeNames {
		if n == name {
			return o, true
		}
	}
	return 0, false
}
