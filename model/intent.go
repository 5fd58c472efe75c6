package model

// Intent identifies what the user wants to do this turn. Two intents are
// equal iff their names are equal.
type Intent struct {
	Name string `json:"name"`
}

func NewIntent(name string) Intent {
	return Intent{Name: name}
}

// Intents converts a list of names.
func Intents(names ...string) []Intent {
	out := make([]Intent, 0, len(names))
	for _, n := range names {
		out = append(out, Intent{Name: n})
	}
	return out
}

// IntentNames is the inverse of Intents.
func IntentNames(intents []Intent) []string {
	out := make([]string, 0, len(intents))
	for _, i := range intents {
		out = append(out, i.Name)
	}
	return out
}

func (i Intent) String() string {
	return i.Name
}

// IsZero reports whether the intent carries no name.
func (i Intent) IsZero() bool {
	return i.Name == ""
}
