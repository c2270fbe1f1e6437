package domain

// Action represents the side of a trade.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Valid reports whether the action is a known trade side.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}
