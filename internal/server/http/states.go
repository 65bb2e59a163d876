package http

type state uint8

const (
	reading state = iota
	decoding
	dispatching
	errorDispatching
	responding
	closed
)

var stateNames = [...]string{
	reading:          "reading",
	decoding:         "decoding",
	dispatching:      "dispatching",
	errorDispatching: "errorDispatching",
	responding:       "responding",
	closed:           "closed",
}

func (s state) String() string {
	if int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}
