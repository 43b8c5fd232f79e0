package engine

// OpState is a point in the operation state machine every engine call
// passes through: Accepted -> Validated -> Encoded -> Dispatched ->
// Completed, or one of the terminal failure states
// RejectedByValidator/RejectedBySanitiser/DriverError/DecodeError. It exists
// for test instrumentation; the host binding never sees it directly —
// only the typed ecode error a terminal failure state produces.
type OpState int

const (
	StateAccepted OpState = iota
	StateValidated
	StateEncoded
	StateDispatched
	StateCompleted
	StateRejectedByValidator
	StateRejectedBySanitiser
	StateDriverError
	StateDecodeError
)

func (s OpState) String() string {
	switch s {
	case StateAccepted:
		return "Accepted"
	case StateValidated:
		return "Validated"
	case StateEncoded:
		return "Encoded"
	case StateDispatched:
		return "Dispatched"
	case StateCompleted:
		return "Completed"
	case StateRejectedByValidator:
		return "RejectedByValidator"
	case StateRejectedBySanitiser:
		return "RejectedBySanitiser"
	case StateDriverError:
		return "DriverError"
	case StateDecodeError:
		return "DecodeError"
	default:
		return "Unknown"
	}
}

// Hooks is a set of no-op-by-default diagnostic callbacks, grounded on the
// teacher's event package (pluggable command/topology monitors that are nil
// by default and cost nothing when unset). The engine never logs (spec.md
// §7); Hooks exists only so tests can observe internal behaviour — such as
// "at most one driver call per target collection per depth level" — without
// a real MongoDB connection.
type Hooks struct {
	// OnState fires on every operation-state transition for collection.
	OnState func(collection string, state OpState)
	// OnDriverCall fires immediately before a driver call is issued, once
	// per call. op is a short verb ("insertOne", "find", "updateMany", ...).
	OnDriverCall func(collection, op string)
}

func (h Hooks) state(collection string, s OpState) {
	if h.OnState != nil {
		h.OnState(collection, s)
	}
}

func (h Hooks) driverCall(collection, op string) {
	if h.OnDriverCall != nil {
		h.OnDriverCall(collection, op)
	}
}
