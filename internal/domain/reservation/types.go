package reservation

// State is the lifecycle state of a reservation.
type State string

const (
	StateCreated           State = "created"
	StateConfirmed         State = "confirmed"
	StateDenied            State = "denied"
	StateCancelled         State = "cancelled"
	StateRequiresHandling  State = "requires_handling"
	StateWaitingForPayment State = "waiting_for_payment"
)

func (s State) String() string {
	return string(s)
}

func (s State) IsValid() bool {
	switch s {
	case StateCreated, StateConfirmed, StateDenied, StateCancelled,
		StateRequiresHandling, StateWaitingForPayment:
		return true
	default:
		return false
	}
}

// IsActive reports whether a reservation in this state still occupies
// its slot for overlap purposes. Denied and cancelled reservations
// release the slot.
func (s State) IsActive() bool {
	switch s {
	case StateDenied, StateCancelled:
		return false
	default:
		return true
	}
}

// Type distinguishes who created the reservation and why.
type Type string

const (
	TypeNormal   Type = "normal"
	TypeStaff    Type = "staff"
	TypeBlocked  Type = "blocked"
	TypeBehalf   Type = "behalf"
	TypeSeasonal Type = "seasonal"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case TypeNormal, TypeStaff, TypeBlocked, TypeBehalf, TypeSeasonal:
		return true
	default:
		return false
	}
}
