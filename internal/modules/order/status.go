package order

// validTransitions is the upstream state machine. Confirmed and Accepted are
// the same state under two names.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusShipped, StatusCancelled},
	StatusAccepted:   {StatusProcessing, StatusShipped, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	if to == StatusAccepted {
		to = StatusConfirmed
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(s Status) bool {
	next, ok := validTransitions[s]
	return ok && len(next) == 0
}

// Actions lists what the admin detail view may offer for an order. Only
// confirm and cancel are triggered from here; later transitions happen upstream.
type Actions struct {
	CanConfirm bool `json:"canConfirm"`
	CanCancel  bool `json:"canCancel"`
	HasInvoice bool `json:"hasInvoice"`
	Terminal   bool `json:"terminal"`
}

func AllowedActions(o Order) Actions {
	return Actions{
		CanConfirm: o.OrderStatus == StatusPending,
		CanCancel:  CanTransition(o.OrderStatus, StatusCancelled),
		HasInvoice: o.InvoiceURL != "",
		Terminal:   IsTerminal(o.OrderStatus),
	}
}
