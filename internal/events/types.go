package events

// Event enumerates high-level topics inside the trading core.
type Event string

const (
	EventCycleComplete  Event = "cycle_complete"
	EventSignal         Event = "signal"
	EventSignalRejected Event = "signal.rejected"
	EventOrderPlaced    Event = "order.placed"
	EventOrderSettled   Event = "order.settled"
	EventPositionOpened Event = "position.opened"
	EventPositionClosed Event = "position.closed"
	EventManualReview   Event = "position.manual_review"
	EventRiskAlert      Event = "risk_alert"
	EventSessionHalted  Event = "session.halted"
	EventSessionResumed Event = "session.resumed"
)
