package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by the booking flows.
const (
	EventAppointmentRequested  = "booking.appointment.requested.v1"
	EventAppointmentConfirmed  = "booking.appointment.confirmed.v1"
	EventAppointmentCancelled  = "booking.appointment.cancelled.v1"
	EventAppointmentReschedule = "booking.appointment.reschedule_required.v1"
	EventBlackoutCreated       = "booking.blackout.created.v1"
	EventBlackoutDeleted       = "booking.blackout.deleted.v1"
)
