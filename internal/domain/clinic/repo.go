package clinic

import "context"

// Repository persists registry state. The registry stays the source of
// truth at runtime; the repository lets it survive restarts.
type Repository interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	SavePatient(ctx context.Context, p Patient) error
	SavePhysician(ctx context.Context, ph Physician) error
	SaveLink(ctx context.Context, license, patientID string) error
	// SaveAppointment also advances the stored appointment sequence.
	SaveAppointment(ctx context.Context, a Appointment) error
	// AdvanceSequence raises the stored appointment sequence to at least id.
	AdvanceSequence(ctx context.Context, id int) error
	DeleteAppointment(ctx context.Context, id int) error
}

// EventPublisher fans registry changes out to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// Event types published by the Service.
const (
	EventPatientRegistered    = "patient.registered"
	EventPhysicianRegistered  = "physician.registered"
	EventPhysicianLinked      = "physician.linked"
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentCancelled = "appointment.cancelled"
)
