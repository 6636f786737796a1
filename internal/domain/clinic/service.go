package clinic

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clinic/scheduler/internal/platform/metrics"
)

// Service fronts the Registry for the HTTP layer: it persists every
// successful mutation, publishes events, records metrics and logs. The
// repository write runs inside the registry's critical section, so a failed
// call leaves no trace readers could observe.
type Service struct {
	mu      sync.Mutex // orders events and metrics with their mutations
	reg     *Registry
	repo    Repository
	events  EventPublisher
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewService wires a Service. repo, events and m may be nil.
func NewService(reg *Registry, repo Repository, events EventPublisher, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		reg:     reg,
		repo:    repo,
		events:  events,
		metrics: m,
		logger:  logger.With().Str("component", "clinic").Logger(),
	}
}

// Registry returns the underlying registry.
func (s *Service) Registry() *Registry { return s.reg }

// Load restores the registry from the repository. It is a no-op without one.
func (s *Service) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	snap, err := s.repo.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := s.reg.Restore(snap); err != nil {
		return fmt.Errorf("restore registry: %w", err)
	}
	stats := s.reg.Stats()
	s.metrics.SetActive(stats.Appointments)
	s.logger.Info().
		Int("patients", stats.Patients).
		Int("physicians", stats.Physicians).
		Int("appointments", stats.Appointments).
		Int("last_appointment_id", stats.LastID).
		Msg("registry restored")
	return nil
}

// -- Registration --

func (s *Service) RegisterPatient(ctx context.Context, p Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.reg.RegisterPatientWith(p, func(p Patient) error {
		if s.repo == nil {
			return nil
		}
		if err := s.repo.SavePatient(ctx, p); err != nil {
			s.logger.Error().Err(err).Str("patient_id", p.NationalID).Msg("persist patient failed")
			return fmt.Errorf("persist patient: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.ObserveRegistration("patient")
	s.publish(ctx, EventPatientRegistered, p)
	s.logger.Info().Str("patient_id", p.NationalID).Msg("patient registered")
	return nil
}

func (s *Service) RegisterPhysician(ctx context.Context, ph Physician) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored Physician
	err := s.reg.RegisterPhysicianWith(ph, func(ph Physician) error {
		stored = ph
		if s.repo == nil {
			return nil
		}
		if err := s.repo.SavePhysician(ctx, ph); err != nil {
			s.logger.Error().Err(err).Str("license", ph.License).Msg("persist physician failed")
			return fmt.Errorf("persist physician: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.ObserveRegistration("physician")
	s.publish(ctx, EventPhysicianRegistered, stored)
	s.logger.Info().Str("license", stored.License).Msg("physician registered")
	return nil
}

// linkEvent is the payload of physician.linked events.
type linkEvent struct {
	License   string `json:"license"`
	PatientID string `json:"patient_id"`
}

func (s *Service) LinkPhysicianToPatient(ctx context.Context, license, patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.reg.LinkPhysicianToPatientWith(license, patientID, func() error {
		if s.repo == nil {
			return nil
		}
		if err := s.repo.SaveLink(ctx, license, patientID); err != nil {
			s.logger.Error().Err(err).Str("license", license).Msg("persist physician link failed")
			return fmt.Errorf("persist physician link: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, EventPhysicianLinked, linkEvent{License: license, PatientID: patientID})
	s.logger.Info().Str("license", license).Str("patient_id", patientID).Msg("physician linked to patient profile")
	return nil
}

// -- Booking & cancellation --

func (s *Service) Book(ctx context.Context, req BookingRequest) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var persistErr error
	appt, err := s.reg.BookWith(req, func(a Appointment) error {
		if s.repo == nil {
			return nil
		}
		if err := s.repo.SaveAppointment(ctx, a); err != nil {
			persistErr = err
			s.logger.Error().Err(err).Int("appointment_id", a.ID).Msg("persist appointment failed")
			// The id stays consumed in memory; keep the stored sequence in step.
			if seqErr := s.repo.AdvanceSequence(ctx, a.ID); seqErr != nil {
				s.logger.Error().Err(seqErr).Int("appointment_id", a.ID).Msg("advance appointment sequence failed")
			}
			return fmt.Errorf("persist appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		party, _ := ConflictParty(err)
		s.metrics.ObserveBookingFailure(KindOf(err).String(), string(party))
		if persistErr == nil {
			s.logger.Debug().Err(err).
				Str("patient_id", req.PatientID).
				Str("license", req.PhysicianLicense).
				Msg("booking rejected")
		}
		return Appointment{}, err
	}

	s.metrics.ObserveBooked(s.reg.Stats().Appointments)
	s.publish(ctx, EventAppointmentBooked, appt)
	s.logger.Info().
		Int("appointment_id", appt.ID).
		Str("patient_id", appt.PatientID).
		Str("license", appt.PhysicianLicense).
		Time("start", appt.Start).
		Time("end", appt.End).
		Msg("appointment booked")
	return appt, nil
}

func (s *Service) Cancel(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, err := s.reg.CancelWith(id, func(a Appointment) error {
		if s.repo == nil {
			return nil
		}
		err := s.repo.DeleteAppointment(ctx, a.ID)
		switch {
		case err == nil:
		case KindOf(err) == KindNotFound:
			s.logger.Warn().Int("appointment_id", a.ID).Msg("appointment missing from repository on cancel")
		default:
			s.logger.Error().Err(err).Int("appointment_id", a.ID).Msg("persist cancellation failed")
			return fmt.Errorf("persist cancellation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.ObserveCancelled(s.reg.Stats().Appointments)
	s.publish(ctx, EventAppointmentCancelled, appt)
	s.logger.Info().Int("appointment_id", id).Msg("appointment cancelled")
	return nil
}

// -- Reads --

func (s *Service) ListAppointments(_ context.Context) []Appointment {
	return s.reg.ListAppointments()
}

func (s *Service) GetAppointment(_ context.Context, id int) (Appointment, error) {
	return s.reg.Appointment(id)
}

func (s *Service) GetPatient(_ context.Context, id string) (Patient, error) {
	return s.reg.Patient(id)
}

func (s *Service) GetPhysician(_ context.Context, license string) (Physician, error) {
	return s.reg.Physician(license)
}

func (s *Service) GetPhysicianPatientProfile(_ context.Context, license string) (Patient, bool, error) {
	return s.reg.PhysicianPatientProfile(license)
}

func (s *Service) ListPatients(_ context.Context) []Patient {
	return s.reg.Patients()
}

func (s *Service) ListPhysicians(_ context.Context) []Physician {
	return s.reg.Physicians()
}

func (s *Service) ListAppointmentsByPatient(_ context.Context, id string) ([]Appointment, error) {
	return s.reg.AppointmentsForPatient(id)
}

func (s *Service) ListAppointmentsByPhysician(_ context.Context, license string) ([]Appointment, error) {
	return s.reg.AppointmentsForPhysician(license)
}

func (s *Service) Stats(_ context.Context) Stats {
	return s.reg.Stats()
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("event publish failed")
	}
}
