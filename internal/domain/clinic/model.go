package clinic

import (
	"fmt"
	"strings"
	"time"
)

// DefaultLocation is used when a booking does not name a room.
const DefaultLocation = "Sala 1"

// Patient is keyed by national identifier.
type Patient struct {
	Name          string `json:"name"`
	NationalID    string `json:"national_id"`
	InsurancePlan string `json:"insurance_plan,omitempty"`
}

// NewPatient builds a Patient, rejecting empty name or identifier.
func NewPatient(name, nationalID, insurancePlan string) (Patient, error) {
	p := Patient{Name: name, NationalID: nationalID, InsurancePlan: insurancePlan}
	if err := p.validate(); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (p Patient) validate() error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.NationalID) == "" {
		return invalidInput("patient name and national id are required")
	}
	return nil
}

func (p Patient) String() string {
	return fmt.Sprintf("Patient(%s, %s)", p.Name, p.NationalID)
}

// Physician is keyed by professional license number. PatientProfileID, when
// set, names the Patient record the physician is registered as; the registry
// owns that patient and resolves the key on read.
type Physician struct {
	Name             string `json:"name"`
	NationalID       string `json:"national_id"`
	License          string `json:"license"`
	Specialty        string `json:"specialty,omitempty"`
	PatientProfileID string `json:"patient_profile_id,omitempty"`
}

// NewPhysician builds a Physician, rejecting empty name, national id or license.
func NewPhysician(name, nationalID, license, specialty string) (Physician, error) {
	ph := Physician{Name: name, NationalID: nationalID, License: license, Specialty: specialty}
	if err := ph.validate(); err != nil {
		return Physician{}, err
	}
	return ph, nil
}

func (ph Physician) validate() error {
	if strings.TrimSpace(ph.Name) == "" ||
		strings.TrimSpace(ph.NationalID) == "" ||
		strings.TrimSpace(ph.License) == "" {
		return invalidInput("physician name, national id and license are required")
	}
	return nil
}

// HasPatientProfile reports whether the physician is linked to a patient record.
func (ph Physician) HasPatientProfile() bool { return ph.PatientProfileID != "" }

func (ph Physician) String() string {
	return fmt.Sprintf("Physician(%s, %s)", ph.Name, ph.License)
}

// Appointment is immutable once booked. It is only created by Registry.Book.
type Appointment struct {
	ID               int       `json:"id"`
	PatientID        string    `json:"patient_id"`
	PhysicianLicense string    `json:"physician_license"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Location         string    `json:"location"`
	Note             string    `json:"note,omitempty"`
}

func newAppointment(id int, patientID, license string, start, end time.Time, location, note string) (Appointment, error) {
	if !end.After(start) {
		return Appointment{}, invalidInput("appointment end must be after start")
	}
	if location == "" {
		location = DefaultLocation
	}
	return Appointment{
		ID:               id,
		PatientID:        patientID,
		PhysicianLicense: license,
		Start:            start,
		End:              end,
		Location:         location,
		Note:             note,
	}, nil
}

// Duration is the booked length of the appointment.
func (a Appointment) Duration() time.Duration { return a.End.Sub(a.Start) }

// Overlaps reports whether the appointment's range conflicts with [start, end).
func (a Appointment) Overlaps(start, end time.Time) bool {
	return Overlaps(a.Start, a.End, start, end)
}

func (a Appointment) String() string {
	return fmt.Sprintf("Appointment(%d, patient=%s, physician=%s)", a.ID, a.PatientID, a.PhysicianLicense)
}

// BookingRequest carries the already-parsed inputs of a booking.
type BookingRequest struct {
	PatientID        string
	PhysicianLicense string
	Start            time.Time
	DurationMinutes  int
	Location         string
	Note             string
}
