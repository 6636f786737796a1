package clinic

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Registry owns every patient, physician and appointment of one clinic and
// keeps the per-party appointment indexes consistent with the appointment
// table. All methods are safe for concurrent use; each mutating call is a
// single critical section and either fully succeeds or leaves the registry
// unchanged.
type Registry struct {
	mu   sync.RWMutex
	name string

	patients     map[string]Patient
	physicians   map[string]Physician
	appointments map[int]Appointment

	// patient id / physician license -> appointment ids in booking order
	byPatient   map[string][]int
	byPhysician map[string][]int

	lastID int
}

// NewRegistry creates an empty registry for the named clinic.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:         name,
		patients:     make(map[string]Patient),
		physicians:   make(map[string]Physician),
		appointments: make(map[int]Appointment),
		byPatient:    make(map[string][]int),
		byPhysician:  make(map[string][]int),
	}
}

// Name returns the clinic name.
func (r *Registry) Name() string { return r.name }

// maxDurationMinutes is the longest duration whose end instant can be
// computed without overflowing time.Duration.
const maxDurationMinutes = math.MaxInt64 / int64(time.Minute)

// -- Registration --

// RegisterPatient adds p keyed by its national id.
func (r *Registry) RegisterPatient(p Patient) error {
	return r.RegisterPatientWith(p, nil)
}

// RegisterPatientWith is RegisterPatient with a commit step. commit runs
// under the registry lock after every check passes; if it fails the patient
// is not added and its error is returned.
func (r *Registry) RegisterPatientWith(p Patient, commit func(Patient) error) error {
	if err := p.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.patients[p.NationalID]; exists {
		return duplicateKey("patient %s already registered", p.NationalID)
	}
	if commit != nil {
		if err := commit(p); err != nil {
			return err
		}
	}
	r.patients[p.NationalID] = p
	r.byPatient[p.NationalID] = []int{}
	return nil
}

// RegisterPhysician adds ph keyed by its license. Any patient profile set on
// ph is ignored; links are made with LinkPhysicianToPatient.
func (r *Registry) RegisterPhysician(ph Physician) error {
	return r.RegisterPhysicianWith(ph, nil)
}

// RegisterPhysicianWith is RegisterPhysician with a commit step, run under
// the registry lock with the physician as it will be stored.
func (r *Registry) RegisterPhysicianWith(ph Physician, commit func(Physician) error) error {
	if err := ph.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.physicians[ph.License]; exists {
		return duplicateKey("physician %s already registered", ph.License)
	}
	ph.PatientProfileID = ""
	if commit != nil {
		if err := commit(ph); err != nil {
			return err
		}
	}
	r.physicians[ph.License] = ph
	r.byPhysician[ph.License] = []int{}
	return nil
}

// LinkPhysicianToPatient records that the physician is also the given
// patient. Calling it again replaces the previous link.
func (r *Registry) LinkPhysicianToPatient(license, patientID string) error {
	return r.LinkPhysicianToPatientWith(license, patientID, nil)
}

// LinkPhysicianToPatientWith is LinkPhysicianToPatient with a commit step.
func (r *Registry) LinkPhysicianToPatientWith(license, patientID string, commit func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ph, ok := r.physicians[license]
	if !ok {
		return notFound("physician %s not found", license)
	}
	if _, ok := r.patients[patientID]; !ok {
		return notFound("patient %s not found", patientID)
	}
	if commit != nil {
		if err := commit(); err != nil {
			return err
		}
	}
	ph.PatientProfileID = patientID
	r.physicians[license] = ph
	return nil
}

// -- Booking & cancellation --

// Book schedules a consultation of req.DurationMinutes starting at
// req.Start. The physician's agenda is checked before the patient's, so a
// request that clashes with both reports the physician.
func (r *Registry) Book(req BookingRequest) (Appointment, error) {
	return r.BookWith(req, nil)
}

// BookWith is Book with a commit step. commit receives the appointment
// before it is indexed and runs under the registry lock, so readers never
// see an appointment whose commit later fails. A failed commit still
// consumes the id.
func (r *Registry) BookWith(req BookingRequest, commit func(Appointment) error) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[req.PatientID]; !ok {
		return Appointment{}, notFound("patient %s not found", req.PatientID)
	}
	if _, ok := r.physicians[req.PhysicianLicense]; !ok {
		return Appointment{}, notFound("physician %s not found", req.PhysicianLicense)
	}
	if req.Start.IsZero() {
		return Appointment{}, invalidInput("appointment start is required")
	}
	if req.DurationMinutes <= 0 {
		return Appointment{}, invalidInput("duration must be a positive number of minutes, got %d", req.DurationMinutes)
	}
	if int64(req.DurationMinutes) > maxDurationMinutes {
		return Appointment{}, invalidInput("duration of %d minutes is out of range", req.DurationMinutes)
	}

	start := req.Start
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	if r.clashes(r.byPhysician[req.PhysicianLicense], start, end) {
		return Appointment{}, scheduleConflict(PartyPhysician)
	}
	if r.clashes(r.byPatient[req.PatientID], start, end) {
		return Appointment{}, scheduleConflict(PartyPatient)
	}

	appt, err := newAppointment(r.lastID+1, req.PatientID, req.PhysicianLicense, start, end, req.Location, req.Note)
	if err != nil {
		return Appointment{}, err
	}
	if commit != nil {
		if err := commit(appt); err != nil {
			r.lastID = appt.ID
			return Appointment{}, err
		}
	}

	r.lastID = appt.ID
	r.insert(appt)
	return appt, nil
}

// Cancel removes the appointment and frees its interval for both parties.
// The id is never handed out again.
func (r *Registry) Cancel(id int) error {
	_, err := r.CancelWith(id, nil)
	return err
}

// CancelWith is Cancel with a commit step run under the registry lock before
// the appointment is removed. It returns the cancelled appointment.
func (r *Registry) CancelWith(id int, commit func(Appointment) error) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[id]
	if !ok {
		return Appointment{}, notFound("appointment %d not found", id)
	}
	if commit != nil {
		if err := commit(appt); err != nil {
			return Appointment{}, err
		}
	}
	delete(r.appointments, id)
	r.byPhysician[appt.PhysicianLicense] = removeID(r.byPhysician[appt.PhysicianLicense], id)
	r.byPatient[appt.PatientID] = removeID(r.byPatient[appt.PatientID], id)
	return appt, nil
}

// ListAppointments returns every booked appointment ordered by start time,
// then physician license, then id.
func (r *Registry) ListAppointments() []Appointment {
	r.mu.RLock()
	result := make([]Appointment, 0, len(r.appointments))
	for _, a := range r.appointments {
		result = append(result, a)
	}
	r.mu.RUnlock()

	sortAppointments(result)
	return result
}

// -- Reads --

// Patient returns the patient registered under id.
func (r *Registry) Patient(id string) (Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return Patient{}, notFound("patient %s not found", id)
	}
	return p, nil
}

// Physician returns the physician registered under license.
func (r *Registry) Physician(license string) (Physician, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ph, ok := r.physicians[license]
	if !ok {
		return Physician{}, notFound("physician %s not found", license)
	}
	return ph, nil
}

// PhysicianPatientProfile resolves the physician's linked patient record.
// The bool is false when the physician has no link.
func (r *Registry) PhysicianPatientProfile(license string) (Patient, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ph, ok := r.physicians[license]
	if !ok {
		return Patient{}, false, notFound("physician %s not found", license)
	}
	if !ph.HasPatientProfile() {
		return Patient{}, false, nil
	}
	p, ok := r.patients[ph.PatientProfileID]
	return p, ok, nil
}

// Appointment returns the booked appointment with the given id.
func (r *Registry) Appointment(id int) (Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return Appointment{}, notFound("appointment %d not found", id)
	}
	return a, nil
}

// Patients returns all patients ordered by national id.
func (r *Registry) Patients() []Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Patient, 0, len(r.patients))
	for _, p := range r.patients {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NationalID < result[j].NationalID })
	return result
}

// Physicians returns all physicians ordered by license.
func (r *Registry) Physicians() []Physician {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Physician, 0, len(r.physicians))
	for _, ph := range r.physicians {
		result = append(result, ph)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].License < result[j].License })
	return result
}

// AppointmentsForPatient returns the patient's appointments in booking order.
func (r *Registry) AppointmentsForPatient(id string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.byPatient[id]
	if !ok {
		return nil, notFound("patient %s not found", id)
	}
	return r.resolve(ids), nil
}

// AppointmentsForPhysician returns the physician's appointments in booking order.
func (r *Registry) AppointmentsForPhysician(license string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.byPhysician[license]
	if !ok {
		return nil, notFound("physician %s not found", license)
	}
	return r.resolve(ids), nil
}

// Stats is a point-in-time summary of the registry.
type Stats struct {
	Patients     int `json:"patients"`
	Physicians   int `json:"physicians"`
	Appointments int `json:"appointments"`
	LastID       int `json:"last_appointment_id"`
}

// Stats returns current entity counts and the last assigned appointment id.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{
		Patients:     len(r.patients),
		Physicians:   len(r.physicians),
		Appointments: len(r.appointments),
		LastID:       r.lastID,
	}
}

// -- Internal helpers (caller holds the lock) --

func (r *Registry) clashes(ids []int, start, end time.Time) bool {
	for _, id := range ids {
		if r.appointments[id].Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (r *Registry) insert(a Appointment) {
	r.appointments[a.ID] = a
	r.byPhysician[a.PhysicianLicense] = append(r.byPhysician[a.PhysicianLicense], a.ID)
	r.byPatient[a.PatientID] = append(r.byPatient[a.PatientID], a.ID)
}

func (r *Registry) resolve(ids []int) []Appointment {
	result := make([]Appointment, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.appointments[id])
	}
	return result
}

func removeID(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func sortAppointments(appts []Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		a, b := appts[i], appts[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.PhysicianLicense != b.PhysicianLicense {
			return a.PhysicianLicense < b.PhysicianLicense
		}
		return a.ID < b.ID
	})
}
