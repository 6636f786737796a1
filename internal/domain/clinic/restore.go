package clinic

import "sort"

// Snapshot is the persisted form of a registry.
type Snapshot struct {
	Patients          []Patient
	Physicians        []Physician
	Appointments      []Appointment
	LastAppointmentID int
}

// Restore replaces an empty registry's contents with snap. The snapshot is
// checked against the same rules live operations enforce (unique keys,
// known references, no overlapping appointments per party); on any failure
// the registry is left empty.
func (r *Registry) Restore(snap Snapshot) error {
	staged := NewRegistry(r.name)

	for _, p := range snap.Patients {
		if err := staged.RegisterPatient(p); err != nil {
			return err
		}
	}
	for _, ph := range snap.Physicians {
		if err := staged.RegisterPhysician(ph); err != nil {
			return err
		}
	}
	for _, ph := range snap.Physicians {
		if ph.PatientProfileID == "" {
			continue
		}
		if err := staged.LinkPhysicianToPatient(ph.License, ph.PatientProfileID); err != nil {
			return err
		}
	}

	appts := append([]Appointment(nil), snap.Appointments...)
	sort.Slice(appts, func(i, j int) bool { return appts[i].ID < appts[j].ID })
	for _, a := range appts {
		if err := staged.restoreAppointment(a); err != nil {
			return err
		}
	}
	if snap.LastAppointmentID > staged.lastID {
		staged.lastID = snap.LastAppointmentID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.patients) > 0 || len(r.physicians) > 0 || len(r.appointments) > 0 || r.lastID > 0 {
		return invalidInput("restore requires an empty registry")
	}
	r.patients = staged.patients
	r.physicians = staged.physicians
	r.appointments = staged.appointments
	r.byPatient = staged.byPatient
	r.byPhysician = staged.byPhysician
	r.lastID = staged.lastID
	return nil
}

func (r *Registry) restoreAppointment(a Appointment) error {
	if a.ID <= 0 {
		return invalidInput("appointment id must be positive, got %d", a.ID)
	}
	if _, exists := r.appointments[a.ID]; exists {
		return duplicateKey("appointment %d already present", a.ID)
	}
	if _, ok := r.patients[a.PatientID]; !ok {
		return notFound("patient %s not found", a.PatientID)
	}
	if _, ok := r.physicians[a.PhysicianLicense]; !ok {
		return notFound("physician %s not found", a.PhysicianLicense)
	}
	appt, err := newAppointment(a.ID, a.PatientID, a.PhysicianLicense, a.Start, a.End, a.Location, a.Note)
	if err != nil {
		return err
	}
	if r.clashes(r.byPhysician[appt.PhysicianLicense], appt.Start, appt.End) {
		return scheduleConflict(PartyPhysician)
	}
	if r.clashes(r.byPatient[appt.PatientID], appt.Start, appt.End) {
		return scheduleConflict(PartyPatient)
	}
	r.insert(appt)
	if appt.ID > r.lastID {
		r.lastID = appt.ID
	}
	return nil
}
