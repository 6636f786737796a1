package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const advanceSequenceSQL = `
	INSERT INTO clinic_state (singleton, last_appointment_id) VALUES (TRUE, $1)
	ON CONFLICT (singleton) DO UPDATE
	SET last_appointment_id = GREATEST(clinic_state.last_appointment_id, EXCLUDED.last_appointment_id)`

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository backed by PostgreSQL.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	rows, err := r.pool.Query(ctx, `SELECT national_id, name, insurance_plan FROM patient ORDER BY national_id`)
	if err != nil {
		return snap, fmt.Errorf("query patients: %w", err)
	}
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.NationalID, &p.Name, &p.InsurancePlan); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan patient: %w", err)
		}
		snap.Patients = append(snap.Patients, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate patients: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT license, name, national_id, specialty, COALESCE(patient_profile_id, '')
		FROM physician ORDER BY license`)
	if err != nil {
		return snap, fmt.Errorf("query physicians: %w", err)
	}
	for rows.Next() {
		var ph Physician
		if err := rows.Scan(&ph.License, &ph.Name, &ph.NationalID, &ph.Specialty, &ph.PatientProfileID); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan physician: %w", err)
		}
		snap.Physicians = append(snap.Physicians, ph)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate physicians: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, patient_id, physician_license, start_time, end_time, location, note
		FROM appointment ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("query appointments: %w", err)
	}
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PhysicianLicense, &a.Start, &a.End, &a.Location, &a.Note); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan appointment: %w", err)
		}
		snap.Appointments = append(snap.Appointments, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate appointments: %w", err)
	}

	err = r.pool.QueryRow(ctx, `SELECT last_appointment_id FROM clinic_state WHERE singleton`).
		Scan(&snap.LastAppointmentID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return snap, fmt.Errorf("read appointment sequence: %w", err)
	}
	return snap, nil
}

func (r *repoPG) SavePatient(ctx context.Context, p Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (national_id, name, insurance_plan) VALUES ($1, $2, $3)`,
		p.NationalID, p.Name, p.InsurancePlan)
	return mapPGError(err, "save patient")
}

func (r *repoPG) SavePhysician(ctx context.Context, ph Physician) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO physician (license, name, national_id, specialty) VALUES ($1, $2, $3, $4)`,
		ph.License, ph.Name, ph.NationalID, ph.Specialty)
	return mapPGError(err, "save physician")
}

func (r *repoPG) SaveLink(ctx context.Context, license, patientID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE physician SET patient_profile_id = $2, updated_at = NOW() WHERE license = $1`,
		license, patientID)
	if err != nil {
		return mapPGError(err, "save physician link")
	}
	if tag.RowsAffected() == 0 {
		return notFound("physician %s not found", license)
	}
	return nil
}

func (r *repoPG) SaveAppointment(ctx context.Context, a Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO appointment (id, patient_id, physician_license, start_time, end_time, location, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.PatientID, a.PhysicianLicense, a.Start, a.End, a.Location, a.Note); err != nil {
		return mapPGError(err, "save appointment")
	}
	if _, err := tx.Exec(ctx, advanceSequenceSQL, a.ID); err != nil {
		return fmt.Errorf("advance appointment sequence: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *repoPG) AdvanceSequence(ctx context.Context, id int) error {
	if _, err := r.pool.Exec(ctx, advanceSequenceSQL, id); err != nil {
		return fmt.Errorf("advance appointment sequence: %w", err)
	}
	return nil
}

func (r *repoPG) DeleteAppointment(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return mapPGError(err, "delete appointment")
	}
	if tag.RowsAffected() == 0 {
		return notFound("appointment %d not found", id)
	}
	return nil
}

func mapPGError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return duplicateKey("%s: %s", op, pgErr.Detail)
	}
	return fmt.Errorf("%s: %w", op, err)
}
