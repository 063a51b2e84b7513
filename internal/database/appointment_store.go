package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lucasromanh/lucha-fit/internal/schedule"
)

// Appointment is a locally authored calendar entry linked to a client.
type Appointment struct {
	ID       string
	ClientID string
	Title    string
	StartAt  time.Time
	EndAt    time.Time
	Notes    string
}

// Event projects the appointment onto the calendar event model. The
// clientName labels untitled appointments; reconciliation never touches
// local-origin events.
func (a Appointment) Event(clientName string) schedule.Event {
	title := a.Title
	if title == "" {
		title = clientName
	}
	return schedule.Event{
		ID:          a.ID,
		Title:       title,
		Start:       a.StartAt,
		End:         a.EndAt,
		Description: a.Notes,
		Origin:      schedule.OriginLocal,
	}
}

// AppointmentStore handles appointment rows in SQLite
type AppointmentStore struct {
	db *sql.DB
}

// NewAppointmentStore creates a new appointment store
func NewAppointmentStore(db *DB) *AppointmentStore {
	return &AppointmentStore{db: db.Conn()}
}

// CreateAppointment inserts an appointment, assigning it an ID.
func (s *AppointmentStore) CreateAppointment(ctx context.Context, a Appointment) (Appointment, error) {
	if a.EndAt.Before(a.StartAt) {
		return Appointment{}, fmt.Errorf("appointment ends before it starts")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO appointments (id, client_id, title, start_at, end_at, notes)
VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.ClientID, a.Title, a.StartAt.UTC(), a.EndAt.UTC(), a.Notes)
	if err != nil {
		return Appointment{}, fmt.Errorf("failed to create appointment: %w", err)
	}

	return a, nil
}

// ListAppointmentsBetween returns the appointments overlapping [start, end),
// ordered by start time.
func (s *AppointmentStore) ListAppointmentsBetween(ctx context.Context, start, end time.Time) ([]Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, COALESCE(client_id, ''), title, start_at, end_at, notes
FROM appointments
WHERE end_at > ? AND start_at < ?
ORDER BY start_at`, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.ClientID, &a.Title, &a.StartAt, &a.EndAt, &a.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan appointment row: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return appointments, nil
}

// DeleteAppointment removes an appointment by ID.
func (s *AppointmentStore) DeleteAppointment(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}
