package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelsuite/bus-booking-backend/internal/models"
)

func occurrenceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "recurrence_id", "date", "departure_time", "arrival_time", "status",
		"departure_at", "capacity", "fare", "route_id",
		"origin_name", "destination_name", "bus_plate", "remaining_seats",
		"created_at", "updated_at",
	})
}

func TestOccurrenceGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOccurrenceRepository(db)

	id := uuid.New()
	recID := uuid.New()
	now := time.Now()
	departure := now.Add(3 * time.Hour)

	mock.ExpectQuery("FROM schedule_occurrences o").
		WithArgs(id).
		WillReturnRows(occurrenceRows().AddRow(
			id, recID, now, "08:30:00", "13:00:00", "scheduled",
			departure, 49, "25000.00", 3,
			"Kampala", "Mbarara", "UBH 123X", 12,
			now, now,
		))

	occ, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, id, occ.ID)
	assert.Equal(t, models.OccurrenceStatusScheduled, occ.Status)
	assert.Equal(t, 49, occ.Capacity)
	assert.Equal(t, 12, occ.RemainingSeats)
	assert.Equal(t, "Kampala", occ.OriginName)
	assert.Equal(t, "25000", occ.Fare.String())
	assert.True(t, occ.IsBookable(now))
}

func TestOccurrenceGetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOccurrenceRepository(db)

	id := uuid.New()
	mock.ExpectQuery("FROM schedule_occurrences o").
		WithArgs(id).
		WillReturnRows(occurrenceRows())

	_, err := repo.GetByID(id)
	assert.ErrorIs(t, err, models.ErrOccurrenceNotFound)
}

func TestSweepDeparted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOccurrenceRepository(db)

	mock.ExpectExec("UPDATE schedule_occurrences").
		WillReturnResult(sqlmock.NewResult(0, 4))

	swept, err := repo.SweepDeparted()
	require.NoError(t, err)
	assert.Equal(t, int64(4), swept)
}

func TestInsertOccurrence_ConflictIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOccurrenceRepository(db)

	rec := &models.ScheduleRecurrence{
		ID:            uuid.New(),
		DepartureTime: "08:30:00",
		ArrivalTime:   "13:00:00",
	}
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	// Conflict on (recurrence_id, date): zero rows affected.
	mock.ExpectExec("INSERT INTO schedule_occurrences").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.InsertOccurrence(rec, date)
	require.NoError(t, err)
	assert.False(t, inserted)

	mock.ExpectExec("INSERT INTO schedule_occurrences").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err = repo.InsertOccurrence(rec, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, inserted)
}
