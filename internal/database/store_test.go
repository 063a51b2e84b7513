package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/lucasromanh/lucha-fit/internal/schedule"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestClientStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewClientStore(testDB(t))

	created, err := store.CreateClient(ctx, "Ana Quiroga")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := store.GetClient(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = store.CreateClient(ctx, "Martín Paz")
	require.NoError(t, err)

	all, err := store.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana Quiroga", all[0].FullName, "clients are ordered by name")
}

func TestClientStoreRejectsEmptyName(t *testing.T) {
	store := NewClientStore(testDB(t))
	_, err := store.CreateClient(context.Background(), "")
	assert.Error(t, err)
}

func TestAppointmentStoreWindowQuery(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	store := NewAppointmentStore(db)

	day := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	inWindow, err := store.CreateAppointment(ctx, Appointment{
		Title:   "Antropometría",
		StartAt: day.Add(9 * time.Hour),
		EndAt:   day.Add(10 * time.Hour),
	})
	require.NoError(t, err)

	_, err = store.CreateAppointment(ctx, Appointment{
		Title:   "Fuera de semana",
		StartAt: day.AddDate(0, 0, 10),
		EndAt:   day.AddDate(0, 0, 10).Add(time.Hour),
	})
	require.NoError(t, err)

	weekStart := schedule.WeekStart(day)
	got, err := store.ListAppointmentsBetween(ctx, weekStart, weekStart.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inWindow.ID, got[0].ID)
}

func TestAppointmentStoreRejectsInvertedInterval(t *testing.T) {
	store := NewAppointmentStore(testDB(t))
	now := time.Now()
	_, err := store.CreateAppointment(context.Background(), Appointment{
		StartAt: now,
		EndAt:   now.Add(-time.Hour),
	})
	assert.Error(t, err)
}

func TestAppointmentEventProjection(t *testing.T) {
	a := Appointment{
		ID:      "ap1",
		Title:   "",
		StartAt: time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC),
	}

	ev := a.Event("Ana Quiroga")

	assert.Equal(t, schedule.OriginLocal, ev.Origin)
	assert.Equal(t, "Ana Quiroga", ev.Title, "untitled appointments are labeled with the client name")

	a.Title = "Control mensual"
	assert.Equal(t, "Control mensual", a.Event("Ana Quiroga").Title)
}

func TestTokenStoreRoundTrip(t *testing.T) {
	store := NewTokenStore(testDB(t))

	got, err := store.GetToken()
	require.NoError(t, err)
	assert.Nil(t, got, "no token stored yet")

	tok := &oauth2.Token{AccessToken: "ya29.persisted", RefreshToken: "r1", Expiry: time.Now().Add(time.Hour).UTC()}
	require.NoError(t, store.SaveToken(tok))

	got, err = store.GetToken()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ya29.persisted", got.AccessToken)
	assert.Equal(t, "r1", got.RefreshToken)

	require.NoError(t, store.ClearToken())
	got, err = store.GetToken()
	require.NoError(t, err)
	assert.Nil(t, got)
}
