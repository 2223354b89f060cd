package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 9, 30, 0, 0, time.UTC) }
}

func TestGormStore_SweepOverdue(t *testing.T) {
	testCases := []struct {
		name     string
		affected int64
	}{
		{name: "marks overdue records", affected: 3},
		{name: "nothing to sweep", affected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB, WithClock(fixedClock(2024, 2, 15)))

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "maintenance_records" SET "status"=$1,"updated_at"=$2 WHERE is_completed = $3 AND status = $4`)).
				WithArgs("Overdue", Any{}, false, "Scheduled", "Unscheduled", Any{}).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectCommit()

			n, err := s.SweepOverdue(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.affected, n)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_DeactivateDivision(t *testing.T) {
	testCases := []struct {
		name     string
		affected int64
		wantKind apperr.Kind
		wantErr  bool
	}{
		{name: "active division is deactivated", affected: 1},
		{name: "missing division is not found", affected: 0, wantErr: true, wantKind: apperr.KindNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "divisions" SET "is_active"=$1,"updated_at"=$2 WHERE id = $3 AND is_active = $4`)).
				WithArgs(false, Any{}, 7, true).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectCommit()

			err := s.DeactivateDivision(context.Background(), 7)
			if tc.wantErr {
				assert.True(t, apperr.Is(err, tc.wantKind), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_GetMaintenance_NotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "maintenance_records" WHERE "maintenance_records"."id" = $1`)).
		WithArgs(42, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetMaintenance(context.Background(), 42)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "maintenance record 42 not found", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CreateMaintenance_RejectsBeforeWriting(t *testing.T) {
	testCases := []struct {
		name string
		in   NewMaintenance
	}{
		{
			name: "zero quantity part",
			in: NewMaintenance{ACID: 1, MaintainerID: 1, Type: model.MaintenanceMonthly,
				Parts: []model.PartsReplaced{{PartName: "Filter", Quantity: 0}}},
		},
		{
			name: "unnamed part",
			in: NewMaintenance{ACID: 1, MaintainerID: 1, Type: model.MaintenanceMonthly,
				Parts: []model.PartsReplaced{{PartName: " ", Quantity: 2}}},
		},
		{
			name: "unknown type",
			in:   NewMaintenance{ACID: 1, MaintainerID: 1, Type: "Weekly"},
		},
		{
			name: "completed in the future",
			in: NewMaintenance{ACID: 1, MaintainerID: 1, Type: model.MaintenanceMonthly,
				IsCompleted: true, MaintenanceDate: model.NewDate(2024, 3, 1).Ptr()},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB, WithClock(fixedClock(2024, 2, 15)))

			_, err := s.CreateMaintenance(context.Background(), auth.System, tc.in)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
			// no statement may reach the database
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_CreateFirstUser_AlreadyInitialized(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := s.CreateFirstUser(context.Background(), &model.User{FirstName: "Root", Email: "root@example.com", Role: model.RoleAdmin, PasswordHash: "x"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
