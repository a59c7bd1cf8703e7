package loader

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/domain"
)

func newPostgresMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPostgres_ListActivitiesMarshalsArrayColumns(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	p := NewPostgres(db)

	rows := sqlmock.NewRows([]string{"code", "name", "subject", "teacher_ids", "subgroup_ids", "duration", "type", "space_requirements"}).
		AddRow("A1", "Calculus I", "Math", "{T1,T2}", "{Y1S1-IT-1}", 2, "Lecture+Tutorial", "{Lab}")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, name, subject, teacher_ids, subgroup_ids, duration, type, space_requirements\nFROM activities")).
		WillReturnRows(rows)

	out, err := p.ListActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A1", out[0].Code)
	assert.JSONEq(t, `["T1","T2"]`, out[0].TeacherIDsRaw)
	assert.JSONEq(t, `["Y1S1-IT-1"]`, out[0].SubgroupIDsRaw)
	assert.JSONEq(t, `["Lab"]`, out[0].RoomReqsRaw)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListSpacesDefaultsEmptyAttributes(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	p := NewPostgres(db)

	rows := sqlmock.NewRows([]string{"code", "name", "long_name", "capacity", "attributes"}).
		AddRow("R1", "Room 1", "", 40, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, name, long_name, capacity, attributes FROM spaces")).
		WillReturnRows(rows)

	out, err := p.ListSpaces(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "{}", out[0].AttrsRaw)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListTeachersRestrictedToFacultyMarshalsSubjects(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	p := NewPostgres(db)

	rows := sqlmock.NewRows([]string{"id", "subjects", "position", "target_hours"}).
		AddRow("T1", "{Math,Physics}", "Lecturer", 20)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subjects, position, target_hours FROM users WHERE role = 'faculty'")).
		WillReturnRows(rows)

	out, err := p.ListTeachers(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.JSONEq(t, `["Math","Physics"]`, out[0].SubjectsRaw)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListPeriodsOrdersByDayAndIndex(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	p := NewPostgres(db)

	rows := sqlmock.NewRows([]string{"id", "day_id", "period_index", "is_interval"}).
		AddRow("P1", "D1", 0, false).
		AddRow("P2", "D1", 1, true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day_id, period_index, is_interval FROM periods_of_operation ORDER BY day_id, period_index")).
		WillReturnRows(rows)

	out, err := p.ListPeriods(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[1].IsInterval)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateTimetableInsertsTimetableAndSessionsInOneTransaction(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	p := NewPostgres(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timetables").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO timetable_sessions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sessions := []domain.ScheduledSession{
		{ActivityCode: "A1", Day: "D1", Periods: []int{0, 1}, Room: "R1", Teacher: "T1", Subgroups: []string{"G1"}, Duration: 2, Subject: "Math"},
	}
	id, err := p.CreateTimetable(context.Background(), "SEM101", "CO", sessions)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateTimetableRollsBackOnSessionInsertFailure(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	p := NewPostgres(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timetables").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO timetable_sessions").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	sessions := []domain.ScheduledSession{{ActivityCode: "A1", Day: "D1", Periods: []int{0}, Room: "R1", Teacher: "T1"}}
	_, err := p.CreateTimetable(context.Background(), "SEM101", "CO", sessions)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertScoreUsesConflictClause(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	p := NewPostgres(db)

	mock.ExpectExec("INSERT INTO latest_score").
		WithArgs("SEM101", "CO", 0.0, 4.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, p.UpsertScore(context.Background(), "SEM101", "CO", 0, 4.5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertNotification(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	p := NewPostgres(db)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), "SEM101", "CO", 0.0, 4.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, p.InsertNotification(context.Background(), "SEM101", "CO", 0, 4.5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ArchiveTimetable(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	p := NewPostgres(db)

	mock.ExpectExec("INSERT INTO old_timetables").
		WithArgs("tt-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, p.ArchiveTimetable(context.Background(), "tt-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
