package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-engine/internal/domain"
)

// Postgres is the reference Store implementation: a direct read of the
// collections named in §6.1 against Postgres tables carrying the same
// shape, with native text-array columns for teacher_ids, subgroup_ids and
// space_requirements (read via pq.StringArray) and JSONB columns for the
// free-form fields (attributes, constraint details). Grounded in
// SemesterScheduleRepository's exec(sqlx.ExtContext) helper and
// NamedExecContext insert pattern.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres constructs a Postgres-backed Store/writer.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return p.db
}

// ListActivities implements ActivityReader.
func (p *Postgres) ListActivities(ctx context.Context) ([]ActivityRow, error) {
	const query = `
SELECT code, name, subject, teacher_ids, subgroup_ids, duration, type, space_requirements
FROM activities`
	var raw []struct {
		Code             string         `db:"code"`
		Name             string         `db:"name"`
		Subject          string         `db:"subject"`
		TeacherIDs       pq.StringArray `db:"teacher_ids"`
		SubgroupIDs      pq.StringArray `db:"subgroup_ids"`
		Duration         int            `db:"duration"`
		Type             string         `db:"type"`
		RoomRequirements pq.StringArray `db:"space_requirements"`
	}
	if err := p.db.SelectContext(ctx, &raw, query); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	out := make([]ActivityRow, 0, len(raw))
	for _, r := range raw {
		teacherIDs, _ := json.Marshal([]string(r.TeacherIDs))
		subgroupIDs, _ := json.Marshal([]string(r.SubgroupIDs))
		roomReqs, _ := json.Marshal([]string(r.RoomRequirements))
		out = append(out, ActivityRow{
			Code:           r.Code,
			Name:           r.Name,
			Subject:        r.Subject,
			TeacherIDsRaw:  string(teacherIDs),
			SubgroupIDsRaw: string(subgroupIDs),
			Duration:       r.Duration,
			Type:           r.Type,
			RoomReqsRaw:    string(roomReqs),
		})
	}
	return out, nil
}

// ListSpaces implements SpaceReader.
func (p *Postgres) ListSpaces(ctx context.Context) ([]SpaceRow, error) {
	const query = `SELECT code, name, long_name, capacity, attributes FROM spaces`
	var raw []struct {
		Code       string `db:"code"`
		Name       string `db:"name"`
		LongName   string `db:"long_name"`
		Capacity   int    `db:"capacity"`
		Attributes []byte `db:"attributes"`
	}
	if err := p.db.SelectContext(ctx, &raw, query); err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	out := make([]SpaceRow, 0, len(raw))
	for _, r := range raw {
		attrs := r.Attributes
		if len(attrs) == 0 {
			attrs = []byte("{}")
		}
		out = append(out, SpaceRow{
			Code:     r.Code,
			Name:     r.Name,
			LongName: r.LongName,
			Capacity: r.Capacity,
			AttrsRaw: string(attrs),
		})
	}
	return out, nil
}

// ListPeriods implements PeriodReader.
func (p *Postgres) ListPeriods(ctx context.Context) ([]PeriodRow, error) {
	const query = `SELECT id, day_id, period_index, is_interval FROM periods_of_operation ORDER BY day_id, period_index`
	var out []PeriodRow
	if err := p.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return out, nil
}

// ListDays implements DayReader.
func (p *Postgres) ListDays(ctx context.Context) ([]DayRow, error) {
	const query = `SELECT id, name FROM days_of_operation ORDER BY id`
	var out []DayRow
	if err := p.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	return out, nil
}

// ListTeachers implements TeacherReader, restricted to faculty users.
func (p *Postgres) ListTeachers(ctx context.Context) ([]TeacherRow, error) {
	const query = `SELECT id, subjects, position, target_hours FROM users WHERE role = 'faculty'`
	var raw []struct {
		ID          string         `db:"id"`
		Subjects    pq.StringArray `db:"subjects"`
		Position    string         `db:"position"`
		TargetHours int            `db:"target_hours"`
	}
	if err := p.db.SelectContext(ctx, &raw, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	out := make([]TeacherRow, 0, len(raw))
	for _, r := range raw {
		subjects, _ := json.Marshal([]string(r.Subjects))
		out = append(out, TeacherRow{
			ID:          r.ID,
			SubjectsRaw: string(subjects),
			Position:    r.Position,
			TargetHours: r.TargetHours,
		})
	}
	return out, nil
}

// ListConstraints implements ConstraintReader.
func (p *Postgres) ListConstraints(ctx context.Context) ([]ConstraintRow, error) {
	const query = `SELECT code, weight, details, type, scope, applicability FROM constraints`
	var out []ConstraintRow
	if err := p.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list constraints: %w", err)
	}
	return out, nil
}

// CreateTimetable inserts one semester- and algorithm-tagged Timetable
// document along with its sessions, in a single transaction.
func (p *Postgres) CreateTimetable(ctx context.Context, semester, algorithm string, sessions []domain.ScheduledSession) (string, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin timetable insert: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	now := time.Now().UTC()

	const insertTimetable = `
INSERT INTO timetables (id, semester_tag, algorithm, created_at)
VALUES (:id, :semester_tag, :algorithm, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insertTimetable, TimetableRow{
		ID: id, Semester: semester, Algorithm: algorithm, CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("insert timetable: %w", err)
	}

	const insertSession = `
INSERT INTO timetable_sessions
	(id, timetable_id, activity_code, day_id, periods, room_code, teacher_id, subgroup_ids, duration, subject, student_count, type, is_split)
VALUES
	(:id, :timetable_id, :activity_code, :day_id, :periods, :room_code, :teacher_id, :subgroup_ids, :duration, :subject, :student_count, :type, :is_split)`
	for _, s := range sessions {
		periods, _ := json.Marshal(s.Periods)
		subgroups, _ := json.Marshal(s.Subgroups)
		row := SessionRow{
			ID:           uuid.NewString(),
			TimetableID:  id,
			ActivityCode: s.ActivityCode,
			Day:          s.Day,
			PeriodsRaw:   string(periods),
			Room:         s.Room,
			Teacher:      s.Teacher,
			SubgroupsRaw: string(subgroups),
			Duration:     s.Duration,
			Subject:      s.Subject,
			StudentCount: s.StudentCount,
			Type:         string(s.Type),
			IsSplit:      s.IsSplit,
		}
		if _, err := sqlx.NamedExecContext(ctx, tx, insertSession, row); err != nil {
			return "", fmt.Errorf("insert timetable session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit timetable insert: %w", err)
	}
	return id, nil
}

// UpsertScore updates the latest_score record for one semester/algorithm pair.
func (p *Postgres) UpsertScore(ctx context.Context, semester, algorithm string, hardCost, softCost float64) error {
	const query = `
INSERT INTO latest_score (semester_tag, algorithm, hard_cost, soft_cost, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (semester_tag, algorithm) DO UPDATE
SET hard_cost = EXCLUDED.hard_cost, soft_cost = EXCLUDED.soft_cost, updated_at = EXCLUDED.updated_at`
	_, err := p.db.ExecContext(ctx, query, semester, algorithm, hardCost, softCost, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert latest_score: %w", err)
	}
	return nil
}

// InsertNotification records one generation run for the notifications feed.
func (p *Postgres) InsertNotification(ctx context.Context, semester, algorithm string, hardCost, softCost float64) error {
	const query = `
INSERT INTO notifications (id, semester_tag, algorithm, hard_cost, soft_cost, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := p.db.ExecContext(ctx, query, uuid.NewString(), semester, algorithm, hardCost, softCost, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ArchiveTimetable copies the previous best for a semester/algorithm pair
// into old_timetables, preserving §6.2's run history; the row in
// timetables is left in place. Intended to be called inside the same transaction scope as
// CreateTimetable by callers that need that guarantee; kept as a
// standalone statement here since the reference deployment runs it
// opportunistically rather than atomically with every write.
func (p *Postgres) ArchiveTimetable(ctx context.Context, timetableID string) error {
	const query = `
INSERT INTO old_timetables (id, semester_tag, algorithm, created_at, archived_at)
SELECT id, semester_tag, algorithm, created_at, now() FROM timetables WHERE id = $1`
	_, err := p.db.ExecContext(ctx, query, timetableID)
	if err != nil {
		return fmt.Errorf("archive timetable: %w", err)
	}
	return nil
}
