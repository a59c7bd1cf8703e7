// Package loader builds a read-only domain.Model from the external store
// (§1's "document database", out of scope itself) and writes the search
// engine's output back to it. Narrow reader/writer interfaces keep the
// engine decoupled from any concrete store; postgres.go is one
// implementation, grounded in the teacher's pkg/database + repository
// pattern.
package loader

import (
	"encoding/json"
	"time"
)

// ActivityRow is the raw shape of one Activities document/row (§6.1).
type ActivityRow struct {
	Code             string   `db:"code" validate:"required"`
	Name             string   `db:"name"`
	Subject          string   `db:"subject" validate:"required"`
	TeacherIDs       []string `db:"-" validate:"required,min=1"`
	TeacherIDsRaw    string   `db:"teacher_ids"`
	SubgroupIDs      []string `db:"-" validate:"required,min=1"`
	SubgroupIDsRaw   string   `db:"subgroup_ids"`
	Duration         int      `db:"duration" validate:"required,gt=0"`
	Type             string   `db:"type" validate:"required,oneof=Lecture+Tutorial Lab"`
	RoomRequirements []string `db:"-"`
	RoomReqsRaw      string   `db:"space_requirements"`
}

// SpaceRow is the raw shape of one Spaces (room) document/row.
type SpaceRow struct {
	Code       string            `db:"code" validate:"required"`
	Name       string            `db:"name"`
	LongName   string            `db:"long_name"`
	Capacity   int               `db:"capacity" validate:"gte=0"`
	Attributes map[string]string `db:"-"`
	AttrsRaw   string            `db:"attributes"`
}

// PeriodRow is the raw shape of one periods_of_operation document/row.
type PeriodRow struct {
	ID         string `db:"id" validate:"required"`
	DayID      string `db:"day_id" validate:"required"`
	Index      int    `db:"period_index"`
	IsInterval bool   `db:"is_interval"`
}

// DayRow is the raw shape of one days_of_operation document/row.
type DayRow struct {
	ID   string `db:"id" validate:"required"`
	Name string `db:"name"`
}

// TeacherRow is the raw shape of one Users document/row with role=faculty.
type TeacherRow struct {
	ID          string   `db:"id" validate:"required"`
	Subjects    []string `db:"-"`
	SubjectsRaw string   `db:"subjects"`
	Position    string   `db:"position"`
	TargetHours int      `db:"target_hours"`
}

// ConstraintRow is the raw shape of one constraints document/row (§6.3).
// Type/Scope/Applicability are the fields §3.1 supplements from
// original_source/models/constraint_model.py; they are read from the store
// but the loader does not use them: only Code/Weight/Details drive evaluation.
type ConstraintRow struct {
	Code          string          `db:"code" validate:"required"`
	Weight        float64         `db:"weight"`
	Details       json.RawMessage `db:"details"`
	Type          string          `db:"type"`
	Scope         string          `db:"scope"`
	Applicability json.RawMessage `db:"applicability"`
}

// TimetableRow is one persisted Timetable document (§6.2): a semester- and
// algorithm-tagged batch of sessions.
type TimetableRow struct {
	ID        string    `db:"id"`
	Semester  string    `db:"semester_tag"`
	Algorithm string    `db:"algorithm"`
	CreatedAt time.Time `db:"created_at"`
}

// SessionRow is one Scheduled Session row belonging to a TimetableRow.
type SessionRow struct {
	ID           string `db:"id"`
	TimetableID  string `db:"timetable_id"`
	ActivityCode string `db:"activity_code"`
	Day          string `db:"day_id"`
	PeriodsRaw   string `db:"periods"`
	Room         string `db:"room_code"`
	Teacher      string `db:"teacher_id"`
	SubgroupsRaw string `db:"subgroup_ids"`
	Duration     int    `db:"duration"`
	Subject      string `db:"subject"`
	StudentCount int    `db:"student_count"`
	Type         string `db:"type"`
	IsSplit      bool   `db:"is_split"`
}

// ScoreRow is the `latest_score` settings record (§6.2).
type ScoreRow struct {
	Semester   string    `db:"semester_tag"`
	Algorithm  string    `db:"algorithm"`
	HardCost   float64   `db:"hard_cost"`
	SoftCost   float64   `db:"soft_cost"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// NotificationRow is one `notifications` record emitted per generation run.
type NotificationRow struct {
	ID        string    `db:"id"`
	Semester  string    `db:"semester_tag"`
	Algorithm string    `db:"algorithm"`
	HardCost  float64   `db:"hard_cost"`
	SoftCost  float64   `db:"soft_cost"`
	CreatedAt time.Time `db:"created_at"`
}
