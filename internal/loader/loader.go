package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/timetable-engine/internal/domain"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

// ActivityReader reads the Activities collection (§6.1).
type ActivityReader interface {
	ListActivities(ctx context.Context) ([]ActivityRow, error)
}

// SpaceReader reads the Spaces (room) collection.
type SpaceReader interface {
	ListSpaces(ctx context.Context) ([]SpaceRow, error)
}

// PeriodReader reads periods_of_operation.
type PeriodReader interface {
	ListPeriods(ctx context.Context) ([]PeriodRow, error)
}

// DayReader reads days_of_operation.
type DayReader interface {
	ListDays(ctx context.Context) ([]DayRow, error)
}

// TeacherReader reads Users filtered to role=faculty.
type TeacherReader interface {
	ListTeachers(ctx context.Context) ([]TeacherRow, error)
}

// ConstraintReader reads the constraints collection.
type ConstraintReader interface {
	ListConstraints(ctx context.Context) ([]ConstraintRow, error)
}

// Store bundles every reader the Loader needs. A concrete adapter (e.g.
// *Postgres) satisfies this by implementing all six methods.
type Store interface {
	ActivityReader
	SpaceReader
	PeriodReader
	DayReader
	TeacherReader
	ConstraintReader
}

// ResultWriter persists generate()'s output (§6.2): the winning sessions
// for one semester/algorithm pair, the latest_score record, and the
// notifications feed. *Postgres implements this; generate() depends only
// on the interface.
type ResultWriter interface {
	CreateTimetable(ctx context.Context, semester, algorithm string, sessions []domain.ScheduledSession) (string, error)
	UpsertScore(ctx context.Context, semester, algorithm string, hardCost, softCost float64) error
	InsertNotification(ctx context.Context, semester, algorithm string, hardCost, softCost float64) error
}

// Loader turns raw store rows into a frozen domain.Model, validating at
// the Data-errors boundary (§7) before a single activity is scheduled.
type Loader struct {
	store               Store
	validate            *validator.Validate
	studentsPerSubgroup int
	labCapacityCeiling  int
}

// New builds a Loader. studentsPerSubgroup and labCapacityCeiling are
// passed straight to domain.Build, which applies the reference defaults
// (40, 60) when zero.
func New(store Store, studentsPerSubgroup, labCapacityCeiling int) *Loader {
	return &Loader{
		store:               store,
		validate:            validator.New(),
		studentsPerSubgroup: studentsPerSubgroup,
		labCapacityCeiling:  labCapacityCeiling,
	}
}

// Load reads every collection, validates each row, and assembles the
// domain.Model. Any malformed entity is a Data error (§7): load refuses to
// start the search rather than silently dropping the record.
func (l *Loader) Load(ctx context.Context) (*domain.Model, error) {
	activityRows, err := l.store.ListActivities(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "LOADER_ACTIVITIES", 0, "failed to list activities")
	}
	spaceRows, err := l.store.ListSpaces(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "LOADER_SPACES", 0, "failed to list spaces")
	}
	periodRows, err := l.store.ListPeriods(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "LOADER_PERIODS", 0, "failed to list periods")
	}
	dayRows, err := l.store.ListDays(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "LOADER_DAYS", 0, "failed to list days")
	}
	teacherRows, err := l.store.ListTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "LOADER_TEACHERS", 0, "failed to list teachers")
	}
	constraintRows, err := l.store.ListConstraints(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "LOADER_CONSTRAINTS", 0, "failed to list constraints")
	}

	activities, err := l.buildActivities(activityRows)
	if err != nil {
		return nil, err
	}
	rooms, err := l.buildRooms(spaceRows)
	if err != nil {
		return nil, err
	}
	periods := l.buildPeriods(periodRows)
	days := l.buildDays(dayRows)
	teachers, err := l.buildTeachers(teacherRows)
	if err != nil {
		return nil, err
	}
	constraints, err := l.buildConstraints(constraintRows, periods)
	if err != nil {
		return nil, err
	}

	// TC-014 overrides Activity.duration at load time (§6.3).
	for code, dur := range constraints.durationOverride {
		for i := range activities {
			if activities[i].Code == code {
				activities[i].Duration = dur
			}
		}
	}

	model := domain.Build(activities, rooms, periods, days, teachers, constraints.Constraints, l.studentsPerSubgroup, l.labCapacityCeiling)
	return model, nil
}

func (l *Loader) buildActivities(rows []ActivityRow) ([]domain.Activity, error) {
	out := make([]domain.Activity, 0, len(rows))
	for _, row := range rows {
		if err := json.Unmarshal([]byte(orEmptyArray(row.TeacherIDsRaw)), &row.TeacherIDs); err != nil {
			return nil, appErrors.Wrap(err, "LOADER_ACTIVITY_TEACHER_IDS", 0, fmt.Sprintf("activity %s: malformed teacher_ids", row.Code))
		}
		if err := json.Unmarshal([]byte(orEmptyArray(row.SubgroupIDsRaw)), &row.SubgroupIDs); err != nil {
			return nil, appErrors.Wrap(err, "LOADER_ACTIVITY_SUBGROUP_IDS", 0, fmt.Sprintf("activity %s: malformed subgroup_ids", row.Code))
		}
		if err := json.Unmarshal([]byte(orEmptyArray(row.RoomReqsRaw)), &row.RoomRequirements); err != nil {
			return nil, appErrors.Wrap(err, "LOADER_ACTIVITY_ROOM_REQS", 0, fmt.Sprintf("activity %s: malformed space_requirements", row.Code))
		}
		if err := l.validate.Struct(row); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, fmt.Sprintf("activity %s failed validation", row.Code))
		}
		out = append(out, domain.Activity{
			Code:             row.Code,
			Subject:          row.Subject,
			TeacherIDs:       row.TeacherIDs,
			SubgroupIDs:      row.SubgroupIDs,
			Duration:         row.Duration,
			Type:             domain.ActivityType(row.Type),
			RoomRequirements: row.RoomRequirements,
			Name:             row.Name,
		})
	}
	return out, nil
}

func (l *Loader) buildRooms(rows []SpaceRow) ([]domain.Room, error) {
	out := make([]domain.Room, 0, len(rows))
	for _, row := range rows {
		attrs := map[string]string{}
		if row.AttrsRaw != "" {
			if err := json.Unmarshal([]byte(row.AttrsRaw), &attrs); err != nil {
				return nil, appErrors.Wrap(err, "LOADER_SPACE_ATTRS", 0, fmt.Sprintf("space %s: malformed attributes", row.Code))
			}
		}
		if err := l.validate.Struct(row); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, fmt.Sprintf("space %s failed validation", row.Code))
		}
		out = append(out, domain.Room{
			Code:       row.Code,
			Name:       row.Name,
			LongName:   row.LongName,
			Capacity:   row.Capacity,
			Attributes: attrs,
		})
	}
	return out, nil
}

func (l *Loader) buildPeriods(rows []PeriodRow) map[string][]domain.Period {
	out := map[string][]domain.Period{}
	for _, row := range rows {
		out[row.DayID] = append(out[row.DayID], domain.Period{ID: row.ID, Index: row.Index, IsInterval: row.IsInterval})
	}
	for day := range out {
		sort.Slice(out[day], func(i, j int) bool { return out[day][i].Index < out[day][j].Index })
	}
	return out
}

func (l *Loader) buildDays(rows []DayRow) []domain.Day {
	out := make([]domain.Day, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Day{ID: row.ID, Name: row.Name})
	}
	return out
}

func (l *Loader) buildTeachers(rows []TeacherRow) ([]domain.Teacher, error) {
	out := make([]domain.Teacher, 0, len(rows))
	for _, row := range rows {
		var subjects []string
		if row.SubjectsRaw != "" {
			if err := json.Unmarshal([]byte(row.SubjectsRaw), &subjects); err != nil {
				return nil, appErrors.Wrap(err, "LOADER_TEACHER_SUBJECTS", 0, fmt.Sprintf("teacher %s: malformed subjects", row.ID))
			}
		}
		if err := l.validate.Struct(row); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, fmt.Sprintf("teacher %s failed validation", row.ID))
		}
		out = append(out, domain.Teacher{ID: row.ID, Subjects: subjects, Position: row.Position, TargetHours: row.TargetHours})
	}
	return out, nil
}

// parsedConstraints bundles the direct-addressable domain.Constraints with
// the TC-014 duration-override map, which is applied to activities rather
// than kept on the Constraints table itself.
type parsedConstraints struct {
	domain.Constraints
	durationOverride domain.ActivityDurationOverride
}

func (l *Loader) buildConstraints(rows []ConstraintRow, periods map[string][]domain.Period) (parsedConstraints, error) {
	out := parsedConstraints{Constraints: domain.Constraints{Weights: domain.ConstraintWeights{}}}
	for _, row := range rows {
		out.Weights[row.Code] = row.Weight
		switch row.Code {
		case domain.TC001TeacherAvailability:
			// The store records each teacher's AVAILABLE periods per day
			// (§6.3's raw shape); domain.TeacherAvailability holds the
			// complement, so the constructor's teacherAvailable() can
			// treat an absent entry as "unrestricted" rather than having
			// to special-case an empty list. Invert against the full
			// period set for that day (intervals included — a teacher
			// can't be scheduled into one anyway, so whether they're
			// "available" during it is moot).
			var raw domain.TeacherAvailability
			if err := json.Unmarshal(row.Details, &raw); err != nil {
				return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-001 details malformed")
			}
			out.TeacherAvailability = invertAvailability(raw, periods)

		case domain.TC002TeacherMaxDays:
			payload, err := decodeScalarMap(row.Details, "max_days")
			if err != nil {
				return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-002 details malformed")
			}
			out.TeacherMaxDays = payload

		case "TC-003":
			// Open Question 1: the ambiguous record is disambiguated by shape —
			// a payload keyed by "teacher_preferred_times" is preferred-time,
			// anything else is min-days, read from a {"min_days": {teacher_id: days}} wrapper.
			if hasKey(row.Details, "teacher_preferred_times") {
				payload, err := decodeDayPeriodsList(row.Details, "teacher_preferred_times", "teacher_id", "preferred_times")
				if err != nil {
					return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-003 (preferred-time) details malformed")
				}
				out.TeacherPreferredTime = domain.TeacherPreferredTime(payload)
			} else {
				payload, err := decodeScalarMap(row.Details, "min_days")
				if err != nil {
					return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-003 (min-days) details malformed")
				}
				out.TeacherMinDays = domain.TeacherMinDays(payload)
			}

		case domain.TC004MaxConsecutive:
			payload, err := decodeListScalar(row.Details, "max_consecutive_periods", "teacher_id", "max_periods")
			if err != nil {
				return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-004 details malformed")
			}
			out.MaxConsecutive = payload

		case domain.TC005StudentPreferredTime:
			payload, err := decodeDayPeriodsList(row.Details, "student_preferred_times", "subgroup_id", "preferred_times")
			if err != nil {
				return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-005 details malformed")
			}
			out.StudentPreferredTime = domain.StudentPreferredTime(payload)

		case domain.TC008MinGap:
			payload, err := decodeListScalar(row.Details, "min_gap_between_classes", "teacher_id", "min_gap")
			if err != nil {
				return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-008 details malformed")
			}
			out.MinGap = payload

		case domain.TC009MaxHoursPerDay:
			payload, err := decodeListScalar(row.Details, "max_teaching_hours_per_day", "teacher_id", "max_hours")
			if err != nil {
				return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-009 details malformed")
			}
			out.MaxHoursPerDay = payload

		case domain.TC010MaxClassesPerDay:
			payload, err := decodeListScalar(row.Details, "max_classes_per_day", "subgroup_id", "max_classes")
			if err != nil {
				return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-010 details malformed")
			}
			out.MaxClassesPerDay = payload

		case domain.TC011RoomUnavailable:
			payload, err := decodeDayPeriodsList(row.Details, "room_unavailability", "room_id", "unavailable_times")
			if err != nil {
				return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-011 details malformed")
			}
			out.RoomUnavailable = domain.RoomUnavailable(payload)

		case domain.TC012TeacherSubjectPref:
			payload, err := decodeListStrings(row.Details, "teacher_subject_preference", "teacher_id", "preferred_subjects")
			if err != nil {
				return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-012 details malformed")
			}
			out.TeacherSubjectPref = payload

		case domain.TC014ActivityDuration:
			payload, err := decodeListScalar(row.Details, "activity_durations", "activity_code", "duration")
			if err != nil {
				return out, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "TC-014 details malformed")
			}
			out.durationOverride = domain.ActivityDurationOverride(payload)
		}
	}
	return out, nil
}

// invertAvailability turns a {teacher: {day: [available period indices]}}
// payload into its blocked-period complement against the day's full period
// set. A teacher with no entry at all is left out of the result, which
// the constructor's teacherAvailable() then treats as unrestricted.
func invertAvailability(available domain.TeacherAvailability, periods map[string][]domain.Period) domain.TeacherAvailability {
	out := make(domain.TeacherAvailability, len(available))
	for teacherID, byDay := range available {
		blocked := domain.DayPeriods{}
		for dayID, dayPeriods := range periods {
			availableSet := make(map[int]bool, len(byDay[dayID]))
			for _, idx := range byDay[dayID] {
				availableSet[idx] = true
			}
			var blockedIndices []int
			for _, p := range dayPeriods {
				if !availableSet[p.Index] {
					blockedIndices = append(blockedIndices, p.Index)
				}
			}
			if len(blockedIndices) > 0 {
				blocked[dayID] = blockedIndices
			}
		}
		out[teacherID] = blocked
	}
	return out
}

func orEmptyArray(raw string) string {
	if raw == "" {
		return "[]"
	}
	return raw
}
