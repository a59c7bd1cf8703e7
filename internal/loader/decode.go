package loader

import (
	"encoding/json"
	"fmt"

	"github.com/noah-isme/timetable-engine/internal/domain"
)

// The constraints collection (§6.3) stores each record's `details` as a
// JSONB document shaped around a single named wrapper key. Two shapes
// recur across TC-002..TC-014: a flat object keyed by entity id
// ({"max_days": {"T1": 3}}), and a list of per-entity records
// ({"max_consecutive_periods": [{"teacher_id": "T1", "max_periods": 3}]}).
// These helpers decode both without repeating the same unmarshal-then-walk
// logic at every call site in buildConstraints.

func hasKey(raw json.RawMessage, key string) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, ok := probe[key]
	return ok
}

func unwrap(raw json.RawMessage, key string) (json.RawMessage, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("details is not an object: %w", err)
	}
	body, ok := probe[key]
	if !ok {
		return nil, fmt.Errorf("details missing %q", key)
	}
	return body, nil
}

// decodeScalarMap parses {wrapperKey: {id: scalar}} into a map[string]int.
func decodeScalarMap(raw json.RawMessage, wrapperKey string) (map[string]int, error) {
	body, err := unwrap(raw, wrapperKey)
	if err != nil {
		return nil, err
	}
	var out map[string]int
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%s is not a string->int map: %w", wrapperKey, err)
	}
	return out, nil
}

// decodeListScalar parses {wrapperKey: [{idField: id, valField: scalar}, ...]}
// into a map[string]int keyed by each entry's idField value.
func decodeListScalar(raw json.RawMessage, wrapperKey, idField, valField string) (map[string]int, error) {
	body, err := unwrap(raw, wrapperKey)
	if err != nil {
		return nil, err
	}
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%s is not a list: %w", wrapperKey, err)
	}
	out := make(map[string]int, len(entries))
	for i, entry := range entries {
		id, val, err := entryIDAndInt(entry, idField, valField)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", wrapperKey, i, err)
		}
		out[id] = val
	}
	return out, nil
}

// decodeListStrings parses {wrapperKey: [{idField: id, listField: [..strings]}]}
// into a map[string][]string keyed by each entry's idField value.
func decodeListStrings(raw json.RawMessage, wrapperKey, idField, listField string) (map[string][]string, error) {
	body, err := unwrap(raw, wrapperKey)
	if err != nil {
		return nil, err
	}
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%s is not a list: %w", wrapperKey, err)
	}
	out := make(map[string][]string, len(entries))
	for i, entry := range entries {
		var id string
		if err := json.Unmarshal(entry[idField], &id); err != nil {
			return nil, fmt.Errorf("%s[%d].%s: %w", wrapperKey, i, idField, err)
		}
		var list []string
		if err := json.Unmarshal(entry[listField], &list); err != nil {
			return nil, fmt.Errorf("%s[%d].%s: %w", wrapperKey, i, listField, err)
		}
		out[id] = list
	}
	return out, nil
}

// decodeDayPeriodsList parses
// {wrapperKey: [{idField: id, listField: {day_id: [period_index,...]}}]}
// into a map[string]domain.DayPeriods keyed by each entry's idField value.
func decodeDayPeriodsList(raw json.RawMessage, wrapperKey, idField, listField string) (map[string]domain.DayPeriods, error) {
	body, err := unwrap(raw, wrapperKey)
	if err != nil {
		return nil, err
	}
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%s is not a list: %w", wrapperKey, err)
	}
	out := make(map[string]domain.DayPeriods, len(entries))
	for i, entry := range entries {
		var id string
		if err := json.Unmarshal(entry[idField], &id); err != nil {
			return nil, fmt.Errorf("%s[%d].%s: %w", wrapperKey, i, idField, err)
		}
		var dp domain.DayPeriods
		if err := json.Unmarshal(entry[listField], &dp); err != nil {
			return nil, fmt.Errorf("%s[%d].%s: %w", wrapperKey, i, listField, err)
		}
		out[id] = dp
	}
	return out, nil
}

func entryIDAndInt(entry map[string]json.RawMessage, idField, valField string) (string, int, error) {
	var id string
	if err := json.Unmarshal(entry[idField], &id); err != nil {
		return "", 0, fmt.Errorf("%s: %w", idField, err)
	}
	var val int
	if err := json.Unmarshal(entry[valField], &val); err != nil {
		return "", 0, fmt.Errorf("%s: %w", valField, err)
	}
	return id, val, nil
}
