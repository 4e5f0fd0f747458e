package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// EntityType enumerates the typed values extracted from an utterance.
type EntityType string

// Entity types.
const (
	EntityTerminal          EntityType = "terminal"
	EntityStand             EntityType = "stand"
	EntityPier              EntityType = "pier"
	EntityAircraftType      EntityType = "aircraft_type"
	EntityAircraftCategory  EntityType = "aircraft_category"
	EntityBodyType          EntityType = "body_type"
	EntityAirline           EntityType = "airline"
	EntityFlightNumber      EntityType = "flight_number"
	EntityFlightDirection   EntityType = "flight_direction"
	EntityFlightType        EntityType = "flight_type"
	EntityTimePeriod        EntityType = "time_period"
	EntityDate              EntityType = "date"
	EntityTime              EntityType = "time"
	EntityDuration          EntityType = "duration"
	EntityPercentage        EntityType = "percentage"
	EntityQuantity          EntityType = "quantity"
	EntityMaintenanceStatus EntityType = "maintenance_status"
	EntityCapacityMetric    EntityType = "capacity_metric"
	EntityVisualizationType EntityType = "visualization_type"
	EntityScenario          EntityType = "scenario"
)

// AllEntityTypes returns every entity type.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityTerminal, EntityStand, EntityPier, EntityAircraftType, EntityAircraftCategory,
		EntityBodyType, EntityAirline, EntityFlightNumber, EntityFlightDirection, EntityFlightType,
		EntityTimePeriod, EntityDate, EntityTime, EntityDuration, EntityPercentage, EntityQuantity,
		EntityMaintenanceStatus, EntityCapacityMetric, EntityVisualizationType, EntityScenario,
	}
}

// IsValid returns true if the entity type is recognised.
func (t EntityType) IsValid() bool {
	for _, known := range AllEntityTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ValueKind tags the variant held by an EntityValue.
type ValueKind int

// Entity value variants.
const (
	ValueText ValueKind = iota
	ValueNumber
	ValueList
	ValuePeriod
)

// EntityRef is the vocabulary decoration attached to a resolved entity.
type EntityRef struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// EntityValue is a tagged entity value in canonical form.
type EntityValue struct {
	Kind   ValueKind
	Text   string
	Number float64
	List   []string
	Period *TimePeriod

	// Ref is set when the value matched a vocabulary entry.
	Ref *EntityRef
}

// TextValue builds a text variant.
func TextValue(s string) EntityValue { return EntityValue{Kind: ValueText, Text: s} }

// NumberValue builds a numeric variant.
func NumberValue(n float64) EntityValue { return EntityValue{Kind: ValueNumber, Number: n} }

// ListValue builds a list variant.
func ListValue(items ...string) EntityValue {
	return EntityValue{Kind: ValueList, List: append([]string(nil), items...)}
}

// PeriodValue builds a time period variant.
func PeriodValue(p TimePeriod) EntityValue { return EntityValue{Kind: ValuePeriod, Period: &p} }

// Values returns the value flattened to strings; lists keep their order.
func (v EntityValue) Values() []string {
	switch v.Kind {
	case ValueList:
		return v.List
	case ValueNumber:
		return []string{strconv.FormatFloat(v.Number, 'f', -1, 64)}
	case ValuePeriod:
		if v.Period == nil {
			return nil
		}
		return []string{v.Period.Expression}
	default:
		if v.Text == "" {
			return nil
		}
		return []string{v.Text}
	}
}

// First returns the first flattened value or "".
func (v EntityValue) First() string {
	vals := v.Values()
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Equal compares two values by variant and content, ignoring decoration.
func (v EntityValue) Equal(o EntityValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueNumber:
		return v.Number == o.Number
	case ValueList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != o.List[i] {
				return false
			}
		}
		return true
	case ValuePeriod:
		if v.Period == nil || o.Period == nil {
			return v.Period == o.Period
		}
		return v.Period.Type == o.Period.Type && v.Period.Start.Equal(o.Period.Start) && v.Period.End.Equal(o.Period.End)
	default:
		return v.Text == o.Text
	}
}

// MarshalJSON renders the natural JSON form of the variant.
func (v EntityValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Number)
	case ValueList:
		return json.Marshal(v.List)
	case ValuePeriod:
		return json.Marshal(v.Period)
	default:
		if v.Ref != nil {
			return json.Marshal(struct {
				Value string     `json:"value"`
				Ref   *EntityRef `json:"ref"`
			}{v.Text, v.Ref})
		}
		return json.Marshal(v.Text)
	}
}

// UnmarshalJSON accepts strings, numbers, arrays of scalars and {"value": ...} objects.
// Time periods arrive as expressions and are resolved by the caller.
func (v *EntityValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, ok := valueFromAny(raw)
	if !ok {
		return fmt.Errorf("%w: unsupported entity value %s", ErrMalformedResponse, string(data))
	}
	*v = val
	return nil
}

func valueFromAny(raw any) (EntityValue, bool) {
	switch x := raw.(type) {
	case string:
		return TextValue(x), true
	case float64:
		return NumberValue(x), true
	case bool:
		return TextValue(strconv.FormatBool(x)), true
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			inner, ok := valueFromAny(item)
			if !ok {
				continue
			}
			items = append(items, inner.Values()...)
		}
		return ListValue(items...), true
	case map[string]any:
		if inner, ok := x["value"]; ok {
			return valueFromAny(inner)
		}
		if expr, ok := x["expression"].(string); ok {
			return TextValue(expr), true
		}
	}
	return EntityValue{}, false
}

// Entities maps entity types to canonical values.
type Entities map[EntityType]EntityValue

// Has reports whether a non-empty value exists for t.
func (e Entities) Has(t EntityType) bool {
	v, ok := e[t]
	return ok && len(v.Values()) > 0
}

// Text returns the first flattened value for t.
func (e Entities) Text(t EntityType) string {
	v, ok := e[t]
	if !ok {
		return ""
	}
	return v.First()
}

// Clone returns a deep copy.
func (e Entities) Clone() Entities {
	out := make(Entities, len(e))
	for k, v := range e {
		if v.List != nil {
			v.List = append([]string(nil), v.List...)
		}
		if v.Period != nil {
			p := *v.Period
			v.Period = &p
		}
		out[k] = v
	}
	return out
}

// Types returns the populated entity types in sorted order.
func (e Entities) Types() []EntityType {
	types := make([]EntityType, 0, len(e))
	for t := range e {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Describe renders "type=value" pairs for prompts.
func (e Entities) Describe() string {
	parts := make([]string, 0, len(e))
	for _, t := range e.Types() {
		parts = append(parts, fmt.Sprintf("%s=%s", t, strings.Join(e[t].Values(), ",")))
	}
	return strings.Join(parts, "; ")
}
