package funnel

import (
	"github.com/burenotti/go_health_funnel/internal/domain/nutrition"
	"maps"
	"math"
)

// Answers is an immutable set of questionnaire answers. The zero value is
// an empty set.
type Answers struct {
	values map[FieldKey]string
}

func NewAnswers(values map[FieldKey]string) Answers {
	return Answers{values: maps.Clone(values)}
}

func (a Answers) Get(key FieldKey) (string, bool) {
	v, ok := a.values[key]
	return v, ok && v != ""
}

// With returns a copy of a with key set to value.
func (a Answers) With(key FieldKey, value string) Answers {
	values := maps.Clone(a.values)
	if values == nil {
		values = make(map[FieldKey]string, 1)
	}
	values[key] = value
	return Answers{values: values}
}

func (a Answers) Values() map[FieldKey]string {
	if a.values == nil {
		return map[FieldKey]string{}
	}
	return maps.Clone(a.values)
}

func (a Answers) Len() int {
	return len(a.values)
}

func (a Answers) Email() string {
	v, _ := a.Get(FieldEmail)
	return v
}

// Profile builds the estimator input. ok is false unless age, weight and
// height are all present and numeric; sex, activity and goal are passed
// through as answered.
func (a Answers) Profile() (p nutrition.Profile, ok bool) {
	age, ok := a.number(FieldAge)
	if !ok {
		return nutrition.Profile{}, false
	}
	weight, ok := a.number(FieldWeight)
	if !ok {
		return nutrition.Profile{}, false
	}
	height, ok := a.number(FieldHeight)
	if !ok {
		return nutrition.Profile{}, false
	}

	sex, _ := a.Get(FieldSex)
	activity, _ := a.Get(FieldActivity)
	goal, _ := a.Get(FieldGoal)

	return nutrition.Profile{
		Sex:      nutrition.Sex(sex),
		AgeYears: int(math.Trunc(age)),
		WeightKg: weight,
		HeightCm: height,
		Activity: nutrition.ActivityLevel(activity),
		Goal:     nutrition.Goal(goal),
	}, true
}

func (a Answers) number(key FieldKey) (float64, bool) {
	raw, ok := a.Get(key)
	if !ok {
		return 0, false
	}
	v, err := parseNumber(raw)
	return v, err == nil
}
