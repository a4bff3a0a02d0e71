package nutrition

import (
	"fmt"
	"math"
)

const (
	DeficitKcal        = 500
	SurplusKcal        = 500
	FiberG             = 25
	proteinGPerKg      = 2.0
	fatCalorieShare    = 0.25
	waterLitersPerKg   = 0.035
	kcalPerGramFat     = 9
	kcalPerGramCarbs   = 4
	kcalPerGramProtein = 4
)

// activityMultipliers maps an activity level to its TDEE multiplier.
// Unknown levels fall back to sedentaryMultiplier.
var activityMultipliers = map[ActivityLevel]float64{
	Sedentary: 1.2,
	Light:     1.375,
	Moderate:  1.55,
	Intense:   1.725,
}

const sedentaryMultiplier = 1.2

// ActivityMultiplier accepts canonical names and pt-BR aliases.
func ActivityMultiplier(level ActivityLevel) float64 {
	if canonical, err := ParseActivityLevel(string(level)); err == nil {
		return activityMultipliers[canonical]
	}
	return sedentaryMultiplier
}

// GoalPolicy selects how the stated goal shifts the calorie target.
type GoalPolicy string

const (
	// FixedDeficit applies the weight-loss deficit to every profile.
	FixedDeficit GoalPolicy = "fixed_deficit"
	// ByGoal applies a deficit, maintenance or surplus according to Profile.Goal.
	ByGoal GoalPolicy = "by_goal"
)

func ParseGoalPolicy(s string) (GoalPolicy, error) {
	switch p := GoalPolicy(normalize(s)); p {
	case FixedDeficit, ByGoal:
		return p, nil
	case "":
		return FixedDeficit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

type Estimator struct {
	Policy GoalPolicy
}

func NewEstimator(policy GoalPolicy) Estimator {
	return Estimator{Policy: policy}
}

// Estimate is the FixedDeficit estimator.
func Estimate(p Profile) Plan {
	return Estimator{Policy: FixedDeficit}.Estimate(p)
}

// Estimate performs no plausibility checks: any numeric input produces a plan.
// All intermediate values keep full precision; rounding is applied only to the
// returned fields.
func (e Estimator) Estimate(p Profile) Plan {
	bmr := BMR(p.Sex, p.WeightKg, p.HeightCm, p.AgeYears)
	tdee := bmr * ActivityMultiplier(p.Activity)
	calories := tdee + e.adjustment(p.Goal)

	protein := proteinGPerKg * p.WeightKg
	fat := fatCalorieShare * calories / kcalPerGramFat
	carbs := (calories - protein*kcalPerGramProtein - fat*kcalPerGramFat) / kcalPerGramCarbs
	if carbs < 0 {
		carbs = 0
	}

	return Plan{
		BMR:      round(bmr),
		TDEE:     round(tdee),
		Calories: round(calories),
		ProteinG: round(protein),
		CarbsG:   round(carbs),
		FatG:     round(fat),
		WaterL:   waterLitersPerKg * p.WeightKg,
		FiberG:   FiberG,
	}
}

func (e Estimator) adjustment(goal Goal) float64 {
	if e.Policy != ByGoal {
		return -DeficitKcal
	}
	g, err := ParseGoal(string(goal))
	if err != nil {
		return -DeficitKcal
	}
	switch g {
	case Maintain:
		return 0
	case Gain:
		return SurplusKcal
	default:
		return -DeficitKcal
	}
}

// BMR uses the revised Harris-Benedict equation. Anything other than Male
// takes the female coefficients.
func BMR(sex Sex, weightKg, heightCm float64, ageYears int) float64 {
	age := float64(ageYears)
	if s, err := ParseSex(string(sex)); err == nil && s == Male {
		return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*age
	}
	return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*age
}

// round is half-up, so -2.5 becomes -2.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
