package nutrition

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownSex        = errors.New("unknown sex")
	ErrUnknownGoal       = errors.New("unknown goal")
	ErrUnknownPolicy     = errors.New("unknown goal policy")
	ErrUnknownActivity   = errors.New("unknown activity level")
	ErrProfileIncomplete = errors.New("profile is incomplete")
)

type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

type ActivityLevel string

const (
	Sedentary ActivityLevel = "sedentary"
	Light     ActivityLevel = "light"
	Moderate  ActivityLevel = "moderate"
	Intense   ActivityLevel = "intense"
)

type Goal string

const (
	Lose     Goal = "lose"
	Maintain Goal = "maintain"
	Gain     Goal = "gain"
)

// The questionnaire is served in pt-BR, so answers may arrive in either form.
var (
	sexAliases = map[string]Sex{
		"male":      Male,
		"masculino": Male,
		"female":    Female,
		"feminino":  Female,
	}
	activityAliases = map[string]ActivityLevel{
		"sedentary":  Sedentary,
		"sedentario": Sedentary,
		"light":      Light,
		"leve":       Light,
		"moderate":   Moderate,
		"moderado":   Moderate,
		"intense":    Intense,
		"intenso":    Intense,
	}
	goalAliases = map[string]Goal{
		"lose":     Lose,
		"perder":   Lose,
		"maintain": Maintain,
		"manter":   Maintain,
		"gain":     Gain,
		"ganhar":   Gain,
	}
)

func ParseSex(s string) (Sex, error) {
	if v, ok := sexAliases[normalize(s)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSex, s)
}

func ParseActivityLevel(s string) (ActivityLevel, error) {
	if v, ok := activityAliases[normalize(s)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownActivity, s)
}

func ParseGoal(s string) (Goal, error) {
	if v, ok := goalAliases[normalize(s)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGoal, s)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Profile is the input of the estimator. It is a plain value and is never
// modified by Estimate.
type Profile struct {
	Sex      Sex
	AgeYears int
	WeightKg float64
	HeightCm float64
	Activity ActivityLevel
	Goal     Goal
}

// Validate reports profiles the formulas cannot be applied to.
func (p Profile) Validate() error {
	if p.AgeYears <= 0 || p.WeightKg <= 0 || p.HeightCm <= 0 {
		return fmt.Errorf("%w: age, weight and height must be positive", ErrProfileIncomplete)
	}
	return nil
}

// Plan is the daily target derived from a Profile.
type Plan struct {
	BMR      int
	TDEE     int
	Calories int
	ProteinG int
	CarbsG   int
	FatG     int
	WaterL   float64
	FiberG   int
}

// WaterLiters renders the water target with exactly one decimal digit.
func (p Plan) WaterLiters() string {
	return fmt.Sprintf("%.1f", p.WaterL)
}
