package main

import (
	"flag"
	"fmt"
	"github.com/burenotti/go_health_funnel/internal/domain/nutrition"
	"log/slog"
	"os"
)

func main() {
	var (
		sex      = flag.String("sex", "female", "male or female (masculino/feminino)")
		age      = flag.Int("age", 0, "age in years")
		weight   = flag.Float64("weight", 0, "weight in kg")
		height   = flag.Float64("height", 0, "height in cm")
		activity = flag.String("activity", "sedentary", "sedentary, light, moderate or intense")
		goal     = flag.String("goal", "lose", "lose, maintain or gain")
		policy   = flag.String("policy", string(nutrition.FixedDeficit), "fixed_deficit or by_goal")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	plan, err := estimate(*sex, *age, *weight, *height, *activity, *goal, *policy)
	if err != nil {
		logger.Error("cannot estimate plan", "error", err)
		os.Exit(2)
	}

	fmt.Printf("BMR:      %d kcal\n", plan.BMR)
	fmt.Printf("TDEE:     %d kcal\n", plan.TDEE)
	fmt.Printf("Calories: %d kcal\n", plan.Calories)
	fmt.Printf("Protein:  %d g\n", plan.ProteinG)
	fmt.Printf("Carbs:    %d g\n", plan.CarbsG)
	fmt.Printf("Fat:      %d g\n", plan.FatG)
	fmt.Printf("Water:    %s L\n", plan.WaterLiters())
	fmt.Printf("Fiber:    %d g\n", plan.FiberG)
}

func estimate(sex string, age int, weight, height float64, activity, goal, policy string) (nutrition.Plan, error) {
	s, err := nutrition.ParseSex(sex)
	if err != nil {
		return nutrition.Plan{}, err
	}
	a, err := nutrition.ParseActivityLevel(activity)
	if err != nil {
		return nutrition.Plan{}, err
	}
	g, err := nutrition.ParseGoal(goal)
	if err != nil {
		return nutrition.Plan{}, err
	}
	p, err := nutrition.ParseGoalPolicy(policy)
	if err != nil {
		return nutrition.Plan{}, err
	}

	profile := nutrition.Profile{Sex: s, AgeYears: age, WeightKg: weight, HeightCm: height, Activity: a, Goal: g}
	if err := profile.Validate(); err != nil {
		return nutrition.Plan{}, err
	}
	return nutrition.NewEstimator(p).Estimate(profile), nil
}
