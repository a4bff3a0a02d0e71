package api

import (
	"github.com/burenotti/go_health_funnel/internal/adapter/metrics"
	"github.com/burenotti/go_health_funnel/internal/domain/nutrition"
	"github.com/labstack/echo/v4"
	"net/http"
)

func (s *Server) MountEstimate() {
	s.handler.POST("/estimate", s.Estimate)
}

type estimateReq struct {
	Sex           string  `json:"sex" validate:"required"`
	Age           int     `json:"age" validate:"required,gt=0"`
	WeightKg      float64 `json:"weight_kg" validate:"required,gt=0"`
	HeightCm      float64 `json:"height_cm" validate:"required,gt=0"`
	ActivityLevel string  `json:"activity_level" validate:"required"`
	Goal          string  `json:"goal"`
}

type planView struct {
	BMR      int    `json:"bmr"`
	TDEE     int    `json:"tdee"`
	Calories int    `json:"calories"`
	ProteinG int    `json:"protein_g"`
	CarbsG   int    `json:"carbs_g"`
	FatG     int    `json:"fat_g"`
	WaterL   string `json:"water_l"`
	FiberG   int    `json:"fiber_g"`
}

func toPlanView(p nutrition.Plan) planView {
	return planView{
		BMR:      p.BMR,
		TDEE:     p.TDEE,
		Calories: p.Calories,
		ProteinG: p.ProteinG,
		CarbsG:   p.CarbsG,
		FatG:     p.FatG,
		WaterL:   p.WaterLiters(),
		FiberG:   p.FiberG,
	}
}

func (s *Server) Estimate(c echo.Context) error {
	var req estimateReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	profile, err := req.profile()
	if err != nil {
		return s.domainError(c, err)
	}

	metrics.IncEstimates()
	return c.JSON(http.StatusOK, toPlanView(s.funnelService.Estimate(profile)))
}

func (r estimateReq) profile() (nutrition.Profile, error) {
	sex, err := nutrition.ParseSex(r.Sex)
	if err != nil {
		return nutrition.Profile{}, err
	}
	activity, err := nutrition.ParseActivityLevel(r.ActivityLevel)
	if err != nil {
		return nutrition.Profile{}, err
	}
	goal := nutrition.Lose
	if r.Goal != "" {
		if goal, err = nutrition.ParseGoal(r.Goal); err != nil {
			return nutrition.Profile{}, err
		}
	}

	p := nutrition.Profile{
		Sex:      sex,
		AgeYears: r.Age,
		WeightKg: r.WeightKg,
		HeightCm: r.HeightCm,
		Activity: activity,
		Goal:     goal,
	}
	return p, p.Validate()
}
