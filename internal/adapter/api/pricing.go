package api

import (
	"github.com/burenotti/go_health_funnel/internal/domain/pricing"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"net/http"
)

func (s *Server) MountPricing() {
	s.handler.GET("/pricing", s.GetPricing)
}

type catalogPlanView struct {
	ID             pricing.PlanID `json:"id"`
	Name           string         `json:"name"`
	Tagline        string         `json:"tagline"`
	Description    string         `json:"description"`
	Price          string         `json:"price"`
	PriceCents     int64          `json:"price_cents"`
	ListPrice      string         `json:"list_price,omitempty"`
	Billing        string         `json:"billing"`
	Features       []string       `json:"features"`
	Highlighted    bool           `json:"highlighted"`
	SavingsPercent int            `json:"savings_percent,omitempty"`
}

func toCatalogPlanView(p pricing.Plan) catalogPlanView {
	v := catalogPlanView{
		ID:          p.ID,
		Name:        p.Name,
		Tagline:     p.Tagline,
		Description: p.Description,
		Price:       p.Price.BRL(),
		PriceCents:  int64(p.Price),
		Billing:     p.Billing,
		Features:    p.Features,
		Highlighted: p.Highlighted,
	}
	if p.ListPrice > 0 {
		v.ListPrice = p.ListPrice.BRL()
	}
	_, v.SavingsPercent = p.Savings()
	return v
}

type catalogView struct {
	Plans        []catalogPlanView `json:"plans"`
	ContactEmail string            `json:"contact_email"`
}

func (s *Server) GetPricing(c echo.Context) error {
	catalog := s.funnelService.Catalog()
	return c.JSON(http.StatusOK, catalogView{
		Plans: lo.Map(catalog.Plans, func(p pricing.Plan, _ int) catalogPlanView {
			return toCatalogPlanView(p)
		}),
		ContactEmail: catalog.ContactEmail,
	})
}
