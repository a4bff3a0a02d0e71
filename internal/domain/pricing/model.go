package pricing

import (
	"errors"
	"fmt"
	"github.com/samber/lo"
	"math"
	"net/url"
	"slices"
	"strings"
)

var (
	ErrUnknownPlan = errors.New("unknown plan")
)

const DefaultContactEmail = "pana74269@gmail.com"

type PlanID string

const (
	Monthly PlanID = "monthly"
	Annual  PlanID = "annual"
)

// Money is an amount in BRL cents.
type Money int64

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", int64(m)/100, int64(m)%100)
}

// BRL renders the amount the way the pricing screen shows it, e.g. "R$ 12,90".
func (m Money) BRL() string {
	return "R$ " + strings.Replace(m.String(), ".", ",", 1)
}

type Plan struct {
	ID          PlanID
	Name        string
	Tagline     string
	Description string
	Price       Money
	ListPrice   Money
	Billing     string
	Features    []string
	Highlighted bool
}

// Savings is the discount against the list price and its share, rounded to a
// whole percent. Plans without a list price have no savings.
func (p Plan) Savings() (Money, int) {
	if p.ListPrice <= p.Price {
		return 0, 0
	}
	saved := p.ListPrice - p.Price
	percent := int(math.Round(float64(saved) * 100 / float64(p.ListPrice)))
	return saved, percent
}

var commonFeatures = []string{
	"Plano alimentar personalizado",
	"Receitas saudáveis ilimitadas",
	"Acompanhamento diário",
	"Calculadora de macros",
}

func features(extra ...string) []string {
	return append(slices.Clone(commonFeatures), extra...)
}

type Catalog struct {
	Plans        []Plan
	ContactEmail string
}

func DefaultCatalog(contactEmail string) Catalog {
	if contactEmail == "" {
		contactEmail = DefaultContactEmail
	}
	return Catalog{
		ContactEmail: contactEmail,
		Plans: []Plan{
			{
				ID:          Monthly,
				Name:        "Plano Mensal",
				Tagline:     "Flexibilidade total",
				Description: "Acesso completo ao app de emagrecimento",
				Price:       1290,
				Billing:     "por mês",
				Features:    features("Garantia de 7 dias"),
			},
			{
				ID:          Annual,
				Name:        "Plano Anual",
				Tagline:     "Melhor custo-benefício",
				Description: "Acesso vitalício ao app de emagrecimento",
				Price:       2500,
				ListPrice:   15480,
				Billing:     "pagamento único",
				Features:    features("Acesso vitalício", "Garantia de 7 dias"),
				Highlighted: true,
			},
		},
	}
}

func (c Catalog) Plan(id PlanID) (Plan, error) {
	p, ok := lo.Find(c.Plans, func(p Plan) bool { return p.ID == id })
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return p, nil
}

// PixPayment is display data only: the contact email doubles as the PIX key and
// no payment is ever verified.
type PixPayment struct {
	Key         string
	Amount      Money
	Description string
}

func (c Catalog) Pix(id PlanID) (PixPayment, error) {
	p, err := c.Plan(id)
	if err != nil {
		return PixPayment{}, err
	}
	return PixPayment{
		Key:         c.ContactEmail,
		Amount:      p.Price,
		Description: p.Description,
	}, nil
}

type Instructions struct {
	Plan          Plan
	Pix           PixPayment
	ContactEmail  string
	CustomerEmail string
	Steps         []string
	ReceiptMailto string
}

func (c Catalog) Instructions(id PlanID, customerEmail string) (Instructions, error) {
	p, err := c.Plan(id)
	if err != nil {
		return Instructions{}, err
	}
	pix, err := c.Pix(id)
	if err != nil {
		return Instructions{}, err
	}

	return Instructions{
		Plan:          p,
		Pix:           pix,
		ContactEmail:  c.ContactEmail,
		CustomerEmail: customerEmail,
		Steps: []string{
			"Envie o comprovante para: " + c.ContactEmail,
			"Inclua seu email cadastrado: " + customerEmail,
			"Você receberá acesso em até 24 horas",
		},
		ReceiptMailto: ReceiptMailto(c.ContactEmail, p, customerEmail),
	}, nil
}

// ReceiptMailto builds the link that opens a receipt email addressed to the
// contact. Spaces are encoded as %20 since mail clients do not decode '+'.
func ReceiptMailto(contactEmail string, p Plan, customerEmail string) string {
	subject := "Comprovante de Pagamento - " + p.Name
	body := strings.Join([]string{
		"Olá! Segue meu comprovante de pagamento.",
		"",
		"Email cadastrado: " + customerEmail,
		"Plano: " + p.Name,
		"Valor: R$ " + p.Price.String(),
	}, "\n")

	return "mailto:" + contactEmail +
		"?subject=" + mailtoEscape(subject) +
		"&body=" + mailtoEscape(body)
}

func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
