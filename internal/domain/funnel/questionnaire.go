package funnel

import (
	"errors"
	"fmt"
	"github.com/burenotti/go_health_funnel/internal/domain/nutrition"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidAnswer = errors.New("invalid answer")
	ErrUnknownField  = errors.New("unknown questionnaire field")
)

type FieldKey string

const (
	FieldHasAccount FieldKey = "has_account"
	FieldSex        FieldKey = "sex"
	FieldAge        FieldKey = "age"
	FieldWeight     FieldKey = "weight"
	FieldHeight     FieldKey = "height"
	FieldGoal       FieldKey = "goal"
	FieldActivity   FieldKey = "activity_level"
	FieldEmail      FieldKey = "email"
)

type FieldKind string

const (
	KindChoice FieldKind = "choice"
	KindNumber FieldKind = "number"
	KindEmail  FieldKind = "email"
)

type Option struct {
	Value   string
	Label   string
	Hint    string
	Aliases []string
}

type Field struct {
	Key         FieldKey
	Kind        FieldKind
	Prompt      string
	Placeholder string
	Options     []Option
}

// Questionnaire is the ordered list of prompts. Steps are 1-based.
var Questionnaire = []Field{
	{
		Key:    FieldHasAccount,
		Kind:   KindChoice,
		Prompt: "Você já tem uma conta?",
		Options: []Option{
			{Value: "yes", Label: "Sim, já tenho conta", Aliases: []string{"sim"}},
			{Value: "no", Label: "Não, é minha primeira vez", Aliases: []string{"nao", "não"}},
		},
	},
	{
		Key:    FieldSex,
		Kind:   KindChoice,
		Prompt: "Qual é o seu sexo?",
		Options: []Option{
			{Value: string(nutrition.Male), Label: "Masculino", Aliases: []string{"masculino"}},
			{Value: string(nutrition.Female), Label: "Feminino", Aliases: []string{"feminino"}},
		},
	},
	{Key: FieldAge, Kind: KindNumber, Prompt: "Qual é a sua idade?", Placeholder: "Ex: 28"},
	{Key: FieldWeight, Kind: KindNumber, Prompt: "Qual é o seu peso atual? (kg)", Placeholder: "Ex: 75"},
	{Key: FieldHeight, Kind: KindNumber, Prompt: "Qual é a sua altura? (cm)", Placeholder: "Ex: 170"},
	{
		Key:    FieldGoal,
		Kind:   KindChoice,
		Prompt: "Qual é o seu objetivo?",
		Options: []Option{
			{Value: string(nutrition.Lose), Label: "Perder peso", Aliases: []string{"perder"}},
			{Value: string(nutrition.Maintain), Label: "Manter peso", Aliases: []string{"manter"}},
			{Value: string(nutrition.Gain), Label: "Ganhar massa muscular", Aliases: []string{"ganhar"}},
		},
	},
	{
		Key:    FieldActivity,
		Kind:   KindChoice,
		Prompt: "Qual é o seu nível de atividade física?",
		Options: []Option{
			{Value: string(nutrition.Sedentary), Label: "Sedentário", Hint: "Pouco ou nenhum exercício", Aliases: []string{"sedentario"}},
			{Value: string(nutrition.Light), Label: "Levemente ativo", Hint: "Exercício 1-3 dias/semana", Aliases: []string{"leve"}},
			{Value: string(nutrition.Moderate), Label: "Moderadamente ativo", Hint: "Exercício 3-5 dias/semana", Aliases: []string{"moderado"}},
			{Value: string(nutrition.Intense), Label: "Muito ativo", Hint: "Exercício 6-7 dias/semana", Aliases: []string{"intenso"}},
		},
	},
	{Key: FieldEmail, Kind: KindEmail, Prompt: "Qual é o seu melhor email?", Placeholder: "seu@email.com"},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func TotalSteps() int {
	return len(Questionnaire)
}

func FieldAt(step int) (Field, bool) {
	if step < 1 || step > len(Questionnaire) {
		return Field{}, false
	}
	return Questionnaire[step-1], true
}

func FieldByKey(key FieldKey) (Field, error) {
	f, ok := lo.Find(Questionnaire, func(f Field) bool { return f.Key == key })
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	return f, nil
}

// Normalize validates a raw answer and returns the value stored for it:
// the canonical option value for choices, the trimmed text otherwise.
func (f Field) Normalize(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidAnswer, f.Key)
	}

	switch f.Kind {
	case KindChoice:
		needle := strings.ToLower(value)
		opt, ok := lo.Find(f.Options, func(o Option) bool {
			return o.Value == needle || lo.Contains(o.Aliases, needle)
		})
		if !ok {
			return "", fmt.Errorf("%w: %q is not an option for %s", ErrInvalidAnswer, raw, f.Key)
		}
		return opt.Value, nil
	case KindNumber:
		v, err := parseNumber(value)
		if err != nil || v <= 0 {
			return "", fmt.Errorf("%w: %s must be a positive number", ErrInvalidAnswer, f.Key)
		}
		return value, nil
	case KindEmail:
		if err := validate.Var(value, "email"); err != nil {
			return "", fmt.Errorf("%w: %s must be a valid email", ErrInvalidAnswer, f.Key)
		}
		return value, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownField, f.Key)
	}
}

// parseNumber accepts both "75.5" and the pt-BR "75,5".
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}
