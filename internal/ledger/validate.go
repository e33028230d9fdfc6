package ledger

import (
	"errors"  // Unwrapping validator output
	"reflect" // Field name lookup
	"strings" // Tag parsing and trimming
	"time"    // Date bounds

	"expense_ledger/internal/domain" // Models and error taxonomy

	"github.com/go-playground/validator/v10" // Struct tag validation
	"github.com/shopspring/decimal"          // Exact decimal money
)

// TransactionInput carries the caller-controlled fields of a transaction
type TransactionInput struct {
	Type          domain.TransactionType `json:"type" validate:"required,oneof=expense income"`
	Amount        decimal.Decimal        `json:"amount"`
	Date          time.Time              `json:"date"`
	Subject       string                 `json:"subject" validate:"required,max=255"`
	PaymentMethod domain.PaymentMethod   `json:"payment_method" validate:"required,oneof=cash card bank_transfer other"`
	Notes         *string                `json:"notes" validate:"omitempty,max=2000"`
	CategoryID    *uint                  `json:"category_id" validate:"omitempty,gt=0"`
	GroupID       *uint                  `json:"group_id" validate:"omitempty,gt=0"`
}

// Rules are the business limits applied on top of the struct tags
type Rules struct {
	MinDate                time.Time        // Earliest accepted transaction date
	MaxFutureDays          int              // How far past today a date may be
	RequireExpenseCategory bool             // Expenses must reference a category
	Now                    func() time.Time // Clock, time.Now when nil
}

// MaxAmount is the first magnitude a decimal(20,4) column cannot hold
var MaxAmount = decimal.New(1, 16)

// checkMoney rejects values the store's decimal(20,4) columns would refuse
func checkMoney(field string, v decimal.Decimal) *domain.ValidationError {
	if v.Abs().GreaterThanOrEqual(MaxAmount) {
		return &domain.ValidationError{Field: field, Message: "must be less than " + MaxAmount.String() + " in magnitude"}
	}
	if !v.Equal(v.Truncate(4)) {
		return &domain.ValidationError{Field: field, Message: "must have at most 4 decimal places"}
	}
	return nil
}

// ValidateBalance checks an opening balance, which may be zero or negative
func ValidateBalance(v decimal.Decimal) error {
	if fe := checkMoney("initial_balance", v); fe != nil {
		return domain.ValidationErrors{*fe}
	}
	return nil
}

// DefaultRules accepts dates from 1900-01-01 up to a year ahead
func DefaultRules() Rules {
	return Rules{
		MinDate:       time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxFutureDays: 365,
	}
}

// Validator checks a TransactionInput before anything is written
type Validator struct {
	rules    Rules               // Business limits
	validate *validator.Validate // Tag engine
}

// NewValidator creates a validator for the given rules
func NewValidator(rules Rules) *Validator {
	if rules.Now == nil {
		rules.Now = time.Now
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so API clients see the field they sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Validator{rules: rules, validate: v}
}

// Validate returns domain.ValidationErrors listing every problem, or nil
func (v *Validator) Validate(in *TransactionInput) error {
	var errs domain.ValidationErrors
	if err := v.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, domain.ValidationError{Field: fe.Field(), Message: tagMessage(fe)})
		}
	}
	if strings.TrimSpace(in.Subject) == "" && !hasField(errs, "subject") {
		errs = append(errs, domain.ValidationError{Field: "subject", Message: "must not be blank"})
	}
	if !in.Amount.IsPositive() {
		errs = append(errs, domain.ValidationError{Field: "amount", Message: "must be greater than zero"})
	} else if fe := checkMoney("amount", in.Amount); fe != nil {
		errs = append(errs, *fe)
	}
	errs = append(errs, v.checkDate(in.Date)...)
	if v.rules.RequireExpenseCategory && in.Type == domain.TypeExpense && in.CategoryID == nil {
		errs = append(errs, domain.ValidationError{Field: "category_id", Message: "is required for expenses"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// checkDate enforces the accepted date window
func (v *Validator) checkDate(d time.Time) domain.ValidationErrors {
	if d.IsZero() {
		return domain.ValidationErrors{{Field: "date", Message: "is required"}}
	}
	date := domain.NormalizeDate(d)
	if date.Before(domain.NormalizeDate(v.rules.MinDate)) {
		return domain.ValidationErrors{{Field: "date", Message: "must not be before " + v.rules.MinDate.Format(time.DateOnly)}}
	}
	latest := domain.NormalizeDate(v.rules.Now()).AddDate(0, 0, v.rules.MaxFutureDays) // Last accepted day
	if date.After(latest) {
		return domain.ValidationErrors{{Field: "date", Message: "must not be after " + latest.Format(time.DateOnly)}}
	}
	return nil
}

// tagMessage turns a failed validator tag into a short message
func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func hasField(errs domain.ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}
