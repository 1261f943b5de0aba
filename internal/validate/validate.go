package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/domain"
)

const MinPasswordLength = 6

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func Email(email string) bool {
	return emailRegex.MatchString(email)
}

// Password returns a validation error when pw is too short to submit.
func Password(pw string) error {
	if len(pw) < MinPasswordLength {
		return apperr.Validationf("Password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}

type Strength struct {
	Score int
	Label string
}

var strengthLabels = [...]string{"Very weak", "Weak", "Fair", "Good", "Strong"}

// PasswordStrength scores pw from 0 to 4. Anything under the minimum length
// scores 0 regardless of its character mix.
func PasswordStrength(pw string) Strength {
	if len(pw) < MinPasswordLength {
		return Strength{Score: 0, Label: strengthLabels[0]}
	}
	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	score := 0
	if len(pw) >= 8 {
		score++
	}
	if len(pw) >= 12 {
		score++
	}
	if lower && upper {
		score++
	}
	if digit {
		score++
	}
	if symbol {
		score++
	}
	if score > 4 {
		score = 4
	}
	return Strength{Score: score, Label: strengthLabels[score]}
}

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(domain.Date); ok && !d.IsZero() {
			return d.String()
		}
		return ""
	}, domain.Date{})
	return v
}

// Struct checks the `validate` tags of v and reports every missing required
// field in a single validation error.
func Struct(v any) error {
	err := structValidator.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation("Some of the details you entered are invalid.")
	}
	missing := make([]string, 0, len(fieldErrs))
	var invalid []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fe.Field())
	}
	if len(missing) > 0 {
		return MissingFields(missing...)
	}
	return apperr.Validationf("Invalid fields: %s.", strings.Join(invalid, ", "))
}

func MissingFields(fields ...string) error {
	if len(fields) == 1 {
		return apperr.Validationf("Missing required field: %s.", fields[0])
	}
	return apperr.Validationf("Missing required fields: %s.", strings.Join(fields, ", "))
}

// Decode reads a stored document into v and checks v's required fields, so
// a record missing data fails loudly instead of yielding zero values.
func Decode(doc docstore.Document, v any) error {
	if err := doc.Decode(v); err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Msg: "Stored record is malformed.", Err: err}
	}
	return Struct(v)
}
