// Package validation checks configuration values and the documents a
// network is loaded from.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	MaxMRIDLength = 128

	mRIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(yamlName)
	mustRegister("mrid", func(fl validator.FieldLevel) bool {
		return ValidateMRID(fl.Field().String()) == nil
	})
	mustRegister("phasecode", func(fl validator.FieldLevel) bool {
		_, ok := cim.ParsePhaseCode(fl.Field().String())
		return ok
	})
	mustRegister("direction", func(fl validator.FieldLevel) bool {
		_, ok := cim.ParseFeederDirection(fl.Field().String())
		return ok
	})
	mustRegister("equipmentkind", func(fl validator.FieldLevel) bool {
		_, ok := cim.NewEquipment(cim.EquipmentKind(fl.Field().String()), "kind-check")
		return ok
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// yamlName reports fields by their document name.
func yamlName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// Struct validates v against its validate tags. Besides the standard tags,
// mrid, phasecode, direction and equipmentkind check values against the
// network model.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateMRID validates an mRID.
func ValidateMRID(mRID string) error {
	if mRID == "" {
		return errors.New("mRID cannot be empty")
	}
	if len(mRID) > MaxMRIDLength {
		return fmt.Errorf("mRID '%s' exceeds maximum length of %d characters", mRID, MaxMRIDLength)
	}
	if !mRIDPattern.MatchString(mRID) {
		return fmt.Errorf("mRID '%s' contains invalid characters (letters, digits and _ . : - allowed)", mRID)
	}
	return nil
}

// formatValidationError reports the first failure in a user-friendly form.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, e.Param())
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, e.Param())
		case "mrid":
			return fmt.Errorf("%s: %w", field, ValidateMRID(e.Value().(string)))
		case "phasecode":
			return fmt.Errorf("%s: unknown phase code %q", field, e.Value())
		case "direction":
			return fmt.Errorf("%s: unknown feeder direction %q", field, e.Value())
		case "equipmentkind":
			return fmt.Errorf("%s: unknown equipment kind %q", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
