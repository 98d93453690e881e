package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/go-playground/validator/v10"
)

// CustomerForm is what the payer fills in before paying.
type CustomerForm struct {
	FullName string `json:"full_name" validate:"min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone_number" validate:"min=10"`
	Location string `json:"location" validate:"min=5"`
}

var fieldMessages = map[string]string{
	"full_name":    "Full name must be at least 2 characters",
	"email":        "Please enter a valid email address",
	"phone_number": "Please enter a valid phone number",
	"location":     "Please provide your delivery location",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate returns a *ValidationError naming every failing field, or nil.
func (f CustomerForm) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}

	fields := make(map[string]string, len(vErrs))
	for _, vErr := range vErrs {
		fields[vErr.Field()] = fieldMessages[vErr.Field()]
	}
	return &ValidationError{Fields: fields}
}

func (f CustomerForm) Customer() domain.CustomerRecord {
	return domain.CustomerRecord{
		FullName: f.FullName,
		Email:    f.Email,
		Phone:    f.Phone,
		Location: f.Location,
	}
}

func (f CustomerForm) customFields() []payment.CustomField {
	return []payment.CustomField{
		{DisplayName: "Full Name", VariableName: "full_name", Value: f.FullName},
		{DisplayName: "Phone Number", VariableName: "phone_number", Value: f.Phone},
		{DisplayName: "Location", VariableName: "location", Value: f.Location},
	}
}
