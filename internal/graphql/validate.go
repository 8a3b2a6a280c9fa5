package graphql

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/hongminglow/backoffice/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateUser checks a profile once at the network boundary so the rest of the
// application can trust its shape.
func ValidateUser(u models.User) error {
	if err := validate.Struct(u); err != nil {
		return err
	}
	if u.Company.ID != u.CompanyID {
		return fmt.Errorf("company id %q does not match user company %q", u.Company.ID, u.CompanyID)
	}
	seen := make(map[string]struct{}, len(u.Plan.Modules))
	for _, m := range u.Plan.Modules {
		if _, dup := seen[m.Key]; dup {
			return fmt.Errorf("duplicate module %q in plan", m.Key)
		}
		seen[m.Key] = struct{}{}
	}
	return nil
}
