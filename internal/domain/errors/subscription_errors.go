package errors

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnavailable marks infrastructure failures: the store or a payment
	// provider could not be reached. Callers should retry later.
	ErrUnavailable = errors.New("service temporarily unavailable")
)

// PlanNotFoundError is returned when a package identifier resolves to no plan
type PlanNotFoundError struct {
	Identifier string
}

func (e *PlanNotFoundError) Error() string {
	return fmt.Sprintf("plan not found: %q", e.Identifier)
}

// NewPlanNotFoundError creates a new PlanNotFoundError
func NewPlanNotFoundError(identifier string) *PlanNotFoundError {
	return &PlanNotFoundError{Identifier: identifier}
}

// PackageAlreadyActiveError is returned when the user already has an active
// subscription to a plan of the requested type.
type PackageAlreadyActiveError struct {
	PlanName string
	Price    decimal.Decimal
	EndDate  time.Time
}

func (e *PackageAlreadyActiveError) Error() string {
	return fmt.Sprintf("%s package is already active until %s", e.PlanName, e.EndDate.Format("2006-01-02"))
}

// NewPackageAlreadyActiveError creates a new PackageAlreadyActiveError
func NewPackageAlreadyActiveError(planName string, price decimal.Decimal, endDate time.Time) *PackageAlreadyActiveError {
	return &PackageAlreadyActiveError{
		PlanName: planName,
		Price:    price,
		EndDate:  endDate,
	}
}
