package engine

import (
	"strings"

	"lease-analyzer/core/types"
	apperrors "lease-analyzer/internal/errors"
)

const (
	MinLeaseMonths = 12
	MaxLeaseMonths = 60
)

// Validate checks lease terms and reports every bad field at once.
func Validate(terms types.LeaseTerms) error {
	var v apperrors.ValidationError

	if strings.TrimSpace(terms.CarModel) == "" {
		v.Add("carModel", "Car model is required")
	}
	if len(strings.TrimSpace(terms.State)) < 2 {
		v.Add("state", "State is required")
	}
	if terms.UpfrontPayment.IsNegative() {
		v.Add("upfrontPayment", "Upfront payment must be positive")
	}
	if terms.MonthlyPayment.IsNegative() {
		v.Add("monthlyPayment", "Monthly payment must be positive")
	}
	if terms.LeaseDurationMonths < MinLeaseMonths {
		v.Add("leaseDuration", "Lease duration must be at least 12 months")
	} else if terms.LeaseDurationMonths > MaxLeaseMonths {
		v.Add("leaseDuration", "Lease duration cannot exceed 60 months")
	}
	if terms.BuyoutPrice.IsNegative() {
		v.Add("buyoutPrice", "Buyout price must be positive")
	}

	return v.Err()
}
