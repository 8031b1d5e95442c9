package vendors

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercato-labs/mercato-backend/pkg/db/models"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	"github.com/mercato-labs/mercato-backend/pkg/money"
)

// VendorDTO exposes vendor account data in API responses.
type VendorDTO struct {
	ID               uuid.UUID            `json:"id"`
	OwnerUserID      string               `json:"owner_user_id"`
	DisplayName      string               `json:"display_name"`
	Description      *string              `json:"description,omitempty"`
	ContactEmail     *string              `json:"contact_email,omitempty"`
	PayoutAccountRef *string              `json:"payout_account_ref,omitempty"`
	CommissionRate   *decimal.Decimal     `json:"commission_rate,omitempty"`
	OnboardingStep   enums.OnboardingStep `json:"onboarding_step"`
	Status           enums.VendorStatus   `json:"status"`
	ActivatedAt      *time.Time           `json:"activated_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// CreateVendorDTO holds creation-time data for a new vendor.
type CreateVendorDTO struct {
	OwnerUserID  string
	DisplayName  string
	ContactEmail *string
}

// ToModel builds a vendor at the first onboarding step.
func (dto CreateVendorDTO) ToModel() *models.Vendor {
	return &models.Vendor{
		ID:             uuid.New(),
		OwnerUserID:    dto.OwnerUserID,
		DisplayName:    strings.TrimSpace(dto.DisplayName),
		ContactEmail:   dto.ContactEmail,
		OnboardingStep: enums.OnboardingStepProfile,
		Status:         enums.VendorStatusOnboarding,
	}
}

// FromModel maps a vendor row to its API shape.
func FromModel(v *models.Vendor) VendorDTO {
	// rates are validated on write
	rate, _ := money.ParseRate(v.CommissionRate)
	return VendorDTO{
		ID:               v.ID,
		OwnerUserID:      v.OwnerUserID,
		DisplayName:      v.DisplayName,
		Description:      v.Description,
		ContactEmail:     v.ContactEmail,
		PayoutAccountRef: v.PayoutAccountRef,
		CommissionRate:   rate,
		OnboardingStep:   v.OnboardingStep,
		Status:           v.Status,
		ActivatedAt:      v.ActivatedAt,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

// StepInput carries the fields collected by one onboarding step. Each step
// reads only its own fields.
type StepInput struct {
	DisplayName      *string `json:"display_name,omitempty"`
	Description      *string `json:"description,omitempty"`
	ContactEmail     *string `json:"contact_email,omitempty"`
	PayoutAccountRef *string `json:"payout_account_ref,omitempty"`
	Confirm          bool    `json:"confirm,omitempty"`
}
