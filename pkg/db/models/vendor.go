package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercato-labs/mercato-backend/pkg/enums"
)

// Vendor is a seller account and its onboarding progress.
type Vendor struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID      string               `gorm:"column:owner_user_id;not null;uniqueIndex:vendors_owner_user_id_key"`
	DisplayName      string               `gorm:"column:display_name;not null"`
	Description      *string              `gorm:"column:description"`
	ContactEmail     *string              `gorm:"column:contact_email"`
	PayoutAccountRef *string              `gorm:"column:payout_account_ref"`
	CommissionRate   *string              `gorm:"column:commission_rate;type:numeric(5,2)"`
	OnboardingStep   enums.OnboardingStep `gorm:"column:onboarding_step;type:text;not null"`
	Status           enums.VendorStatus   `gorm:"column:status;type:text;not null"`
	ActivatedAt      *time.Time           `gorm:"column:activated_at"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
