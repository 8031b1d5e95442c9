package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/mercato-labs/mercato-backend/pkg/db"
	"github.com/mercato-labs/mercato-backend/pkg/db/models"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
	"github.com/mercato-labs/mercato-backend/pkg/outbox"
	"github.com/mercato-labs/mercato-backend/pkg/outbox/payloads"
)

const ownerUniqueConstraint = "vendors_owner_user_id_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes vendor account and onboarding operations.
type Service interface {
	Create(ctx context.Context, ownerUserID string, input CreateVendorInput) (*VendorDTO, error)
	GetByOwner(ctx context.Context, ownerUserID string) (*VendorDTO, error)
	Advance(ctx context.Context, ownerUserID string, step enums.OnboardingStep, input StepInput) (*VendorDTO, error)
}

// CreateVendorInput captures the sign-up form.
type CreateVendorInput struct {
	DisplayName  string
	ContactEmail *string
}

type service struct {
	repo     *Repository
	tx       txRunner
	outbox   outboxPublisher
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds a vendor service with the provided repositories.
func NewService(repo *Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outbox,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, ownerUserID string, input CreateVendorInput) (*VendorDTO, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name is required")
	}
	if input.ContactEmail != nil {
		if err := s.checkEmail(*input.ContactEmail); err != nil {
			return nil, err
		}
	}

	vendor, err := s.repo.Create(ctx, CreateVendorDTO{
		OwnerUserID:  ownerUserID,
		DisplayName:  input.DisplayName,
		ContactEmail: input.ContactEmail,
	})
	if err != nil {
		if db.IsUniqueViolation(err, ownerUniqueConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already owns a vendor account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert vendor")
	}
	dto := FromModel(vendor)
	return &dto, nil
}

func (s *service) GetByOwner(ctx context.Context, ownerUserID string) (*VendorDTO, error) {
	vendor, err := s.findByOwner(ctx, s.repo, ownerUserID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(vendor)
	return &dto, nil
}

// Advance completes the vendor's current onboarding step and moves to the
// next one. Completing review activates the vendor and queues
// vendor_activated in the same transaction.
func (s *service) Advance(ctx context.Context, ownerUserID string, step enums.OnboardingStep, input StepInput) (*VendorDTO, error) {
	if !step.IsValid() || step == enums.OnboardingStepComplete {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid onboarding step %q", step)
	}

	var result *models.Vendor
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vendor, err := s.findByOwner(ctx, repo, ownerUserID)
		if err != nil {
			return err
		}
		if vendor.OnboardingStep != step {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "vendor is at step %s, not %s", vendor.OnboardingStep, step).
				WithDetails(map[string]string{"current_step": vendor.OnboardingStep.String()})
		}
		if err := s.applyStep(vendor, step, input); err != nil {
			return err
		}
		vendor.OnboardingStep = step.Next()

		activated := vendor.OnboardingStep == enums.OnboardingStepComplete
		if activated {
			now := s.now()
			vendor.Status = enums.VendorStatusActive
			vendor.ActivatedAt = &now
		}
		if err := repo.Update(ctx, vendor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update vendor")
		}

		if activated {
			event := outbox.DomainEvent{
				EventType:     enums.EventVendorActivated,
				AggregateType: enums.AggregateVendor,
				AggregateID:   vendor.ID,
				Actor:         &outbox.ActorRef{UserID: vendor.OwnerUserID, Role: enums.RoleVendor.String(), VendorID: &vendor.ID},
				Data: payloads.VendorActivatedEvent{
					VendorID:    vendor.ID,
					OwnerUserID: vendor.OwnerUserID,
					DisplayName: vendor.DisplayName,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit vendor activated")
			}
		}
		result = vendor
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result)
	return &dto, nil
}

func (s *service) applyStep(vendor *models.Vendor, step enums.OnboardingStep, input StepInput) error {
	switch step {
	case enums.OnboardingStepProfile:
		if input.DisplayName != nil {
			name := strings.TrimSpace(*input.DisplayName)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "display_name must not be blank")
			}
			vendor.DisplayName = name
		}
		if input.Description != nil {
			vendor.Description = input.Description
		}
	case enums.OnboardingStepStore:
		email := vendor.ContactEmail
		if input.ContactEmail != nil {
			email = input.ContactEmail
		}
		if email == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "contact_email is required")
		}
		if err := s.checkEmail(*email); err != nil {
			return err
		}
		vendor.ContactEmail = email
	case enums.OnboardingStepPayout:
		if input.PayoutAccountRef == nil || strings.TrimSpace(*input.PayoutAccountRef) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payout_account_ref is required")
		}
		ref := strings.TrimSpace(*input.PayoutAccountRef)
		vendor.PayoutAccountRef = &ref
	case enums.OnboardingStepReview:
		if !input.Confirm {
			return pkgerrors.New(pkgerrors.CodeValidation, "review must be confirmed")
		}
	}
	return nil
}

func (s *service) checkEmail(email string) error {
	if err := s.validate.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "contact_email must be a valid email")
	}
	return nil
}

func (s *service) findByOwner(ctx context.Context, repo *Repository, ownerUserID string) (*models.Vendor, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	vendor, err := repo.FindByOwner(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}
