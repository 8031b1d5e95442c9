package enums

import "fmt"

// VendorStatus tracks whether a seller may list products.
type VendorStatus string

const (
	VendorStatusOnboarding VendorStatus = "onboarding"
	VendorStatusActive     VendorStatus = "active"
	VendorStatusSuspended  VendorStatus = "suspended"
)

var validVendorStatuses = []VendorStatus{
	VendorStatusOnboarding,
	VendorStatusActive,
	VendorStatusSuspended,
}

func (s VendorStatus) String() string {
	return string(s)
}

func (s VendorStatus) IsValid() bool {
	for _, candidate := range validVendorStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// OnboardingStep is one page of the seller onboarding wizard. Steps are
// completed strictly in the order of onboardingSteps.
type OnboardingStep string

const (
	OnboardingStepProfile  OnboardingStep = "profile"
	OnboardingStepStore    OnboardingStep = "store"
	OnboardingStepPayout   OnboardingStep = "payout"
	OnboardingStepReview   OnboardingStep = "review"
	OnboardingStepComplete OnboardingStep = "complete"
)

var onboardingSteps = []OnboardingStep{
	OnboardingStepProfile,
	OnboardingStepStore,
	OnboardingStepPayout,
	OnboardingStepReview,
	OnboardingStepComplete,
}

func (s OnboardingStep) String() string {
	return string(s)
}

func (s OnboardingStep) IsValid() bool {
	return s.index() >= 0
}

// Next returns the step that follows s. The final step returns itself.
func (s OnboardingStep) Next() OnboardingStep {
	idx := s.index()
	if idx < 0 || idx == len(onboardingSteps)-1 {
		return s
	}
	return onboardingSteps[idx+1]
}

func (s OnboardingStep) index() int {
	for i, candidate := range onboardingSteps {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ParseOnboardingStep converts raw input into an OnboardingStep.
func ParseOnboardingStep(value string) (OnboardingStep, error) {
	for _, candidate := range onboardingSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid onboarding step %q", value)
}
