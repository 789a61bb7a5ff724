package models

// CheckGoogleUserStatusRequest is the payload of the checkGoogleUserStatus callable.
type CheckGoogleUserStatusRequest struct {
	Email string `json:"email"`
}

// GoogleUserStatus reports whether an email has an identity and a profile.
type GoogleUserStatus struct {
	Existing bool `json:"existing"`
	HasAuth  bool `json:"hasAuth"`
}

// CheckUsernameAvailabilityRequest is the payload of the checkUsernameAvailability callable.
// ExcludeUID is optional; when empty the caller's own UID (if any) is used.
type CheckUsernameAvailabilityRequest struct {
	Username   string `json:"username"`
	ExcludeUID string `json:"excludeUid,omitempty"`
}

// UsernameAvailability is the result of checkUsernameAvailability.
type UsernameAvailability struct {
	Available bool `json:"available"`
}

// CompleteOnboardingRequest is the payload of the completeOnboarding callable.
// DateOfBirth is an ISO date string ("2000-06-15" or a full RFC 3339 timestamp).
type CompleteOnboardingRequest struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"dateOfBirth"`
	Bio         string `json:"bio,omitempty"`
}

// OnboardingResult is returned by a successful completeOnboarding call.
type OnboardingResult struct {
	Success bool `json:"success"`
	Age     int  `json:"age"`
}

// RecordLoginResult is returned by recordLogin.
type RecordLoginResult struct {
	Success bool `json:"success"`
}
