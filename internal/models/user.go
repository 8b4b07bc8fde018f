package models

// UserProfile is the account shown to the frontend after connecting.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// DefaultProfile is returned for sessions created without profile data.
func DefaultProfile(userID string) UserProfile {
	return UserProfile{ID: userID, Name: "Test User"}
}
