package models

import "time"

type Session struct {
	UserID        string       `json:"user_id"`
	AccessToken   string       `json:"-"`
	AdvertiserIDs []string     `json:"advertiser_ids,omitempty"`
	User          *UserProfile `json:"user,omitempty"`
	Uploads       []string     `json:"uploads,omitempty"` // music upload refs registered by this user
	CreatedAt     time.Time    `json:"created_at"`
}

// Profile returns the stored profile or a placeholder one.
func (s Session) Profile() UserProfile {
	if s.User != nil {
		return *s.User
	}
	return DefaultProfile(s.UserID)
}

// PrimaryAdvertiserID returns the advertiser ads are created under, "" if none.
func (s Session) PrimaryAdvertiserID() string {
	if len(s.AdvertiserIDs) == 0 {
		return ""
	}
	return s.AdvertiserIDs[0]
}

func (s Session) HasUpload(ref string) bool {
	for _, u := range s.Uploads {
		if u == ref {
			return true
		}
	}
	return false
}
