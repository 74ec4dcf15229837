package types

import "time"

// Requester is the platform user undergoing verification. It is supplied by
// the platform adapter and never mutated.
type Requester struct {
	ID        string
	Username  string
	Mention   string
	AvatarURL string
	CreatedAt time.Time
}

// Handle is the display form used in review artifacts and log lines.
func (r Requester) Handle() string {
	if r.Username == "" {
		return r.ID
	}
	return r.Username
}
