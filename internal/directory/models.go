package directory

import "time"

// Person is one enrolled member of the program, keyed by the stable
// biometric identifier their scanner reports.
type Person struct {
	FingerprintID string
	FirstName     string
	LastName      string
	Email         string
	Cohort        string
	CreatedAt     time.Time
}

// DisplayName is the denormalized name stamped onto attendance events.
func (p Person) DisplayName() string {
	return p.FirstName + " " + p.LastName
}
