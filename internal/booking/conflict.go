package booking

import "time"

// Candidate is a proposed reservation checked against existing bookings.
// ExcludeID carries the candidate's own id during updates so a booking never
// conflicts with itself.
type Candidate struct {
	ExcludeID          string
	RoomID             string
	SurgeonID          string
	AnesthesiologistID *string
	Start              time.Time
	DurationMinutes    int
}

func (c Candidate) end() time.Time {
	return c.Start.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

// ResourceIDs returns the resources the candidate would reserve.
func (c Candidate) ResourceIDs() []string {
	ids := []string{c.RoomID, c.SurgeonID}
	if c.AnesthesiologistID != nil && *c.AnesthesiologistID != "" {
		ids = append(ids, *c.AnesthesiologistID)
	}
	return ids
}

// CheckConflict scans existing bookings for one that shares a resource with
// the candidate and overlaps its half-open [start, start+duration) interval.
// Only Scheduled bookings block; cancelled slots are free again and completed
// ones are historical. The first conflict found is returned; nil means the
// candidate is clear. Pure: no I/O, so create and update share it and tests
// feed it literal fixtures.
func CheckConflict(c Candidate, existing []*Booking) *ConflictError {
	for _, resourceID := range c.ResourceIDs() {
		for _, other := range existing {
			if other.Status != StatusScheduled {
				continue
			}
			if c.ExcludeID != "" && other.ID == c.ExcludeID {
				continue
			}
			if !other.References(resourceID) {
				continue
			}
			if c.Start.Before(other.End()) && other.ScheduledStart.Before(c.end()) {
				return &ConflictError{ResourceID: resourceID, BookingID: other.ID}
			}
		}
	}
	return nil
}
