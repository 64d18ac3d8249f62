package booking

import "time"

// minPaymentWindow is the shortest payment window a renter is ever given.
const minPaymentWindow = time.Hour

// PaymentDeadline returns the instant an approved booking must be paid by:
// midnight UTC after the approval day, pushed out a full day when approval
// lands within the last hour of the day.
func PaymentDeadline(approvedAt time.Time) time.Time {
	due := NormalizeDate(approvedAt.UTC()).Add(24 * time.Hour)
	if due.Sub(approvedAt.UTC()) < minPaymentWindow {
		due = due.Add(24 * time.Hour)
	}
	return due
}
