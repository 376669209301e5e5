// Package messaging defines standard subject names for the SeatWise message bus.
package messaging

// Subject constants for the SeatWise message bus.
// Follow the pattern: {domain}.{action}[.{key}]
const (
	// SubjectRegistrationsSubmit is the prefix for registration attempts.
	// The event ID is appended as the final token so that all attempts for one
	// event share a subject: registrations.submit.{eventID}. The subject token
	// is the partition key for ordered, single-handler processing.
	SubjectRegistrationsSubmit = "registrations.submit"

	// SubjectRegistrationsDecided carries admission decisions. Decisions have
	// no ordering requirement, so they share one flat subject.
	SubjectRegistrationsDecided = "registrations.decided"

	// Dead-letter subject prefixes; the failure reason is appended.
	SubjectRegistrationsDLQ = "registrations.dlq"
	SubjectNotificationsDLQ = "notifications.dlq"
)

// Durable consumer names.
const (
	ConsumerAdmission = "admission-processor"
	ConsumerNotifier  = "decision-notifier"
)

// RegistrationSubmitSubject returns the partitioned subject for an event's
// registration attempts. Example: registrations.submit.7f3c9a
func RegistrationSubmitSubject(eventID string) string {
	return SubjectRegistrationsSubmit + "." + eventID
}
