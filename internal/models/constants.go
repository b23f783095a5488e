package models

const (
	// DateLayout is the wire format of booking dates.
	DateLayout = "2006-01-02"

	// DefaultGridStartHour is the first bookable hour of a day.
	DefaultGridStartHour = 8
	// DefaultGridEndHour is the last bookable hour of a day (inclusive).
	DefaultGridEndHour = 18
	// DefaultGridStepMinutes is the distance between two slots.
	DefaultGridStepMinutes = 60

	// DefaultAPITimeoutSeconds bounds one outbound request.
	DefaultAPITimeoutSeconds = 10

	// DefaultSessionTTLHours is how long a Redis-backed session lives.
	DefaultSessionTTLHours = 24
)

// Session storage backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// Action labels shown in the table.
const (
	ActionBook   = "Book"
	ActionBooked = "Booked"
	ActionCancel = "Cancel"
)

// Messages shown to the user when the backend gives no better one.
const (
	MsgNotLoggedIn     = "You must be logged in to view this page."
	MsgNothingToCancel = "No booking found to cancel."
	MsgFetchFailed     = "Failed to fetch slots"
	MsgBookFailed      = "Failed to book"
	MsgCancelFailed    = "Failed to cancel"
	MsgLoginFailed     = "Invalid credentials"
	MsgSignupFailed    = "Signup failed"
	MsgUnexpected      = "Something went wrong while booking."
)
