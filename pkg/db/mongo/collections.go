package mongo

const (
	CollectionOffices  = "Offices"
	CollectionBookings = "Bookings"
	CollectionUsers    = "Users"
	CollectionSessions = "Sessions"
	CollectionActivity = "Booking_activity"
)

// Index names that error translation depends on.
const (
	IndexUserDate = "user_date_unique"
	IndexUsername = "username_unique"
	IndexEmail    = "email_unique"
)

// FieldLockRev is bumped by writes that need a referenced document to stay
// alive until their transaction commits.
const FieldLockRev = "lock_rev"
