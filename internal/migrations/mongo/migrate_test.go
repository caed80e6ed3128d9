package mongo

import (
	"testing"

	mongotx "deskbook/pkg/db/mongo"
)

func TestCollections(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Collections() {
		if seen[c.Name] {
			t.Errorf("collection %s listed twice", c.Name)
		}
		seen[c.Name] = true
		if c.Validator == nil {
			t.Errorf("collection %s has no validator", c.Name)
		}
	}

	for _, name := range []string{
		mongotx.CollectionOffices,
		mongotx.CollectionBookings,
		mongotx.CollectionUsers,
		mongotx.CollectionSessions,
		mongotx.CollectionActivity,
	} {
		if !seen[name] {
			t.Errorf("collection %s is not migrated", name)
		}
	}
}

func TestBookingsUniqueIndex(t *testing.T) {
	var found bool
	for _, idx := range BookingsIndexes {
		if idx.Options == nil || idx.Options.Name == nil || *idx.Options.Name != mongotx.IndexUserDate {
			continue
		}
		found = true
		if idx.Options.Unique == nil || !*idx.Options.Unique {
			t.Error("user_date_unique must be unique")
		}
	}
	if !found {
		t.Fatal("bookings are missing the user/date unique index")
	}
}

func TestSessionsExpire(t *testing.T) {
	idx := SessionsIndexes[0]
	if idx.Options == nil || idx.Options.ExpireAfterSeconds == nil || *idx.Options.ExpireAfterSeconds != 0 {
		t.Error("sessions must expire at expires_at")
	}
}
