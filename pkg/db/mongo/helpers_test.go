package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	dupUserDateMsg = `E11000 duplicate key error collection: deskbook.Bookings index: user_date_unique dup key: { user_id: "7c9e6679-7425-40de-944b-e07fc1f90ae7", date: "2024-05-01" }`
	dupIDMsg       = `E11000 duplicate key error collection: deskbook.Bookings index: _id_ dup key: { _id: "1b4e28ba-2fa1-11d2-883f-0016d3cca427" }`
)

func writeException(code int, msg string) mongo.WriteException {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Index: 0, Code: code, Message: msg}},
	}
}

func commandError(code int32, msg string) mongo.CommandError {
	return mongo.CommandError{Code: code, Name: "DuplicateKey", Message: msg}
}

func TestIsDuplicateKeyOn(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		index string
		want  bool
	}{
		{"insert on user_date", writeException(11000, dupUserDateMsg), IndexUserDate, true},
		{"insert on user_date inside a transaction", fmt.Errorf("transaction failed: %w", writeException(11000, dupUserDateMsg)), IndexUserDate, true},
		{"find and modify on user_date", commandError(11000, dupUserDateMsg), IndexUserDate, true},
		{"find and modify inside a transaction", fmt.Errorf("transaction failed: %w", commandError(11000, dupUserDateMsg)), IndexUserDate, true},
		{"_id collision is not user_date", writeException(11000, dupIDMsg), IndexUserDate, false},
		{"_id collision", writeException(11000, dupIDMsg), "_id_", true},
		{"user_date is not _id", writeException(11000, dupUserDateMsg), "_id_", false},
		{"user_date command error is not _id", commandError(11000, dupUserDateMsg), "_id_", false},
		{"any index", commandError(11000, dupIDMsg), "", true},
		{"other server error", commandError(112, "WriteConflict"), IndexUserDate, false},
		{"other write error code", writeException(121, "Document failed validation"), "", false},
		{"plain error", errors.New("index: user_date_unique"), IndexUserDate, false},
		{"nil", nil, IndexUserDate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateKeyOn(tt.err, tt.index); got != tt.want {
				t.Errorf("IsDuplicateKeyOn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMentionsIndex(t *testing.T) {
	tests := []struct {
		msg   string
		index string
		want  bool
	}{
		{dupUserDateMsg, IndexUserDate, true},
		{dupIDMsg, "_id_", true},
		{`E11000 duplicate key error collection: deskbook.Bookings index: user_id_1 dup key: { user_id: "u" }`, "_id_", false},
		{"index: username_unique", IndexUsername, true},
		{"index: username_unique_v2 dup key", IndexUsername, false},
	}

	for _, tt := range tests {
		if got := mentionsIndex(tt.msg, tt.index); got != tt.want {
			t.Errorf("mentionsIndex(%q, %q) = %v, want %v", tt.msg, tt.index, got, tt.want)
		}
	}
}

func TestWithTimeout(t *testing.T) {
	t.Run("applies timeout", func(t *testing.T) {
		ctx, cancel := WithTimeout(context.Background(), time.Minute)
		defer cancel()

		deadline, ok := ctx.Deadline()
		if !ok || time.Until(deadline) > time.Minute {
			t.Errorf("deadline = %v, ok = %v", deadline, ok)
		}
	})

	t.Run("keeps an earlier parent deadline", func(t *testing.T) {
		parent, cancelParent := context.WithTimeout(context.Background(), time.Second)
		defer cancelParent()

		ctx, cancel := WithTimeout(parent, time.Hour)
		defer cancel()

		deadline, _ := ctx.Deadline()
		if time.Until(deadline) > time.Second {
			t.Errorf("deadline extended past the parent's: %v", deadline)
		}
	})
}
