package signal

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/subtaste/internal/apperr"
)

// Event is a stored signal with bookkeeping.
type Event struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Signal      Signal     `json:"signal"`
	Processed   bool       `json:"processed"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

// NewEvent wraps s for userID and marks it processed at now.
func NewEvent(userID string, s Signal, now time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		UserID:      userID,
		Signal:      s,
		Processed:   true,
		ProcessedAt: &now,
	}
}

// Signals unwraps the signals carried by events.
func Signals(events []Event) []Signal {
	out := make([]Signal, len(events))
	for i, e := range events {
		out[i] = e.Signal
	}
	return out
}

// Batch is a bulk submission for one user.
type Batch struct {
	UserID  string   `json:"userId"`
	Source  Source   `json:"source"`
	BatchID string   `json:"batchId"`
	Signals []Signal `json:"signals"`
}

// Validate checks the batch envelope and every signal in it.
func (b Batch) Validate() error {
	if err := validation.ValidateStruct(&b,
		validation.Field(&b.UserID, validation.Required, validation.Length(1, 256)),
		validation.Field(&b.Source, validation.In(sourceValues()...)),
		validation.Field(&b.Signals, validation.Required, validation.Skip),
	); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return ValidateAll(b.Signals)
}
