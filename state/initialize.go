package state

import (
	"time"

	"github.com/google/uuid"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	id, err := uuid.NewV7()
	if err != nil {
		// time based id is preferable but not essential
		id = uuid.New()
	}
	return &LocalEnv{
		start:     time.Now(),
		SessionID: id.String(),
	}
}
