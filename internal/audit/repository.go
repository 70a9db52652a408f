package audit

import "context"

// Recorder is the append-only audit trail contract. Record must be invoked
// inside the same transaction boundary as the state change it describes so
// the trail and entity state cannot diverge. There is no update or delete.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) (*Entry, error)
	List(ctx context.Context, filter Filter) ([]*Entry, error)
}
