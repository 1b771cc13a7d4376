package audit

import "context"

// Store persists audit events. Implementations must honor a transaction carried in
// ctx so lifecycle events commit or roll back with the change they describe.
type Store interface {
	Append(ctx context.Context, event Event) error
}
