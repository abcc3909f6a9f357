package announcer

import "context"

// Sink delivers announcements to one downstream target (HTTP, SQS, SNS, Pub/Sub).
type Sink interface {
	ID() string
	Type() string
	Send(ctx context.Context, a Announcement) error
}
