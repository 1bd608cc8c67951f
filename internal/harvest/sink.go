package harvest

import (
	"context"

	"github.com/willowgs/viciharvest/internal/model"
)

// Sink receives successfully harvested content. What a sink does with a
// record (files, a database, an indexer) is its own business; the
// orchestrator only promises to hand over each record once per fetch.
//
// A Store error is treated as fatal to the run: losing harvested content
// on the way to storage is a local problem that retrying the network
// fetch cannot fix.
type Sink interface {
	Store(ctx context.Context, record model.ContentRecord) error
}

// DiscardSink drops every record. Useful for dry runs that only want
// classification and resolution results.
type DiscardSink struct{}

// Store implements Sink.
func (DiscardSink) Store(context.Context, model.ContentRecord) error {
	return nil
}
