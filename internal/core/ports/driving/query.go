package driving

import (
	"context"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
)

// QueryService answers natural-language questions strictly from the
// tenant's own ingested content.
type QueryService interface {
	// Query retrieves relevant chunks and returns one complete answer.
	// A tenant with no relevant content gets a fixed honest response;
	// the generation service is not invoked in that case.
	Query(ctx context.Context, question, tenantID string) (string, error)

	// QueryStream is the incremental variant. The returned channel
	// yields zero or more content fragments followed by exactly one
	// terminal event (Done or Err), then closes. Cancelling the context
	// stops consumption of the generation stream promptly.
	//
	// An error return means the query failed before generation started
	// (filter/embedding/retrieval); once the channel is returned, all
	// failures arrive as terminal events.
	QueryStream(ctx context.Context, question, tenantID string) (<-chan domain.StreamEvent, error)
}
