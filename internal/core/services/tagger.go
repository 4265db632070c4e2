package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
)

// sourceHeader is the literal provenance header prepended to every
// chunk. The synthesis prompt instructs the model to read it, so it
// must live in the embedded text itself, not only in side metadata.
const sourceHeader = "[SOURCE: %s]\n\n"

// TagChunks turns split text pieces into tenant-tagged chunks.
// Every chunk's content is prefixed with the source description header
// and carries the full source metadata with the tenant ID set. The
// input is not mutated; new chunk values are returned.
func TagChunks(pieces []string, tenantID string, meta domain.SourceMetadata) []domain.Chunk {
	header := fmt.Sprintf(sourceHeader, meta.SourceDescription)

	tagged := meta
	tagged.TenantID = tenantID

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:       uuid.New().String(),
			Content:  header + piece,
			Position: i,
			Metadata: tagged,
		})
	}

	return chunks
}
