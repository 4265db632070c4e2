// Package sqlite provides a TenantIndex backed by a local SQLite
// database. Embeddings are stored as little-endian float32 blobs and
// similarity is ranked brute-force in process, which is plenty for a
// single-node knowledge base and needs no external server.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/piyushgoswami015/CorthyxAI/internal/adapters/driven/index/sqlite/migrations"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
)

// Ensure TenantIndex implements the interface.
var _ driven.TenantIndex = (*TenantIndex)(nil)

// TenantIndex is a SQLite-backed vector index.
type TenantIndex struct {
	db   *sql.DB
	path string
}

// New creates a SQLite tenant index at the specified data directory.
// If dataDir is empty, defaults to ~/.corthyx/data. The schema is
// created on first open, so the first ingestion works on a fresh
// machine.
func New(dataDir string) (*TenantIndex, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".corthyx", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode lets concurrent ingestions and queries interleave.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrIndexUnavailable, err)
	}

	x := &TenantIndex{
		db:   db,
		path: dbPath,
	}

	if err := x.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %v", domain.ErrIndexUnavailable, err)
	}

	return x, nil
}

// Path returns the database file path.
func (x *TenantIndex) Path() string {
	return x.path
}

// Add inserts chunks in one transaction. Either all chunks of an
// ingestion land or none do, so a failed ingestion never leaves a
// silently partial write.
func (x *TenantIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, tenant_id, source_type, source_id, source_description,
			ingested_at, position, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		metadataJSON, err := json.Marshal(extraMetadata(c.Metadata))
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, c.ID, c.Metadata.TenantID,
			string(c.Metadata.SourceType), c.Metadata.SourceID,
			c.Metadata.SourceDescription, c.Metadata.IngestedAt.UTC().Format(time.RFC3339),
			c.Position, c.Content, float32SliceToBytes(c.Embedding), string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search loads the tenant's candidate rows with SQL filtering and
// ranks them by cosine similarity in process.
func (x *TenantIndex) Search(
	ctx context.Context, vector []float32, k int, filter domain.RetrievalFilter,
) ([]domain.ScoredChunk, error) {
	query := `
		SELECT id, tenant_id, source_type, source_id, source_description,
			ingested_at, position, content, embedding, metadata
		FROM chunks WHERE tenant_id = ?`
	args := []any{filter.TenantID}
	if filter.SourceType != "" {
		query += " AND source_type = ?"
		args = append(args, string(filter.SourceType))
	}

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.ScoredChunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, domain.ScoredChunk{
			Chunk: *chunk,
			Score: cosineSimilarity(vector, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteByTenant removes all rows for the tenant and reports how many
// were removed. Idempotent.
func (x *TenantIndex) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	res, err := x.db.ExecContext(ctx, "DELETE FROM chunks WHERE tenant_id = ?", tenantID)
	if err != nil {
		return 0, fmt.Errorf("deleting tenant chunks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deletions: %w", err)
	}
	return int(affected), nil
}

// Ping verifies the database file is usable.
func (x *TenantIndex) Ping(ctx context.Context) error {
	if err := x.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Close closes the database connection.
func (x *TenantIndex) Close() error {
	return x.db.Close()
}

// migrate runs all pending migrations.
func (x *TenantIndex) migrate(fsys embed.FS) error {
	_, err := x.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := x.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := x.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := x.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// extraMetadata holds the type-specific fields serialised as JSON.
type extraMetadataJSON struct {
	Filename   string `json:"filename,omitempty"`
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
	LinksCount int    `json:"links_count,omitempty"`
	VideoTitle string `json:"video_title,omitempty"`
	Author     string `json:"author,omitempty"`
}

func extraMetadata(m domain.SourceMetadata) extraMetadataJSON {
	return extraMetadataJSON{
		Filename:   m.Filename,
		URL:        m.URL,
		Title:      m.Title,
		LinksCount: m.LinksCount,
		VideoTitle: m.VideoTitle,
		Author:     m.Author,
	}
}

// scanChunk scans a single chunk row.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var (
		chunk         domain.Chunk
		sourceType    string
		ingestedAt    string
		embeddingBlob []byte
		metadataJSON  string
	)

	if err := rows.Scan(&chunk.ID, &chunk.Metadata.TenantID, &sourceType,
		&chunk.Metadata.SourceID, &chunk.Metadata.SourceDescription,
		&ingestedAt, &chunk.Position, &chunk.Content, &embeddingBlob, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Metadata.SourceType = domain.SourceType(sourceType)
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if parsed, err := time.Parse(time.RFC3339, ingestedAt); err == nil {
		chunk.Metadata.IngestedAt = parsed
	}

	var extra extraMetadataJSON
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &extra); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	chunk.Metadata.Filename = extra.Filename
	chunk.Metadata.URL = extra.URL
	chunk.Metadata.Title = extra.Title
	chunk.Metadata.LinksCount = extra.LinksCount
	chunk.Metadata.VideoTitle = extra.VideoTitle
	chunk.Metadata.Author = extra.Author

	return &chunk, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched or zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
