// internal/app/store/leads/insert.go
package leadstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultChunkSize is the number of leads written per InsertMany call.
const DefaultChunkSize = 500

// ChunkError describes a failed write inside a chunked insert.
type ChunkError struct {
	Chunk   int    `json:"chunk"`
	Index   int    `json:"index"` // position in the full input, -1 when the whole chunk failed
	Message string `json:"message"`
}

// InsertResult summarizes a chunked insert.
type InsertResult struct {
	Inserted int
	Failed   int
	Errors   []ChunkError
}

// InsertChunks writes leads in chunks of chunkSize using unordered
// InsertMany. A failure inside one chunk never stops the remaining chunks;
// per-document failures are counted and described in the result. Only a
// context cancellation ends the loop early; every chunk left unwritten is
// then reported with Index -1.
func (s *Store) InsertChunks(ctx context.Context, leads []models.Lead, chunkSize int) (InsertResult, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var res InsertResult
	for start, chunk := 0, 0; start < len(leads); start, chunk = start+chunkSize, chunk+1 {
		if err := ctx.Err(); err != nil {
			res.Failed += len(leads) - start
			for c := chunk; c*chunkSize < len(leads); c++ {
				res.Errors = append(res.Errors, ChunkError{Chunk: c, Index: -1, Message: err.Error()})
			}
			return res, err
		}

		end := min(start+chunkSize, len(leads))
		docs := make([]interface{}, 0, end-start)
		for i := start; i < end; i++ {
			prepare(&leads[i])
			docs = append(docs, leads[i])
		}

		// ordered:false so every document is attempted even if some fail.
		_, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		if err == nil {
			res.Inserted += len(docs)
			continue
		}

		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) && len(bulkErr.WriteErrors) > 0 {
			res.Inserted += len(docs) - len(bulkErr.WriteErrors)
			res.Failed += len(bulkErr.WriteErrors)
			for _, we := range bulkErr.WriteErrors {
				res.Errors = append(res.Errors, ChunkError{
					Chunk:   chunk,
					Index:   start + we.Index,
					Message: fmt.Sprintf("code %d: %s", we.Code, we.Message),
				})
			}
			continue
		}

		res.Failed += len(docs)
		res.Errors = append(res.Errors, ChunkError{Chunk: chunk, Index: -1, Message: err.Error()})
	}
	return res, nil
}
