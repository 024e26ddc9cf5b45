// internal/domain/models/upload.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload records one spreadsheet ingestion run.
type Upload struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FileName   string               `bson:"file_name" json:"file_name"`
	StoredPath string               `bson:"stored_path" json:"stored_path"`
	UploadedBy primitive.ObjectID   `bson:"uploaded_by" json:"uploaded_by"`
	AgentIDs   []primitive.ObjectID `bson:"agent_ids" json:"agent_ids"`
	DedupMode  string               `bson:"dedup_mode" json:"dedup_mode"`
	TotalRows  int                  `bson:"total_rows" json:"total_rows"`
	Inserted   int                  `bson:"inserted" json:"inserted"`
	Duplicates int                  `bson:"duplicates" json:"duplicates"`
	Failed     int                  `bson:"failed" json:"failed"`
	CreatedAt  time.Time            `bson:"created_at" json:"created_at"`
}
