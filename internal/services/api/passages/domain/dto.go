// Package domain holds DTOs for passages http and service contracts
package domain

// IngestInput is the input for registering a new content unit
type IngestInput struct {
	Title        string `json:"title" validate:"required,min=1,max=500" example:"The Gift of the Magi"`
	AuthorPeriod string `json:"author_period,omitempty" validate:"omitempty,max=200" example:"O. Henry, 1905"`
	Language     string `json:"language,omitempty" validate:"omitempty,bcp47_language_tag" example:"en"`
	Text         string `json:"text" validate:"required,min=1"`
}

// UnitInput identifies a content unit
type UnitInput struct {
	UnitID string `json:"unit_id" validate:"required,uuid4" example:"7b0d7a66-4f7e-4a4f-9a5e-2f4f6f1c9b1d"`
}

// Unit describes a registered content unit
type Unit struct {
	UnitID       string `json:"unit_id"`
	Title        string `json:"title"`
	AuthorPeriod string `json:"author_period,omitempty"`
	Language     string `json:"language"`
	ContentHash  string `json:"content_hash"`
	Words        int    `json:"words"`
	CreatedAt    string `json:"created_at"`
}

// RenderInput requests one chunk of a unit at a reading level
type RenderInput struct {
	UnitID     string `json:"unit_id" validate:"required,uuid4" example:"7b0d7a66-4f7e-4a4f-9a5e-2f4f6f1c9b1d"`
	ChunkIndex int    `json:"chunk_index" validate:"min=0" example:"0"`
	Level      string `json:"level" validate:"required,oneof=L1 L2 L3 L4 L5 L6" example:"L2"`
}

// Passage is a rendered chunk, simplified when the pipeline produced a
// usable transformation and the original text otherwise
type Passage struct {
	UnitID     string  `json:"unit_id"`
	ChunkIndex int     `json:"chunk_index"`
	Level      string  `json:"level"`
	Style      string  `json:"style,omitempty"`
	Kind       string  `json:"kind"` // verified acceptable rejected fallback_original
	Text       string  `json:"text"`
	Simplified bool    `json:"simplified"`
	Score      float64 `json:"score,omitempty"`
	Model      string  `json:"model,omitempty"`
	Attempts   int     `json:"attempts"`
	CacheHit   bool    `json:"cache_hit"`
	Reason     string  `json:"reason,omitempty"`
}

// ChunksInput requests the chunk listing for a unit at a level
type ChunksInput struct {
	UnitID string `json:"unit_id" validate:"required,uuid4"`
	Level  string `json:"level" validate:"required,oneof=L1 L2 L3 L4 L5 L6" example:"L3"`
}

// ChunkInfo summarizes one chunk without rendering it
type ChunkInfo struct {
	ChunkIndex int    `json:"chunk_index"`
	Words      int    `json:"words"`
	Style      string `json:"style,omitempty"`
}

// ChunkList is the chunk listing for a unit at a level
type ChunkList struct {
	UnitID string      `json:"unit_id"`
	Level  string      `json:"level"`
	Chunks []ChunkInfo `json:"chunks"`
}
