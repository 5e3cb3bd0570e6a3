package interfaces

import (
	"context"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
)

// AnalysisResult is the typed outcome of analyzing one attachment. Remote
// failures are carried here rather than as returned errors so that one bad
// attachment never aborts the surrounding page's ingestion.
type AnalysisResult struct {
	Success bool
	Content *model.ExtractedContent
	Error   string
}

// Analyzer defines the interface for the document layout/OCR service
type Analyzer interface {
	// Analyze submits attachment bytes and returns normalized extraction output
	Analyze(ctx context.Context, data []byte, filename, contentType string) *AnalysisResult
}
