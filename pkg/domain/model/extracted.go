package model

// TableCell is a single cell of an extracted table, addressed by its
// row/column position in the source document.
type TableCell struct {
	RowIndex    int
	ColumnIndex int
	Content     string
	Confidence  float64
}

// Table is one table recovered by document analysis. Cells are sparse:
// absent positions are empty in the source document.
type Table struct {
	RowCount    int
	ColumnCount int
	Cells       []TableCell
}

// KeyValuePair is a labeled value recovered by document analysis
type KeyValuePair struct {
	Key             string
	Value           string
	KeyConfidence   float64
	ValueConfidence float64
}

// DetectedLanguage is a language detected in the analyzed document
type DetectedLanguage struct {
	Locale     string
	Confidence float64
}

// ExtractedContent is the normalized output of analyzing one attachment.
// Content already includes rendered table text so tabular data stays part
// of the searchable text stream.
type ExtractedContent struct {
	Content       string
	Tables        []Table
	KeyValuePairs []KeyValuePair
	Languages     []DetectedLanguage
	PageCount     int
	TableCount    int
	Handwritten   bool
}
