package docintel

// Wire representations of the document analysis REST API.

type analyzeRequest struct {
	Base64Source string `json:"base64Source"`
}

type operationStatus struct {
	Status        string          `json:"status"`
	Error         *operationError `json:"error,omitempty"`
	AnalyzeResult *analyzeResult  `json:"analyzeResult,omitempty"`
}

type operationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type analyzeResult struct {
	ModelID       string         `json:"modelId"`
	Content       string         `json:"content"`
	Pages         []pageDTO      `json:"pages"`
	Tables        []tableDTO     `json:"tables"`
	KeyValuePairs []keyValueDTO  `json:"keyValuePairs"`
	Languages     []languageDTO  `json:"languages"`
	Styles        []styleDTO     `json:"styles"`
}

type pageDTO struct {
	PageNumber int `json:"pageNumber"`
}

type tableDTO struct {
	RowCount    int       `json:"rowCount"`
	ColumnCount int       `json:"columnCount"`
	Cells       []cellDTO `json:"cells"`
}

type cellDTO struct {
	RowIndex    int     `json:"rowIndex"`
	ColumnIndex int     `json:"columnIndex"`
	Content     string  `json:"content"`
	Confidence  float64 `json:"confidence"`
}

type keyValueDTO struct {
	Key   *kvElementDTO `json:"key"`
	Value *kvElementDTO `json:"value"`
}

type kvElementDTO struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

type languageDTO struct {
	Locale     string  `json:"locale"`
	Confidence float64 `json:"confidence"`
}

type styleDTO struct {
	IsHandwritten bool `json:"isHandwritten"`
}
