package models

// TypeUsage is the storage used by one file type.
type TypeUsage struct {
	Type  FileType `json:"type"`
	Count int      `json:"count"`
	Bytes int64    `json:"bytes"`
}

// GrowthPoint is the cumulative storage at the end of a month.
type GrowthPoint struct {
	Month string `json:"month"` // YYYY-MM
	Bytes int64  `json:"bytes"`
}

// StorageStats summarizes storage usage for the analytics charts.
type StorageStats struct {
	Used        int64         `json:"used"`
	Limit       int64         `json:"limit"`
	Free        int64         `json:"free"`
	PercentUsed float64       `json:"percentUsed"`
	Files       int           `json:"files"`
	Folders     int           `json:"folders"`
	Starred     int           `json:"starred"`
	ByType      []TypeUsage   `json:"byType"`
	Largest     []FileItem    `json:"largest"`
	Recent      []FileItem    `json:"recent"`
	Growth      []GrowthPoint `json:"growth"`
}
