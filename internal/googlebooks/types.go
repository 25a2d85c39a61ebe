package googlebooks

// SearchResponse matches the volumes search response structure.
type SearchResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Volume is a single search hit.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo holds the nested volume metadata.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Description         string               `json:"description"`
	AverageRating       any                  `json:"averageRating"` // Usually a number, occasionally a string
	RatingsCount        *int                 `json:"ratingsCount"`
	Categories          []string             `json:"categories"`
	PageCount           *int                 `json:"pageCount"`
	Language            string               `json:"language"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	PublishedDate       string               `json:"publishedDate"`
}

// IndustryIdentifier is a typed identifier such as ISBN_10 or ISBN_13.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// ISBN13Type is the type tag Google Books uses for ISBN-13 identifiers.
const ISBN13Type = "ISBN_13"
