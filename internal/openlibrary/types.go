package openlibrary

import (
	"encoding/json"
	"strings"
)

// authorSearchResponse is the /search/authors.json payload.
type authorSearchResponse struct {
	NumFound int `json:"numFound"`
	Docs     []struct {
		Key       string `json:"key"`
		Name      string `json:"name"`
		BirthDate string `json:"birth_date"`
	} `json:"docs"`
}

// authorDetail is the /authors/<id>.json payload.
type authorDetail struct {
	Name string          `json:"name"`
	Bio  json.RawMessage `json:"bio"`
}

// biography returns the bio text, which OpenLibrary serves either as a plain
// string or as {"type": "/type/text", "value": "..."}.
func (d authorDetail) biography() string {
	if len(d.Bio) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(d.Bio, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(d.Bio, &typed); err == nil {
		return strings.TrimSpace(typed.Value)
	}
	return ""
}

// bookRecord is one entry of the /api/books?jscmd=data payload.
type bookRecord struct {
	Key           string `json:"key"`
	Title         string `json:"title"`
	PublishDate   string `json:"publish_date"`
	NumberOfPages *int   `json:"number_of_pages"`
}

// authorRecord is the cached result of an author lookup.
type authorRecord struct {
	Found     bool   `json:"found"`
	Key       string `json:"key,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	Biography string `json:"biography,omitempty"`
}

// editionRecord is the cached result of an ISBN lookup.
type editionRecord struct {
	Found       bool   `json:"found"`
	Key         string `json:"key,omitempty"`
	PublishDate string `json:"publish_date,omitempty"`
	Pages       *int   `json:"pages,omitempty"`
}
