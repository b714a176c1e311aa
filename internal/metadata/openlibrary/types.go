package openlibrary

import (
	"strings"

	"github.com/goccy/go-json"
)

// searchResponse is the body of /search.json.
type searchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []Doc `json:"docs"`
}

// Doc is a single search hit. Open Library returns many more fields; only
// the ones used for matching and enrichment are decoded.
type Doc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverI           int      `json:"cover_i"`
	ISBN             []string `json:"isbn"`
	EditionKey       []string `json:"edition_key"`
	WorkKeys         []string `json:"work_key"`
	Subject          []string `json:"subject"`
}

// FirstAuthor returns the first listed author, or "".
func (d *Doc) FirstAuthor() string {
	if len(d.AuthorName) == 0 {
		return ""
	}
	return strings.TrimSpace(d.AuthorName[0])
}

// FirstISBN returns the first listed ISBN, or "".
func (d *Doc) FirstISBN() string {
	if len(d.ISBN) == 0 {
		return ""
	}
	return strings.TrimSpace(d.ISBN[0])
}

// OLID returns the first edition key, or "".
func (d *Doc) OLID() string {
	if len(d.EditionKey) == 0 {
		return ""
	}
	return strings.TrimSpace(d.EditionKey[0])
}

// WorkKey returns the "/works/OL…W" path of the hit. Some docs only carry
// it in their key.
func (d *Doc) WorkKey() string {
	if len(d.WorkKeys) > 0 {
		if k := strings.TrimSpace(d.WorkKeys[0]); k != "" {
			if !strings.HasPrefix(k, "/works/") {
				k = "/works/" + k
			}
			return k
		}
	}
	if k := strings.TrimSpace(d.Key); strings.HasPrefix(k, "/works/") {
		return k
	}
	return ""
}

// work is the body of /works/{id}.json.
type work struct {
	Title       string          `json:"title"`
	Description json.RawMessage `json:"description"`
}

// text returns the work description, which is either a plain string or a
// typed value such as {"type": "/type/text", "value": "..."}.
func (w *work) text() string {
	if len(w.Description) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(w.Description, &s); err == nil {
		return s
	}

	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(w.Description, &typed); err == nil {
		return typed.Value
	}
	return ""
}
