package model

// Document is an auxiliary text item (news article) returned by a search.
type Document struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// DocumentKey is the dedup identity of a Document.
type DocumentKey struct {
	Title string
	URL   string
}

// Key returns the (title, url) identity.
func (d Document) Key() DocumentKey {
	return DocumentKey{Title: d.Title, URL: d.URL}
}

// Empty reports whether the document carries neither a title nor a description.
func (d Document) Empty() bool {
	return d.Title == "" && d.Description == ""
}
