package cms

// Cursor is the CMS-supplied URL of the next page. It is requested verbatim and
// never parsed; the zero value means pagination is exhausted.
type Cursor string

// IsZero reports whether no further pages exist.
func (c Cursor) IsZero() bool {
	return c == ""
}

func (c Cursor) String() string {
	return string(c)
}

// RawData is the document body of a post as stored in the CMS.
type RawData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

// RawEntry is one document from a CMS search response.
type RawEntry struct {
	ID                   string  `json:"id,omitempty"`
	UID                  string  `json:"uid,omitempty"`
	Type                 string  `json:"type,omitempty"`
	FirstPublicationDate *string `json:"first_publication_date"`
	LastPublicationDate  *string `json:"last_publication_date,omitempty"`
	Data                 RawData `json:"data"`
}

// Page is one batch of raw entries plus the cursor of the batch after it.
type Page struct {
	Results      []RawEntry `json:"results"`
	NextPage     Cursor     `json:"next_page"`
	Number       int        `json:"page,omitempty"`
	TotalPages   int        `json:"total_pages,omitempty"`
	TotalResults int        `json:"total_results_size,omitempty"`
}

// pageResponse mirrors the search payload with pointers so missing fields can be told
// apart from empty ones.
type pageResponse struct {
	Results      *[]RawEntry `json:"results"`
	NextPage     *string     `json:"next_page"`
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results_size"`
}

type apiRef struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

type apiRoot struct {
	Refs []apiRef `json:"refs"`
}
