package cms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/trvl/internal/config"
)

const apiRootBody = `{"refs":[{"id":"release","ref":"YRel","label":"Spring","isMasterRef":false},{"id":"master","ref":"YMaster","label":"Master","isMasterRef":true}]}`

func newTestClient(t *testing.T, endpoint string, mutate ...func(*config.Config)) *Client {
	t.Helper()
	cfg := config.TestConfig()
	cfg.CMS.Endpoint = endpoint
	for _, m := range mutate {
		m(cfg)
	}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func TestClient_FetchPage_InitialQuery(t *testing.T) {
	var rootHits, searchHits atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trvl-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		switch r.URL.Path {
		case "/api/v2":
			rootHits.Add(1)
			fmt.Fprint(w, apiRootBody)
		case "/api/v2/documents/search":
			searchHits.Add(1)
			q := r.URL.Query()
			assert.Equal(t, "YMaster", q.Get("ref"))
			assert.Equal(t, `[[at(document.type, "posts")]]`, q.Get("q"))
			assert.Equal(t, "2", q.Get("pageSize"))
			assert.False(t, q.Has("access_token"))
			fmt.Fprintf(w, `{"page":1,"total_pages":2,"total_results_size":3,"next_page":"%s/api/v2/documents/search?page=2","results":[
				{"uid":"como-utilizar-hooks","first_publication_date":"2021-03-15T19:25:28+0000","data":{"title":"Como utilizar Hooks","subtitle":"Pensando em sincronização","author":"Joseph Oliveira"}},
				{"uid":"criando-um-app-cra-do-zero","first_publication_date":null,"data":{"title":"Criando um app CRA do zero","subtitle":"Tudo sobre como criar","author":"Danilo Vieira"}}
			]}`, srv.URL)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/api/v2/")
	assert.False(t, client.Preview())
	assert.Equal(t, "master", client.RefLabel())

	page, err := client.FetchPage(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, page.Results, 2)
	assert.Equal(t, "como-utilizar-hooks", page.Results[0].UID)
	require.NotNil(t, page.Results[0].FirstPublicationDate)
	assert.Equal(t, "2021-03-15T19:25:28+0000", *page.Results[0].FirstPublicationDate)
	assert.Nil(t, page.Results[1].FirstPublicationDate)
	assert.Equal(t, "Danilo Vieira", page.Results[1].Data.Author)
	assert.Equal(t, Cursor(srv.URL+"/api/v2/documents/search?page=2"), page.NextPage)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 3, page.TotalResults)

	// the master ref is resolved once and reused
	_, err = client.FetchPage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), rootHits.Load())
	assert.Equal(t, int32(2), searchHits.Load())
}

func TestClient_FetchPage_PreviewRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/documents/search", r.URL.Path, "preview must not resolve the master ref")
		q := r.URL.Query()
		assert.Equal(t, "YPreview~abc", q.Get("ref"))
		assert.Equal(t, "secret", q.Get("access_token"))
		assert.Equal(t, "3", q.Get("pageSize"))
		fmt.Fprint(w, `{"results":[],"next_page":null}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/api/v2", func(cfg *config.Config) {
		cfg.CMS.PreviewRef = "YPreview~abc"
		cfg.CMS.AccessToken = "secret"
		cfg.CMS.PageSize = 3
	})
	assert.True(t, client.Preview())
	assert.Equal(t, "preview:YPreview~abc", client.RefLabel())

	page, err := client.FetchPage(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.True(t, page.NextPage.IsZero())
}

func TestClient_FetchPage_CursorIsVerbatim(t *testing.T) {
	var gotRawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRawQuery = r.URL.RawQuery
		assert.Equal(t, "/cursor/opaque", r.URL.Path)
		fmt.Fprint(w, `{"results":[{"uid":"c","first_publication_date":"2021-05-19T10:00:00Z","data":{"title":"C","subtitle":"","author":"X"}}],"next_page":null}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/api/v2")

	cursor := Cursor(srv.URL + "/cursor/opaque?page=2&pageSize=2&ref=YMaster&q=%5B%5Bat%28document.type%2C+%22posts%22%29%5D%5D")
	page, err := client.FetchPage(context.Background(), cursor)
	require.NoError(t, err)

	assert.Equal(t, "page=2&pageSize=2&ref=YMaster&q=%5B%5Bat%28document.type%2C+%22posts%22%29%5D%5D", gotRawQuery)
	require.Len(t, page.Results, 1)
	assert.True(t, page.NextPage.IsZero())
}

func TestClient_FetchPage_Errors(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		wantStatus    int
		wantMalformed bool
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "missing results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"next_page":null}`)
			},
			wantMalformed: true,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>oops</html>`)
			},
			wantMalformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := newTestClient(t, srv.URL+"/api/v2")
			page, err := client.FetchPage(context.Background(), Cursor(srv.URL+"/next"))
			require.Error(t, err)
			assert.Nil(t, page)

			if tt.wantMalformed {
				var malformed *MalformedResponseError
				assert.True(t, errors.As(err, &malformed), "want MalformedResponseError, got %T", err)
				return
			}

			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr), "want FetchError, got %T", err)
			assert.Equal(t, tt.wantStatus, fetchErr.StatusCode)
			assert.Equal(t, srv.URL+"/next", fetchErr.URL)
		})
	}
}

func TestClient_FetchPage_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL + "/api/v2"
	srv.Close()

	client := newTestClient(t, endpoint)
	_, err := client.FetchPage(context.Background(), Cursor(endpoint+"/documents/search?page=2"))

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.NotNil(t, errors.Unwrap(fetchErr))
}

func TestClient_FetchPage_RejectsInvalidCursor(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/api/v2")

	for _, cursor := range []Cursor{"/relative?page=2", "ftp://cms.io/page2", "https://cms.io/<script>"} {
		_, err := client.FetchPage(context.Background(), cursor)
		var fetchErr *FetchError
		assert.True(t, errors.As(err, &fetchErr), "cursor %q", cursor)
	}
	assert.Zero(t, hits.Load())
}

func TestClient_FetchPage_NoMasterRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"refs":[]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/api/v2")
	_, err := client.FetchPage(context.Background(), "")

	var malformed *MalformedResponseError
	assert.True(t, errors.As(err, &malformed))
}

func TestNewClient_InvalidEndpoint(t *testing.T) {
	cfg := config.TestConfig()
	cfg.CMS.Endpoint = "not a url"
	_, err := NewClient(cfg)
	assert.Error(t, err)

	cfg = config.TestConfig()
	cfg.CMS.AllowPrivateHosts = false
	_, err = NewClient(cfg)
	assert.Error(t, err, "loopback endpoint needs allow_private_hosts")
}

func TestCursor(t *testing.T) {
	assert.True(t, Cursor("").IsZero())
	assert.False(t, Cursor("https://cms.io/next").IsZero())
	assert.Equal(t, "https://cms.io/next", Cursor("https://cms.io/next").String())
}
