package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookIDs(t *testing.T, body map[string]interface{}) []int {
	t.Helper()
	var ids []int
	for _, book := range body["Books"].([]interface{}) {
		ids = append(ids, int(book.(map[string]interface{})["id"].(float64)))
	}
	return ids
}

func TestAddUpdateRemoveBook(t *testing.T) {
	s := newTestServer(t, Options{})
	s.login()

	resp := s.do(http.MethodPost, "/api/v1/books", `{"title": " Neonatology ", "notes": "shelf 1", "file_url": "/neo.pdf"}`, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.JSONEq(t, `{"Book": {
		"id": 1,
		"title": "Neonatology",
		"notes": "shelf 1",
		"file_url": "/neo.pdf",
		"date_added": "2024-05-01 09:30:00"
	}}`, resp.Body.String())

	resp = s.do(http.MethodPost, "/api/v1/books", `{"title": "NEONATOLOGY"}`, nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
	resp = s.do(http.MethodPost, "/api/v1/books", `{"title": "  "}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, map[string]interface{}{"Error": "Title is required"}, decode(t, resp))

	resp = s.do(http.MethodPatch, "/api/v1/books/1", `{"notes": "shelf 2"}`, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	book := decode(t, resp)["Book"].(map[string]interface{})
	assert.Equal(t, "shelf 2", book["notes"])
	assert.Equal(t, "Neonatology", book["title"])

	resp = s.do(http.MethodPatch, "/api/v1/books/99", `{"notes": "x"}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	resp = s.do(http.MethodPatch, "/api/v1/books/abc", `{"notes": "x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = s.do(http.MethodDelete, "/api/v1/books", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	resp = s.do(http.MethodDelete, "/api/v1/books?id=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	resp = s.do(http.MethodDelete, "/api/v1/books?id=1&id=7", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	records, err := s.store.All()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListBooks(t *testing.T) {
	s := newTestServer(t, Options{})
	s.login()
	for _, body := range []string{
		`{"title": "Pediatric Heart Disease"}`,
		`{"title": "Heart"}`,
		`{"title": "Dermatology", "notes": "heart of the skin"}`,
		`{"title": "Lungs"}`,
	} {
		resp := s.do(http.MethodPost, "/api/v1/books", body, nil)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}
	resp := s.do(http.MethodDelete, "/api/v1/session/new", "", nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = s.do(http.MethodGet, "/api/v1/books?q=heart&sort=title_asc", "", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode(t, resp)
	assert.Equal(t, []int{3, 2, 1}, bookIDs(t, body))
	assert.Equal(t, float64(3), body["Total"])
	assert.Equal(t, float64(4), body["All"])

	first := body["Books"].([]interface{})[1].(map[string]interface{})
	assert.Equal(t, "Heart", first["title"])
	assert.Equal(t, true, first["IsDuplicate"])
	assert.Equal(t, false, first["IsNew"])

	resp = s.do(http.MethodGet, "/api/v1/books?sort=title_asc&page=2&limit=3", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []int{1}, bookIDs(t, decode(t, resp)))

	resp = s.do(http.MethodGet, "/api/v1/books?sort=sideways", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	resp = s.do(http.MethodGet, "/api/v1/books?page=first", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSuggestions(t *testing.T) {
	s := newTestServer(t, Options{SuggestionLimit: 2})
	s.login()
	for _, body := range []string{
		`{"title": "Cardiología <Pediátrica>", "notes": "corazón & más"}`,
		`{"title": "Zebra", "notes": "cardiologia notes"}`,
		`{"title": "Apple cardiologia"}`,
	} {
		resp := s.do(http.MethodPost, "/api/v1/books", body, nil)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	resp := s.do(http.MethodGet, "/api/v1/suggestions?q=cardiologia", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	suggestions := decode(t, resp)["Suggestions"].([]interface{})
	require.Len(t, suggestions, 2)
	top := suggestions[0].(map[string]interface{})
	assert.Equal(t, "Apple cardiologia", top["title"])
	assert.Equal(t, float64(3), top["Score"])
	assert.Equal(t, "Apple <mark>cardiologia</mark>", top["TitleHTML"])
	second := suggestions[1].(map[string]interface{})
	assert.Equal(t, "<mark>Cardiología</mark> &lt;Pediátrica&gt;", second["TitleHTML"])
	assert.Equal(t, "corazón &amp; más", second["NotesHTML"])

	resp = s.do(http.MethodGet, "/api/v1/suggestions?q=cardiologia&limit=5", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode(t, resp)["Suggestions"], 3)
}

func TestBulkAndDuplicates(t *testing.T) {
	s := newTestServer(t, Options{})
	s.login()

	resp := s.do(http.MethodPost, "/api/v1/books/bulk", "Compendium.pdf|first\ncompendium_2023.pdf\n\nCOMPENDIUM.PDF\n|no title", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.JSONEq(t, `{"Added": 2, "Duplicates": 1, "Empty": 1, "IDs": [1, 2]}`, resp.Body.String())

	resp = s.do(http.MethodGet, "/api/v1/duplicates", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"IDs": [1, 2]}`, resp.Body.String())

	resp = s.do(http.MethodGet, "/api/v1/session/new", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"IDs": [1, 2], "Titles": ["Compendium.pdf", "compendium_2023.pdf"]}`, resp.Body.String())
}

func TestTitleSuggestion(t *testing.T) {
	s := newTestServer(t, Options{})
	s.login()
	resp := s.do(http.MethodGet, "/api/v1/title-suggestion?name=Pediatric_Heart_Disease_From.pdf", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"Title": "Pediatric Heart Disease.pdf"}`, resp.Body.String())
}
