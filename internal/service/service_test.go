package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"gitlab.com/dirk.krummacker/contactbook-service/internal/book"
	"gitlab.com/dirk.krummacker/contactbook-service/internal/model"
	"gitlab.com/dirk.krummacker/contactbook-service/internal/store"
)

// initializeContactBookService sets up the contact book on a file store in
// a temporary directory and returns a handle to the gin engine against
// which requests can be executed.
func initializeContactBookService(t *testing.T) *gin.Engine {
	s, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("an error '%s' was not expected when creating the file store", err)
	}
	b := book.New(s)
	gin.SetMode(gin.ReleaseMode)
	return SetupHttpRouter(b, s)
}

// runTest executes the HTTP request with the specified arguments and
// returns the response.
func runTest(router *gin.Engine, method string, url string, body *strings.Reader) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	if body == nil {
		body = strings.NewReader("")
	}
	request, _ := http.NewRequest(method, url, body)
	router.ServeHTTP(recorder, request)
	return recorder
}

// createContactForTest posts a contact and returns its assigned id.
func createContactForTest(t *testing.T, router *gin.Engine, body string) string {
	recorder := runTest(router, "POST", "/contacts", strings.NewReader(body))
	assert.Equal(t, http.StatusCreated, recorder.Code)
	var created model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &created)
	assert.NotEmpty(t, created.Id)
	return created.Id
}

// TestPost executes a POST request with a valid body. It expects that the
// HTTP request is answered with the CREATED status code and the full
// contact including the newly assigned id and timestamps.
func TestPost(t *testing.T) {
	router := initializeContactBookService(t)

	recorder := runTest(router, "POST", "/contacts", strings.NewReader(`
		{
			"firstName": "Erika",
			"lastName": "Mustermann",
			"phone": "+49 0815 4711",
			"email": "erika@example.com"
		}
	`))
	assert.Equal(t, http.StatusCreated, recorder.Code)
	var created model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &created)
	assert.NotEmpty(t, created.Id)
	assert.Equal(t, "Erika", created.FirstName)
	assert.Equal(t, "Mustermann", created.LastName)
	assert.Equal(t, "+49 0815 4711", created.Phone)
	assert.False(t, created.Favorite)
	assert.Equal(t, created.DateAdded, created.LastModified)
}

// TestPostConcurrent executes many POST requests in parallel, the way gin
// serves them in production. Every create must land in the book exactly
// once with a unique id; run with the race detector enabled, this also
// proves the handlers share the book safely.
func TestPostConcurrent(t *testing.T) {
	router := initializeContactBookService(t)

	const requests = 50
	var wg sync.WaitGroup
	wg.Add(requests)
	for i := 0; i < requests; i++ {
		go func(i int) {
			defer wg.Done()
			recorder := runTest(router, "POST", "/contacts",
				strings.NewReader(fmt.Sprintf(`{"firstName": "c%d"}`, i)))
			assert.Equal(t, http.StatusCreated, recorder.Code)
		}(i)
	}
	wg.Wait()

	recorder := runTest(router, "GET", "/contacts", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var contacts []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	assert.Equal(t, requests, len(contacts))
	seen := make(map[string]bool)
	for _, c := range contacts {
		assert.False(t, seen[c.Id])
		seen[c.Id] = true
	}
}

// TestPostInvalidBodies executes POST requests with invalid bodies. It
// expects that the HTTP requests are all answered with the BAD REQUEST
// status code.
func TestPostInvalidBodies(t *testing.T) {
	invalidRequestBodies := []string{
		"",
		"not JSON",
		`{
			"firstName": "Erika"
			"lastName": "Mustermann"
		}`, // commas missing
	}
	for _, body := range invalidRequestBodies {
		router := initializeContactBookService(t)
		recorder := runTest(router, "POST", "/contacts", strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "request body: "+body)
	}
}

// TestGetAllSorted executes a GET request with a sortby parameter. It
// expects the contacts in collation order regardless of insertion order.
func TestGetAllSorted(t *testing.T) {
	router := initializeContactBookService(t)
	createContactForTest(t, router, `{"firstName": "Zoe"}`)
	createContactForTest(t, router, `{"firstName": "Adam"}`)

	recorder := runTest(router, "GET", "/contacts?sortby=name", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var contacts []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	assert.Equal(t, 2, len(contacts))
	assert.Equal(t, "Adam", contacts[0].FirstName)
	assert.Equal(t, "Zoe", contacts[1].FirstName)
}

// TestGetAllSearchAndGroup executes GET requests with search and group
// parameters. It expects only matching contacts, and an empty JSON array
// rather than an error when nothing matches.
func TestGetAllSearchAndGroup(t *testing.T) {
	router := initializeContactBookService(t)
	createContactForTest(t, router, `{"firstName": "Bob", "email": "x@Acme.com", "group": "Work"}`)
	createContactForTest(t, router, `{"firstName": "Cara", "group": "Family"}`)

	recorder := runTest(router, "GET", "/contacts?search=acme", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var contacts []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	assert.Equal(t, 1, len(contacts))
	assert.Equal(t, "Bob", contacts[0].FirstName)

	recorder = runTest(router, "GET", "/contacts?group=Family", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	contacts = nil
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	assert.Equal(t, 1, len(contacts))
	assert.Equal(t, "Cara", contacts[0].FirstName)

	recorder = runTest(router, "GET", "/contacts?search=nothing+matches+this", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "[]", strings.TrimSpace(recorder.Body.String()))
}

// TestGetAllInvalidSortby executes a GET request with a sortby value
// outside the allow-list. It expects the BAD REQUEST status code.
func TestGetAllInvalidSortby(t *testing.T) {
	router := initializeContactBookService(t)

	recorder := runTest(router, "GET", "/contacts?sortby=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

// TestGet executes a GET request for a single contact with a valid id. It
// expects that the JSON for the contact is returned. This lookup is what
// populates the edit form from just an id.
func TestGet(t *testing.T) {
	router := initializeContactBookService(t)
	id := createContactForTest(t, router, `{"firstName": "Erika", "lastName": "Mustermann"}`)

	recorder := runTest(router, "GET", "/contacts/"+id, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var contact model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contact)
	assert.Equal(t, id, contact.Id)
	assert.Equal(t, "Erika", contact.FirstName)
}

// TestGetUnknownID executes a GET request with an id that is not in the
// book. It expects the NOT FOUND status code.
func TestGetUnknownID(t *testing.T) {
	router := initializeContactBookService(t)

	recorder := runTest(router, "GET", "/contacts/unknown", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// TestPut executes a PUT request with a valid id and body. It expects the
// updated contact with the original id and dateAdded carried over.
func TestPut(t *testing.T) {
	router := initializeContactBookService(t)
	id := createContactForTest(t, router, `{"firstName": "Erika", "phone": "+49 0815 4711"}`)

	getRecorder := runTest(router, "GET", "/contacts/"+id, nil)
	var before model.Contact
	json.Unmarshal(getRecorder.Body.Bytes(), &before)

	recorder := runTest(router, "PUT", "/contacts/"+id, strings.NewReader(`
		{
			"firstName": "Rudi",
			"lastName": "Völler",
			"phone": "+49 1234567890"
		}
	`))
	assert.Equal(t, http.StatusOK, recorder.Code)
	var updated model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &updated)
	assert.Equal(t, id, updated.Id)
	assert.Equal(t, "Rudi", updated.FirstName)
	assert.Equal(t, "Völler", updated.LastName)
	assert.Equal(t, "+49 1234567890", updated.Phone)
	assert.Equal(t, before.DateAdded, updated.DateAdded)
}

// TestPutUnknownID executes a PUT request with an id that is not in the
// book. It expects the NOT FOUND status code.
func TestPutUnknownID(t *testing.T) {
	router := initializeContactBookService(t)

	recorder := runTest(router, "PUT", "/contacts/unknown", strings.NewReader(`
		{
			"firstName": "Rudi"
		}
	`))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// TestPutInvalidBodies executes PUT requests with a valid id but invalid
// bodies. It expects that the HTTP requests are all answered with the BAD
// REQUEST status code.
func TestPutInvalidBodies(t *testing.T) {
	invalidRequestBodies := []string{
		"",
		"not JSON",
		`{
			"firstName": "Erika"
			"lastName": "Mustermann"
		}`, // commas missing
	}
	for _, body := range invalidRequestBodies {
		router := initializeContactBookService(t)
		id := createContactForTest(t, router, `{"firstName": "Erika"}`)
		recorder := runTest(router, "PUT", "/contacts/"+id, strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "request body: "+body)
	}
}

// TestDelete executes a DELETE request for a single contact with a valid
// id. It expects status OK once and NOT FOUND for the repeated request.
func TestDelete(t *testing.T) {
	router := initializeContactBookService(t)
	id := createContactForTest(t, router, `{"firstName": "Erika"}`)

	recorder := runTest(router, "DELETE", "/contacts/"+id, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = runTest(router, "DELETE", "/contacts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// TestBulkDelete executes a bulk delete for two of three contacts. It
// expects the number of removed contacts in the response and only the
// remaining contact in a subsequent listing.
func TestBulkDelete(t *testing.T) {
	router := initializeContactBookService(t)
	id1 := createContactForTest(t, router, `{"firstName": "Ann"}`)
	createContactForTest(t, router, `{"firstName": "Bob"}`)
	id3 := createContactForTest(t, router, `{"firstName": "Cara"}`)

	recorder := runTest(router, "POST", "/contacts/bulk-delete", strings.NewReader(
		`{"ids": ["`+id1+`", "`+id3+`"]}`))
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, 2.0, body["deleted"])

	recorder = runTest(router, "GET", "/contacts", nil)
	var contacts []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	assert.Equal(t, 1, len(contacts))
	assert.Equal(t, "Bob", contacts[0].FirstName)
}

// TestBulkDeleteEmptySelection executes a bulk delete without ids. It
// expects a removal count of zero and an unchanged collection.
func TestBulkDeleteEmptySelection(t *testing.T) {
	router := initializeContactBookService(t)
	createContactForTest(t, router, `{"firstName": "Ann"}`)

	recorder := runTest(router, "POST", "/contacts/bulk-delete", strings.NewReader(`{"ids": []}`))
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, 0.0, body["deleted"])

	recorder = runTest(router, "GET", "/contacts", nil)
	var contacts []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	assert.Equal(t, 1, len(contacts))
}

// TestToggleFavorite flips the favorite flag twice through the API and
// expects the flag to change each time while lastModified stays put.
func TestToggleFavorite(t *testing.T) {
	router := initializeContactBookService(t)
	id := createContactForTest(t, router, `{"firstName": "Erika"}`)

	getRecorder := runTest(router, "GET", "/contacts/"+id, nil)
	var before model.Contact
	json.Unmarshal(getRecorder.Body.Bytes(), &before)

	recorder := runTest(router, "PUT", "/contacts/"+id+"/favorite", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var toggled model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &toggled)
	assert.True(t, toggled.Favorite)
	assert.Equal(t, before.LastModified, toggled.LastModified)

	recorder = runTest(router, "PUT", "/contacts/"+id+"/favorite", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	json.Unmarshal(recorder.Body.Bytes(), &toggled)
	assert.False(t, toggled.Favorite)

	recorder = runTest(router, "PUT", "/contacts/unknown/favorite", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// TestExport executes a GET request for the export document. It expects a
// JSON array download whose filename embeds the current date.
func TestExport(t *testing.T) {
	router := initializeContactBookService(t)
	createContactForTest(t, router, `{"firstName": "Erika"}`)

	recorder := runTest(router, "GET", "/contacts/export", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	disposition := recorder.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "contacts-backup-")
	assert.Contains(t, disposition, ".json")

	var contacts []model.Contact
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &contacts))
	assert.Equal(t, 1, len(contacts))
}

// TestImport merges an uploaded JSON array into the book. It expects the
// count of appended records, skipping ids that already exist.
func TestImport(t *testing.T) {
	router := initializeContactBookService(t)

	recorder := runTest(router, "POST", "/contacts/import", strings.NewReader(`[
		{"id": "i1", "firstName": "Ann"},
		{"id": "i2", "firstName": "Bob"}
	]`))
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, 2.0, body["imported"])

	// a second import of the same file adds nothing
	recorder = runTest(router, "POST", "/contacts/import", strings.NewReader(`[
		{"id": "i1", "firstName": "Ann"},
		{"id": "i2", "firstName": "Bob"}
	]`))
	assert.Equal(t, http.StatusOK, recorder.Code)
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, 0.0, body["imported"])
}

// TestImportInvalidFormat executes import requests whose bodies are not a
// JSON array of contacts. It expects the BAD REQUEST status code.
func TestImportInvalidFormat(t *testing.T) {
	invalidRequestBodies := []string{
		"",
		"not JSON",
		"null",
		`{"id": "i1"}`,
	}
	for _, body := range invalidRequestBodies {
		router := initializeContactBookService(t)
		recorder := runTest(router, "POST", "/contacts/import", strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "request body: "+body)
	}
}

// TestStats expects the stats endpoint to report the collection size and
// the number of favorites, which is how a client tells an empty search
// result apart from an empty book.
func TestStats(t *testing.T) {
	router := initializeContactBookService(t)
	id := createContactForTest(t, router, `{"firstName": "Ann"}`)
	createContactForTest(t, router, `{"firstName": "Bob"}`)
	runTest(router, "PUT", "/contacts/"+id+"/favorite", nil)

	recorder := runTest(router, "GET", "/stats", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, 2.0, body["total"])
	assert.Equal(t, 1.0, body["favorites"])
}

// TestTheme expects the theme endpoint to default to light, persist a
// valid change, and reject values outside the allow-list.
func TestTheme(t *testing.T) {
	router := initializeContactBookService(t)

	recorder := runTest(router, "GET", "/theme", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, "light", body["theme"])

	recorder = runTest(router, "PUT", "/theme", strings.NewReader(`{"theme": "dark"}`))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = runTest(router, "GET", "/theme", nil)
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, "dark", body["theme"])

	recorder = runTest(router, "PUT", "/theme", strings.NewReader(`{"theme": "blue"}`))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
