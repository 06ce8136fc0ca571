package service

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/dirk.krummacker/contactbook-service/internal/book"
	"gitlab.com/dirk.krummacker/contactbook-service/internal/model"
	"gitlab.com/dirk.krummacker/contactbook-service/internal/store"
)

// allowedSortby are the allowed values for the 'sortby' URL parameter.
var allowedSortby = []string{"", "none", book.SortByName, book.SortByDate, book.SortByGroup}

// allowedThemes are the values accepted by the theme endpoint.
var allowedThemes = []string{"light", "dark"}

// server dispatches HTTP requests to the contact book. The book is passed
// in once at router setup; handlers hold no other state.
type server struct {
	book  *book.Book
	store store.Store
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints against the given contact book and store.
func SetupHttpRouter(b *book.Book, s store.Store) *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		fmt.Println("Turning off HTTP request logging.")
		router = gin.New()
	} else {
		router = gin.Default()
	}
	srv := &server{book: b, store: s}
	router.GET("/contacts", srv.findContacts)
	router.POST("/contacts", srv.createContact)
	router.GET("/contacts/export", srv.exportContacts)
	router.POST("/contacts/import", srv.importContacts)
	router.POST("/contacts/bulk-delete", srv.bulkDeleteContacts)
	router.GET("/contacts/:id", srv.findContactByID)
	router.PUT("/contacts/:id", srv.updateContactByID)
	router.DELETE("/contacts/:id", srv.deleteContactByID)
	router.PUT("/contacts/:id/favorite", srv.toggleFavorite)
	router.GET("/stats", srv.stats)
	router.GET("/theme", srv.getTheme)
	router.PUT("/theme", srv.putTheme)
	return router
}

// findContacts responds with the visible contact list as JSON.
//
// The URL parameter 'search' is matched as a case-insensitive substring
// against name, email, and company, and as a raw substring against the
// phone number. The URL parameter 'group' keeps only contacts of exactly
// that group. The URL parameter 'sortby' orders the result; valid values
// are 'name', 'date', 'group', and 'none'. If it is omitted the contacts
// keep their insertion order.
//
// An empty result is answered with an empty JSON array, not an error; the
// /stats endpoint tells a client whether the book itself is empty.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts"
//	> curl "http://localhost:8080/contacts?search=acme"
//	> curl "http://localhost:8080/contacts?group=Family&sortby=name"
//	> curl "http://localhost:8080/contacts?sortby=date"
func (s *server) findContacts(c *gin.Context) {
	sortby := c.Query("sortby")
	if !contains(allowedSortby, sortby) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid sortby parameter"})
		return
	}
	view := book.View(s.book.Contacts(), c.Query("search"), c.Query("group"), sortby)
	c.IndentedJSON(http.StatusOK, view)
}

// createContact adds the contact specified in the request's JSON to the
// book and responds with the full record including the newly assigned id
// and timestamps. All fields are optional free text; id, favorite, and the
// timestamps in the request body are ignored.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"firstName": "Hans", "lastName": "Wurst", "phone": "0815"}'
func (s *server) createContact(c *gin.Context) {
	var fields model.Contact
	if err := c.BindJSON(&fields); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	created, err := s.book.Create(fields)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "could not persist contact"})
		return
	}
	c.IndentedJSON(http.StatusCreated, created)
}

// findContactByID locates the contact whose id matches the id parameter of
// the request URL and returns it. The edit form is populated from this
// lookup; the client only ever passes the id around.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/7f9c24e5-5d4e-4b2f-9c1a-8e2f3a4b5c6d
func (s *server) findContactByID(c *gin.Context) {
	contact, err := s.book.Get(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID replaces the fields of the contact whose id matches
// the id parameter of the request URL and responds with the new version of
// the contact. The id, the dateAdded timestamp, and the favorite flag are
// carried over from the stored record.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/7f9c24e5-5d4e-4b2f-9c1a-8e2f3a4b5c6d --request "PUT" --include --header "Content-Type: application/json" --data '{"firstName": "Hans", "phone": "81970"}'
func (s *server) updateContactByID(c *gin.Context) {
	var fields model.Contact
	if err := c.BindJSON(&fields); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	updated, err := s.book.Update(c.Param("id"), fields)
	if err == book.ErrNotFound {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "could not persist contact"})
		return
	}
	c.IndentedJSON(http.StatusOK, updated)
}

// deleteContactByID deletes the contact whose id matches the id parameter
// of the request URL from the book. Confirmation prompts are a client
// concern; the deletion itself is unconditional.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/7f9c24e5-5d4e-4b2f-9c1a-8e2f3a4b5c6d --request "DELETE"
func (s *server) deleteContactByID(c *gin.Context) {
	removed, err := s.book.Delete(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "could not persist contact"})
		return
	}
	if removed {
		c.IndentedJSON(http.StatusOK, gin.H{"message": "contact deleted"})
	} else {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
	}
}

// bulkDeleteContacts deletes every contact whose id appears in the request
// body and responds with the number of contacts removed. An empty id list
// is a no-op answered with a count of zero.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/bulk-delete --request "POST" --include --header "Content-Type: application/json" --data '{"ids": ["7f9c24e5-5d4e-4b2f-9c1a-8e2f3a4b5c6d"]}'
func (s *server) bulkDeleteContacts(c *gin.Context) {
	var body struct {
		Ids []string `json:"ids"`
	}
	if err := c.BindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	deleted, err := s.book.BulkDelete(body.Ids)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "could not persist contacts"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"deleted": deleted})
}

// toggleFavorite flips the favorite flag of the contact whose id matches
// the id parameter of the request URL and responds with the new version of
// the contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/7f9c24e5-5d4e-4b2f-9c1a-8e2f3a4b5c6d/favorite --request "PUT"
func (s *server) toggleFavorite(c *gin.Context) {
	toggled, err := s.book.ToggleFavorite(c.Param("id"))
	if err == book.ErrNotFound {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "could not persist contact"})
		return
	}
	c.IndentedJSON(http.StatusOK, toggled)
}

// exportContacts responds with the full collection as an indented JSON
// array, served as a download named after the current date. The document
// has the same shape as the contacts slot, so it can be imported again
// unchanged.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/export --remote-header-name --remote-name
func (s *server) exportContacts(c *gin.Context) {
	data, err := s.book.Export()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "could not serialize contacts"})
		return
	}
	filename := fmt.Sprintf("contacts-backup-%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", data)
}

// importContacts merges the JSON array in the request body into the book,
// skipping records whose id already exists, and responds with the number
// of contacts actually added. A body that is not a JSON array of contacts
// is rejected.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/import --request "POST" --include --header "Content-Type: application/json" --data @contacts-backup-2026-08-28.json
func (s *server) importContacts(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "could not read request body"})
		return
	}
	imported, err := s.book.MergeImport(data)
	if err == book.ErrInvalidFormat {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid file format"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "could not persist contacts"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"imported": imported})
}

// stats responds with the total number of contacts and the number of
// favorites. A client uses it to tell an empty search result apart from an
// empty book.
//
// Example REST API call:
//
//	> curl http://localhost:8080/stats
func (s *server) stats(c *gin.Context) {
	total, favorites := s.book.Stats()
	c.IndentedJSON(http.StatusOK, gin.H{"total": total, "favorites": favorites})
}

// getTheme responds with the persisted theme preference, defaulting to
// light if none has been chosen yet.
func (s *server) getTheme(c *gin.Context) {
	theme := s.store.LoadTheme()
	if theme == "" {
		theme = "light"
	}
	c.IndentedJSON(http.StatusOK, gin.H{"theme": theme})
}

// putTheme persists the theme preference from the request body. Only the
// values 'light' and 'dark' are accepted.
//
// Example REST API call:
//
//	> curl http://localhost:8080/theme --request "PUT" --include --header "Content-Type: application/json" --data '{"theme": "dark"}'
func (s *server) putTheme(c *gin.Context) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := c.BindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	if !contains(allowedThemes, body.Theme) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid theme parameter"})
		return
	}
	if err := s.store.SaveTheme(body.Theme); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "could not persist theme"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"theme": body.Theme})
}

// contains returns true if a string is present in a slice.
func contains(slice []string, str string) bool {
	for _, v := range slice {
		if v == str {
			return true
		}
	}
	return false
}
