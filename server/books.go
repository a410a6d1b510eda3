package server

import (
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/dupes"
	"github.com/msbooks/bookshelf/normalize"
	"github.com/msbooks/bookshelf/search"
	"github.com/msbooks/bookshelf/session"
	"github.com/msbooks/bookshelf/transfer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const notesPreviewLength = 220

type bookView struct {
	catalog.Record
	IsNew       bool
	IsDuplicate bool
}

type suggestionView struct {
	search.Result
	TitleHTML string
	NotesHTML string
}

// abortWithStoreError maps catalog validation errors to client errors
func abortWithStoreError(c *gin.Context, err error) {
	switch cause := errors.Cause(err); {
	case cause == catalog.ErrEmptyTitle:
		abortWithClientError(c, http.StatusBadRequest, err)
	case cause == catalog.ErrDuplicateTitle:
		abortWithClientError(c, http.StatusConflict, err)
	case cause == catalog.ErrNotFound:
		abortWithClientError(c, http.StatusNotFound, err)
	default:
		abortWithClientError(c, http.StatusInternalServerError, err)
	}
}

func queryInt(c *gin.Context, name string, defaultValue int) (int, error) {
	value := c.Query(name)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Errorf("Invalid %s: %q", name, value)
	}
	return i, nil
}

func listBooks(store catalog.Store, marks *session.Marks, pageLimit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := catalog.ParseOrder(c.Query("sort"))
		if err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}
		page, err := queryInt(c, "page", 1)
		if err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}
		limit, err := queryInt(c, "limit", pageLimit)
		if err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}
		if limit <= 0 || (pageLimit > 0 && limit > pageLimit) {
			limit = pageLimit
		}

		records, err := store.All()
		if err != nil {
			abortWithClientError(c, http.StatusInternalServerError, err)
			return
		}
		filtered := search.Filter(c.Query("q"), records)
		view := catalog.Paginate(catalog.Sort(filtered, order), page, limit)
		duplicates := dupes.Detect(view, records)
		marked := marks.Set(getSessionID(c))

		books := make([]bookView, 0, len(view))
		for _, r := range view {
			books = append(books, bookView{
				Record:      r,
				IsNew:       marked[r.ID],
				IsDuplicate: duplicates.Has(r.ID),
			})
		}
		c.JSON(http.StatusOK, map[string]interface{}{
			"Books": books,
			"Total": len(filtered),
			"All":   len(records),
			"Page":  page,
			"Limit": limit,
		})
	}
}

func getSuggestions(store catalog.Store, suggestionLimit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := queryInt(c, "limit", suggestionLimit)
		if err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}
		records, err := store.All()
		if err != nil {
			abortWithClientError(c, http.StatusInternalServerError, err)
			return
		}
		query := c.Query("q")
		tokens := normalize.Tokenize(query)
		results := search.Suggest(query, records, limit)
		suggestions := make([]suggestionView, 0, len(results))
		for _, result := range results {
			suggestions = append(suggestions, suggestionView{
				Result:    result,
				TitleHTML: search.Highlight(result.Title, tokens),
				NotesHTML: search.Highlight(search.Truncate(result.Notes, notesPreviewLength), tokens),
			})
		}
		c.JSON(http.StatusOK, map[string]interface{}{
			"Suggestions": suggestions,
		})
	}
}

type bookInput struct {
	Title   string `json:"title"`
	Notes   string `json:"notes"`
	FileURL string `json:"file_url"`
}

func addBook(store catalog.Store, marks *session.Marks, dataset *transfer.Dataset) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input bookInput
		if err := c.BindJSON(&input); err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}
		record, err := store.Add(catalog.New(input.Title, input.Notes, input.FileURL))
		if err != nil {
			abortWithStoreError(c, err)
			return
		}
		marks.Mark(getSessionID(c), record.ID)
		saveDataset(dataset)
		logger(c).Info("Added book", zap.Int("id", record.ID))
		c.JSON(http.StatusCreated, map[string]interface{}{
			"Book": record,
		})
	}
}

func updateBook(store catalog.Store, dataset *transfer.Dataset) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			abortWithClientError(c, http.StatusBadRequest, errors.Errorf("Invalid book ID: %q", c.Param("id")))
			return
		}
		var patch catalog.Patch
		if err := c.BindJSON(&patch); err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}
		record, err := store.Update(id, patch)
		if err != nil {
			abortWithStoreError(c, err)
			return
		}
		if !patch.Empty() {
			saveDataset(dataset)
		}
		c.JSON(http.StatusOK, map[string]interface{}{
			"Book": record,
		})
	}
}

func removeBooks(store catalog.Store, marks *session.Marks, dataset *transfer.Dataset) gin.HandlerFunc {
	return func(c *gin.Context) {
		values := c.QueryArray("id")
		if len(values) == 0 {
			abortWithClientError(c, http.StatusBadRequest, errors.New("At least one book ID is required"))
			return
		}
		ids := make([]int, 0, len(values))
		for _, value := range values {
			id, err := strconv.Atoi(value)
			if err != nil {
				abortWithClientError(c, http.StatusBadRequest, errors.Errorf("Invalid book ID: %q", value))
				return
			}
			ids = append(ids, id)
		}
		if err := store.Remove(ids...); err != nil {
			abortWithClientError(c, http.StatusInternalServerError, err)
			return
		}
		marks.Unmark(getSessionID(c), ids...)
		saveDataset(dataset)
		logger(c).Info("Removed books", zap.Ints("ids", ids))
		c.JSON(http.StatusOK, map[string]interface{}{
			"IDs": ids,
		})
	}
}

func bulkAddBooks(store catalog.Store, marks *session.Marks, dataset *transfer.Dataset) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := ioutil.ReadAll(c.Request.Body)
		if err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}
		report, err := catalog.BulkAdd(store, string(body))
		if err != nil {
			logger(c).Warn("Bulk add had failures", zap.Error(err))
		}
		if report.Added > 0 {
			marks.Mark(getSessionID(c), report.IDs...)
			saveDataset(dataset)
		}
		c.JSON(http.StatusOK, report)
	}
}

func getDuplicates(store catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := store.All()
		if err != nil {
			abortWithClientError(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, map[string]interface{}{
			"IDs": dupes.Detect(records, records).IDs(),
		})
	}
}

func getTitleSuggestion(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"Title": catalog.CleanTitle(c.Query("name")),
	})
}
