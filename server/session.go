package server

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/session"
)

func getNewBooks(store catalog.Store, marks *session.Marks) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := store.All()
		if err != nil {
			abortWithClientError(c, http.StatusInternalServerError, err)
			return
		}
		marked := marks.Set(getSessionID(c))
		ids := make([]int, 0, len(marked))
		for _, r := range records {
			if marked[r.ID] {
				ids = append(ids, r.ID)
			}
		}
		sort.Ints(ids)
		c.JSON(http.StatusOK, map[string]interface{}{
			"IDs":    ids,
			"Titles": session.Titles(records, marked),
		})
	}
}

func clearNewBooks(marks *session.Marks) gin.HandlerFunc {
	return func(c *gin.Context) {
		marks.Clear(getSessionID(c))
		c.Status(http.StatusNoContent)
	}
}

func getSelectedTitles(store catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var selection struct {
			IDs []int
		}
		if err := c.BindJSON(&selection); err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}
		records, err := store.All()
		if err != nil {
			abortWithClientError(c, http.StatusInternalServerError, err)
			return
		}
		selected := make(map[int]bool, len(selection.IDs))
		for _, id := range selection.IDs {
			selected[id] = true
		}
		c.JSON(http.StatusOK, map[string]interface{}{
			"Titles": session.Titles(records, selected),
		})
	}
}
