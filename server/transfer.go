package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/consts"
	"github.com/msbooks/bookshelf/session"
	"github.com/msbooks/bookshelf/transfer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func exportCSV(store catalog.Store) gin.HandlerFunc {
	return exportBooks(store, "books.csv", "text/csv; charset=utf-8", transfer.WriteCSV)
}

func exportJSON(store catalog.Store) gin.HandlerFunc {
	return exportBooks(store, "books.json", "application/json; charset=utf-8", transfer.WriteJSON)
}

func exportBooks(store catalog.Store, fileName, contentType string, write func(io.Writer, []catalog.Record) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := store.All()
		if err != nil {
			abortWithClientError(c, http.StatusInternalServerError, err)
			return
		}
		var buf bytes.Buffer
		if err := write(&buf, records); err != nil {
			abortWithClientError(c, http.StatusInternalServerError, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
		c.Data(http.StatusOK, contentType, buf.Bytes())
	}
}

func importFormat(c *gin.Context) (string, error) {
	format := strings.ToLower(c.Query("format"))
	if format == "" {
		format = "json"
		if strings.Contains(c.ContentType(), "csv") {
			format = "csv"
		}
	}
	if format != "json" && format != "csv" {
		return "", errors.Errorf("Unknown import format %q, must be json or csv", format)
	}
	return format, nil
}

func importBooks(store catalog.Store, marks *session.Marks, dataset *transfer.Dataset) gin.HandlerFunc {
	return func(c *gin.Context) {
		format, err := importFormat(c)
		if err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}
		var records []catalog.Record
		switch format {
		case "csv":
			records, err = transfer.ReadCSV(c.Request.Body)
		default:
			records, err = transfer.ReadJSON(c.Request.Body)
		}
		if err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}

		kept, dropped := catalog.Prepare(records)
		if err := store.Replace(kept); err != nil {
			abortWithClientError(c, http.StatusInternalServerError, err)
			return
		}
		marks.ClearAll()
		saveDataset(dataset)
		logger(c).Info("Imported books",
			zap.String("format", format),
			zap.Int("imported", len(kept)),
			zap.Int("dropped", len(dropped)),
		)
		c.JSON(http.StatusOK, map[string]interface{}{
			"Imported": len(kept),
			"Dropped":  len(dropped),
		})
	}
}

func getStatus(store catalog.Store, backend string, dataset *transfer.Dataset) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := store.All()
		if err != nil {
			abortWithClientError(c, http.StatusInternalServerError, err)
			return
		}
		status := map[string]interface{}{
			"Version": consts.Version,
			"Backend": backend,
			"Records": len(records),
		}
		if dataset != nil {
			status["Dataset"] = dataset.Status()
		}
		c.JSON(http.StatusOK, status)
	}
}
