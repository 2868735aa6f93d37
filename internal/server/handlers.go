package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bookingscore/internal/models"
	"bookingscore/internal/normalizer"
	"bookingscore/internal/tabular"
)

// sniffLen is how much of an upload is inspected for its content type.
const sniffLen = 3072

type predictRequest struct {
	Records []map[string]any `json:"records" binding:"required"`
}

type cellResponse struct {
	Field  string `json:"field"`
	Row    int    `json:"row"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

type vocabularyEntry struct {
	Label string `json:"label"`
	Code  int    `json:"code"`
}

type fieldResponse struct {
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	Vocabulary []vocabularyEntry `json:"vocabulary,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	sch := s.processor.Schema()

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"model":          s.processor.Classifier().Name(),
		"schema_version": sch.Version,
	})
}

func (s *Server) schema(c *gin.Context) {
	sch := s.processor.Schema()

	fields := make([]fieldResponse, 0, len(sch.Fields))
	for _, f := range sch.Fields {
		fr := fieldResponse{Name: f.Name, Kind: string(f.Kind)}
		if f.Vocabulary != nil {
			for _, e := range f.Vocabulary.Entries() {
				fr.Vocabulary = append(fr.Vocabulary, vocabularyEntry{Label: e.Label, Code: e.Code})
			}
		}

		fields = append(fields, fr)
	}

	labels := make(map[string]string, len(sch.Labels))
	for code, label := range sch.Labels {
		labels[strconv.Itoa(code)] = label
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        sch.Name,
		"version":     sch.Version,
		"sentinel":    sch.SentinelCode(),
		"fingerprint": sch.Fingerprint(),
		"features":    sch.Features(),
		"required":    sch.Required(),
		"labels":      labels,
		"fields":      fields,
	})
}

func (s *Server) predictRecords(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "too_large", "request body exceeds configured size limit")

			return
		}

		abortWithError(c, http.StatusBadRequest, "invalid_request", err.Error())

		return
	}

	batch := models.NewBatch()

	for i, obj := range req.Records {
		rec, err := tabular.RecordFromJSON(obj)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid_request", fmt.Sprintf("record %d: %v", i, err))

			return
		}

		batch.Append(rec)
	}

	res, ok := s.process(c, batch)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, scoredResponse(res))
}

func (s *Server) predictUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds configured size limit")

			return
		}

		abortWithError(c, http.StatusBadRequest, "invalid_upload", "multipart field \"file\" is required")

		return
	}

	f, err := header.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_upload", err.Error())

		return
	}
	defer f.Close()

	// 1. Sniff the content type before parsing
	r := bufio.NewReaderSize(f, sniffLen)

	head, err := r.Peek(sniffLen)
	if err != nil && len(head) == 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_upload", "uploaded file is empty")

		return
	}

	mime, err := tabular.DetectUpload(head)
	if err != nil {
		abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error())

		return
	}

	// 2. Parse
	batch, err := tabular.ReadDelimited(r, tabular.DelimiterFor(mime))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_upload", err.Error())

		return
	}

	// 3. Score
	res, ok := s.process(c, batch)
	if !ok {
		return
	}

	// 4. Respond
	if strings.EqualFold(c.Query("format"), "json") {
		c.JSON(http.StatusOK, scoredResponse(res))

		return
	}

	var buf bytes.Buffer
	if err := tabular.WriteCSV(&buf, res.Annotated); err != nil {
		s.log.Error("failed to render csv", "error", err)
		abortWithError(c, http.StatusInternalServerError, "internal_error", "failed to render result")

		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", scoredName(header.Filename)))
	c.Header("X-Scoring-Warnings", strconv.Itoa(len(res.Warnings)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// process runs the pipeline and writes the error response on failure.
func (s *Server) process(c *gin.Context, batch *models.Batch) (*normalizer.Result, bool) {
	res, err := s.processor.Process(batch)
	if err == nil {
		return res, true
	}

	var (
		missing *normalizer.MissingFieldsError
		encErr  *normalizer.EncodingError
	)

	switch {
	case errors.As(err, &missing):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "missing_fields",
			"message": err.Error(),
			"fields":  missing.Fields,
		})
	case errors.As(err, &encErr):
		cells := make([]cellResponse, len(encErr.Cells))
		for i, cell := range encErr.Cells {
			cells[i] = cellResponse{Field: cell.Field, Row: cell.Row, Value: cell.Raw, Reason: cell.Kind.Error()}
		}

		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "invalid_cells",
			"message": err.Error(),
			"cells":   cells,
		})
	case errors.Is(err, normalizer.ErrLabelColumnExists):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "label_column_exists",
			"message": err.Error(),
			"column":  s.processor.LabelColumn(),
		})
	default:
		abortWithError(c, http.StatusInternalServerError, "internal_error", "scoring failed")
	}

	return nil, false
}

func scoredResponse(res *normalizer.Result) gin.H {
	warnings := res.Warnings
	if warnings == nil {
		warnings = []normalizer.Warning{}
	}

	return gin.H{
		"columns":  res.Annotated.Columns(),
		"rows":     tabular.JSONRows(res.Annotated),
		"count":    len(res.Predictions),
		"warnings": warnings,
	}
}

func scoredName(upload string) string {
	base := filepath.Base(upload)
	if base == "." || base == string(filepath.Separator) {
		base = "bookings.csv"
	}

	return strings.TrimSuffix(base, filepath.Ext(base)) + "_scored.csv"
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}
