package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"loan-underwriting-engine/internal/utils"
)

// maxBatchErrors caps the error list returned to callers.
const maxBatchErrors = 10

// BatchItem is the outcome of one CSV row.
type BatchItem struct {
	Line             int      `json:"line"`
	Reference        string   `json:"application_id,omitempty"`
	EvaluationID     string   `json:"evaluation_id,omitempty"`
	Status           string   `json:"status"`
	Approved         bool     `json:"approved"`
	RejectionReasons []string `json:"rejection_reasons,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// BatchResult summarizes a processed CSV file.
type BatchResult struct {
	Message   string      `json:"message"`
	BatchID   string      `json:"batch_id"`
	Evaluated int         `json:"evaluated"`
	Approved  int         `json:"approved"`
	Rejected  int         `json:"rejected"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
	Errors    []string    `json:"errors,omitempty"`
}

// EvaluateBatch parses CSV content and evaluates every valid row. Rows that
// cannot be parsed or evaluated are counted as failed.
func (h *EvaluateHandler) EvaluateBatch(ctx context.Context, batchID, content string) *BatchResult {
	apps, parseErrors := utils.NewCSVParser().ParseApplications(content)

	result := &BatchResult{BatchID: batchID, Items: []BatchItem{}}
	var allErrors []string
	for _, e := range parseErrors {
		allErrors = append(allErrors, e.Error())
		if !isFileError(e) {
			result.Failed++
		}
	}

	for _, app := range apps {
		item := BatchItem{Line: app.Line, Reference: app.Reference}

		ev, err := h.engine.Evaluate(ctx, app.Request)
		if err != nil {
			item.Status = "error"
			item.Error = err.Error()
			result.Failed++
			allErrors = append(allErrors, fmt.Sprintf("line %d: %v", app.Line, err))
			result.Items = append(result.Items, item)
			continue
		}

		h.Record(ctx, app.Request, ev, app.NotifyEmail)

		item.EvaluationID = ev.ID
		item.Status = string(ev.Decision.Status)
		item.Approved = ev.Decision.Approved
		item.RejectionReasons = ev.Decision.RejectionReasons
		result.Evaluated++
		if ev.Decision.Approved {
			result.Approved++
		} else {
			result.Rejected++
		}
		result.Items = append(result.Items, item)
	}

	if len(allErrors) > maxBatchErrors {
		allErrors = allErrors[:maxBatchErrors]
	}
	result.Errors = allErrors

	if result.Evaluated == 0 {
		result.Message = "No valid applications found in CSV"
	} else {
		result.Message = "CSV processed successfully"
	}

	h.logger.Info("Processed application batch",
		zap.String("batch_id", batchID),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("approved", result.Approved),
		zap.Int("failed", result.Failed))

	return result
}

// isFileError reports errors about the file as a whole rather than a row.
func isFileError(err error) bool {
	return errors.Is(err, utils.ErrEmptyCSV) ||
		errors.Is(err, utils.ErrNoDataRows) ||
		errors.Is(err, utils.ErrMissingColumns)
}

// FileStore is the object storage the batch handler reads from and writes to.
type FileStore interface {
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	UploadFile(ctx context.Context, key string, data []byte, contentType string) error
}

// BatchHandler evaluates CSV files uploaded to S3 and writes a result
// document next to them under results/.
type BatchHandler struct {
	evaluate *EvaluateHandler
	files    FileStore
	logger   *zap.Logger
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(evaluate *EvaluateHandler, files FileStore) *BatchHandler {
	return &BatchHandler{evaluate: evaluate, files: files, logger: utils.GetLogger()}
}

// Handle processes S3 events for uploaded CSV files.
func (h *BatchHandler) Handle(ctx context.Context, s3Event events.S3Event) (*BatchResult, error) {
	if len(s3Event.Records) == 0 {
		return &BatchResult{Message: "No records to process", Items: []BatchItem{}}, nil
	}

	record := s3Event.Records[0]
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode S3 key: %w", err)
	}

	h.logger.Info("Processing CSV file",
		zap.String("bucket", record.S3.Bucket.Name),
		zap.String("key", key))

	content, err := h.files.DownloadFile(ctx, key)
	if err != nil {
		h.logger.Error("Failed to download CSV", zap.Error(err))
		return nil, fmt.Errorf("failed to download CSV: %w", err)
	}

	batchID := GenerateBatchID(key, time.Now())
	result := h.evaluate.EvaluateBatch(ctx, batchID, string(content))

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch result: %w", err)
	}
	if err := h.files.UploadFile(ctx, ResultKey(key, batchID), data, "application/json"); err != nil {
		h.logger.Warn("Failed to store batch result", zap.Error(err))
	}

	return result, nil
}

// ResultKey is where the result document for an uploaded file is written.
func ResultKey(key, batchID string) string {
	name := strings.TrimSuffix(path.Base(key), path.Ext(key))
	return "results/" + name + "_" + batchID + ".json"
}

// GenerateBatchID generates a unique batch ID for an upload.
func GenerateBatchID(key string, at time.Time) string {
	hash := sha256.Sum256([]byte(key + at.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(hash[:])[:16]
}
