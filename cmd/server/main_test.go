package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loan-underwriting-engine/internal/handlers"
	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/services/database"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/underwriting"
	"loan-underwriting-engine/internal/utils"
)

const creditBody = `{"amount": 200000, "rate": 9.0, "years": 5, "monthly_income": 6500, "existing_debts": 1000, "age": 30}`

type memoryRecords struct {
	records map[string]*models.EvaluationRecord
}

func (m *memoryRecords) Save(_ context.Context, req *models.LoanRequest, ev *models.Evaluation) error {
	record, err := models.NewEvaluationRecord(req, ev)
	if err != nil {
		return err
	}
	m.records[ev.ID] = record
	return nil
}

func (m *memoryRecords) GetByID(_ context.Context, id string) (*models.EvaluationRecord, error) {
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, database.ErrEvaluationNotFound
}

func newTestServer(t *testing.T) (*httptest.Server, *memoryRecords) {
	t.Helper()
	utils.SetLogger(zap.NewNop())

	source := &standards.SnapshotSource{Snapshot: &standards.Snapshot{
		Banks: map[string]map[models.ProductLine]standards.Grouped{
			"acme": {models.ProductLineCredit: {"dti": {"max": 60}}},
		},
	}}
	engine := underwriting.NewEngine(
		standards.NewResolver(source, standards.WithLogger(zap.NewNop())),
		underwriting.WithLogger(zap.NewNop()),
		underwriting.WithIDGenerator(func() string { return "eval-1" }),
	)

	records := &memoryRecords{records: map[string]*models.EvaluationRecord{}}
	s := &Server{
		engine:   engine,
		evaluate: handlers.NewEvaluateHandler(engine, handlers.WithStore(records)),
		health:   handlers.NewHealthHandler(nil, "test", "snapshot"),
		records:  records,
		logger:   zap.NewNop(),
	}

	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts, records
}

func decode(t *testing.T, resp *http.Response) Response {
	t.Helper()
	defer resp.Body.Close()
	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.True(t, body.Success)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "not configured", data["database"])
}

func TestEvaluateAndFetch(t *testing.T) {
	ts, records := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/evaluate/credit", "application/json", strings.NewReader(creditBody))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, "rejected", body.Message)
	require.Contains(t, records.records, "eval-1")

	resp, err = http.Get(ts.URL + "/api/evaluations/eval-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := decode(t, resp).Data.(map[string]interface{})
	assert.Equal(t, "credit", data["product_line"])
	assert.Equal(t, false, data["approved"])

	resp, err = http.Get(ts.URL + "/api/evaluations/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestEvaluate_InvalidInput(t *testing.T) {
	ts, records := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/evaluate/credit", "application/json", strings.NewReader(`{"amount": 1000}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "missing required field")
	assert.Empty(t, records.records)
}

func TestProbability(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/probability/credit", "application/json", strings.NewReader(creditBody))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decode(t, resp).Data.(map[string]interface{})
	assert.Equal(t, 52.0, data["approval_probability"])
	assert.Equal(t, "fair", data["category"])
}

func TestStandards(t *testing.T) {
	ts, _ := newTestServer(t)

	fetch := func(path string) (StandardsResponse, map[string]float64) {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		raw, _ := json.Marshal(decode(t, resp).Data)
		var out StandardsResponse
		require.NoError(t, json.Unmarshal(raw, &out))

		values := make(map[string]float64)
		for _, e := range out.Standards {
			values[e.Category+"."+e.Name] = e.Value
		}
		return out, values
	}

	out, values := fetch("/api/standards/credit")
	assert.Equal(t, standards.Defaults(models.ProductLineCredit)[standards.KeyDTIMax], values["dti.max"])
	assert.Equal(t, models.ProductLineCredit, out.ProductLine)
	assert.Empty(t, out.BankID)

	out, _ = fetch("/api/standards/Credit_Refinance?bank_id=acme")
	assert.Equal(t, models.ProductLineCreditRefinance, out.ProductLine)
	assert.Equal(t, "acme", out.BankID)

	_, values = fetch("/api/standards/credit?bank_id=acme")
	assert.Equal(t, 60.0, values["dti.max"])

	resp, err := http.Get(ts.URL + "/api/standards/boat")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestProducts(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/products")
	require.NoError(t, err)

	raw, _ := json.Marshal(decode(t, resp).Data)
	var products []ProductInfo
	require.NoError(t, json.Unmarshal(raw, &products))
	require.Len(t, products, 4)
	assert.True(t, products[0].Secured)
	assert.Contains(t, products[0].Criteria, models.CriterionLTV)
}

func TestUpload(t *testing.T) {
	ts, records := newTestServer(t)

	upload := func(filename, content string) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(content))
		require.NoError(t, mw.Close())

		resp, err := http.Post(ts.URL+"/api/upload", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		return resp
	}

	csv := "product_line,amount,rate,years,monthly_income,age,existing_debts\ncredit,200000,9,5,6500,30,1000\n"
	resp := upload("apps.csv", csv)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, _ := json.Marshal(decode(t, resp).Data)
	var result handlers.BatchResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, 1, result.Evaluated)
	assert.Equal(t, 1, result.Rejected)
	assert.Len(t, records.records, 1)

	resp = upload("apps.txt", csv)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	t.Run("structure is checked before evaluating", func(t *testing.T) {
		resp := upload("partial.csv", "product_line,amount,rate\ncredit,200000,9\n")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decode(t, resp)
		assert.Equal(t, "Invalid CSV structure", body.Error)
		raw, _ := json.Marshal(body.Data)
		var check utils.CSVValidationResult
		require.NoError(t, json.Unmarshal(raw, &check))
		assert.ElementsMatch(t, []string{"years", "monthly_income", "age"}, check.MissingColumns)
		assert.Len(t, records.records, 1, "nothing is evaluated")
	})
}

func TestEvaluationHistoryWithoutDatabase(t *testing.T) {
	s := &Server{logger: zap.NewNop()}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/evaluations/x", nil)
	s.routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWriteEngineError(t *testing.T) {
	s := &Server{logger: zap.NewNop()}

	rec := httptest.NewRecorder()
	s.writeEngineError(rec, errors.New("pool closed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pool closed")

	rec = httptest.NewRecorder()
	s.writeEngineError(rec, models.ErrNonPositiveRate)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
