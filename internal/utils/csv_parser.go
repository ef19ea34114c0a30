package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"loan-underwriting-engine/internal/models"
)

// CSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
)

// RequiredColumns defines the columns that must be present in the CSV.
// Product-specific fields (property_value, current_balance, ...) are checked
// per row when the payload is converted.
var RequiredColumns = []string{
	"product_line",
	"amount",
	"rate",
	"years",
	"monthly_income",
	"age",
}

// ColumnAliases maps alternative column names to standard names.
var ColumnAliases = map[string]string{
	"id":              "application_id",
	"reference":       "application_id",
	"application":     "application_id",
	"product":         "product_line",
	"loan_type":       "product_line",
	"type":            "product_line",
	"loan_amount":     "amount",
	"principal":       "amount",
	"interest_rate":   "rate",
	"apr":             "rate",
	"term":            "years",
	"term_years":      "years",
	"income":          "monthly_income",
	"monthly income":  "monthly_income",
	"salary":          "monthly_income",
	"annual_income":   "monthly_income", // Will divide by 12
	"annual income":   "monthly_income",
	"expenses":        "monthly_expenses",
	"debts":           "existing_debts",
	"debt":            "existing_debts",
	"creditscore":     "credit_score",
	"credit score":    "credit_score",
	"score":           "credit_score",
	"employment":      "employment_years",
	"years_employed":  "employment_years",
	"property":        "property_value",
	"home_value":      "property_value",
	"down_payment":    "initial_payment",
	"deposit":         "initial_payment",
	"bank":            "bank_id",
	"email":           "notify_email",
	"balance":         "current_balance",
	"current_payment": "current_monthly_payment",
}

// Application is one parsed CSV row.
type Application struct {
	Line        int                 `json:"line"`
	Reference   string              `json:"application_id,omitempty"`
	NotifyEmail string              `json:"notify_email,omitempty"`
	Request     *models.LoanRequest `json:"request"`
}

// CSVParser handles parsing of loan application CSV files.
type CSVParser struct {
	columnMapping   map[string]int
	originalHeaders map[string]string // Maps normalized column name to original header
}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{
		columnMapping:   make(map[string]int),
		originalHeaders: make(map[string]string),
	}
}

// ParseApplications parses CSV content into validated loan requests. Rows
// that fail to parse or validate are reported with their line number and
// skipped.
func (p *CSVParser) ParseApplications(content string) ([]*Application, []error) {
	if strings.TrimSpace(content) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	if err := p.buildColumnMapping(header); err != nil {
		return nil, []error{err}
	}

	var apps []*Application
	var parseErrors []error
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		app, err := p.parseRow(record)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}
		app.Line = lineNum
		apps = append(apps, app)
	}

	if len(apps) == 0 && len(parseErrors) > 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return apps, parseErrors
}

// buildColumnMapping creates a mapping of standard column names to their indices.
func (p *CSVParser) buildColumnMapping(header []string) error {
	p.columnMapping = make(map[string]int)
	p.originalHeaders = make(map[string]string)

	for i, col := range header {
		normalized := normalizeColumn(col)
		original := strings.ToLower(strings.TrimSpace(col))

		p.columnMapping[normalized] = i
		p.originalHeaders[normalized] = original
	}

	if missing := missingColumns(p.columnMapping); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

func normalizeColumn(col string) string {
	normalized := strings.ToLower(strings.TrimSpace(col))
	if alias, ok := ColumnAliases[normalized]; ok {
		return alias
	}
	return normalized
}

func missingColumns[T any](present map[string]T) []string {
	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := present[required]; !ok {
			missing = append(missing, required)
		}
	}
	return missing
}

// parseRow converts one record into an Application through the same
// payload path the HTTP API uses.
func (p *CSVParser) parseRow(record []string) (*Application, error) {
	value := func(column string) string {
		idx, ok := p.columnMapping[column]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rowErr error
	optFloat := func(column string) *float64 {
		raw := value(column)
		if raw == "" || rowErr != nil {
			return nil
		}
		f, err := parseFloat(raw)
		if err != nil {
			rowErr = fmt.Errorf("invalid %s: %w", column, err)
			return nil
		}
		return &f
	}
	optInt := func(column string) *int {
		raw := value(column)
		if raw == "" || rowErr != nil {
			return nil
		}
		n, err := parseInt(raw)
		if err != nil {
			rowErr = fmt.Errorf("invalid %s: %w", column, err)
			return nil
		}
		return &n
	}

	payload := &models.LoanRequestPayload{
		BankID:                value("bank_id"),
		Amount:                optFloat("amount"),
		Rate:                  optFloat("rate"),
		Years:                 optInt("years"),
		InitialPayment:        optFloat("initial_payment"),
		PropertyValue:         optFloat("property_value"),
		MonthlyIncome:         optFloat("monthly_income"),
		MonthlyExpenses:       optFloat("monthly_expenses"),
		Age:                   optInt("age"),
		CreditScore:           optInt("credit_score"),
		EmploymentYears:       optFloat("employment_years"),
		ExistingDebts:         optFloat("existing_debts"),
		CurrentBalance:        optFloat("current_balance"),
		CurrentRate:           optFloat("current_rate"),
		CurrentMonthlyPayment: optFloat("current_monthly_payment"),
		RefinanceType:         value("refinance_type"),
		Purpose:               value("purpose"),
		ClosingCosts:          optFloat("closing_costs"),
	}
	if rowErr != nil {
		return nil, rowErr
	}

	// Annual income columns are converted to monthly.
	if payload.MonthlyIncome != nil && strings.Contains(p.originalHeaders["monthly_income"], "annual") {
		monthly := *payload.MonthlyIncome / 12.0
		payload.MonthlyIncome = &monthly
	}

	product := models.ParseProductLine(value("product_line"))
	req, err := payload.ToLoanRequest(product)
	if err != nil {
		return nil, err
	}

	return &Application{
		Reference:   value("application_id"),
		NotifyEmail: value("notify_email"),
		Request:     req,
	}, nil
}

// parseFloat parses a string to float64, handling common formats.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}

	// Remove commas, currency symbols and percent signs
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)

	return strconv.ParseFloat(s, 64)
}

// parseInt parses a string to int, handling common formats.
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	// Handle float strings (e.g., "750.0")
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return int(f), nil
	}

	return strconv.Atoi(s)
}

// ValidateCSVStructure performs a quick validation of CSV structure without full parsing.
func ValidateCSVStructure(content string) *CSVValidationResult {
	result := &CSVValidationResult{
		Columns:        []string{},
		MissingColumns: []string{},
		Errors:         []string{},
	}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, "empty file")
		return result
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read header: %v", err))
		return result
	}

	present := make(map[string]bool)
	for _, col := range header {
		present[normalizeColumn(col)] = true
		result.Columns = append(result.Columns, col)
	}
	result.MissingColumns = append(result.MissingColumns, missingColumns(present)...)

	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row error: %v", err))
			continue
		}
		result.RowCount++
	}

	result.Valid = len(result.MissingColumns) == 0 && result.RowCount > 0
	return result
}

// CSVValidationResult contains the results of CSV validation.
type CSVValidationResult struct {
	Valid          bool     `json:"valid"`
	RowCount       int      `json:"row_count"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns"`
	Errors         []string `json:"errors"`
}
