package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-underwriting-engine/internal/models"
)

func TestCSVParser_ValidFile(t *testing.T) {
	csvContent := `application_id,product_line,amount,rate,years,monthly_income,age,property_value,monthly_expenses,credit_score,employment_years
APP001,mortgage,1000000,4.0,25,30000,35,1500000,2000,760,5
APP002,credit,200000,9.0,5,6500,30,,,,`

	parser := NewCSVParser()
	apps, errs := parser.ParseApplications(csvContent)

	require.Empty(t, errs, "Expected no parse errors")
	require.Len(t, apps, 2)

	assert.Equal(t, "APP001", apps[0].Reference)
	assert.Equal(t, 2, apps[0].Line)
	assert.Equal(t, models.ProductLineMortgage, apps[0].Request.ProductLine)
	assert.Equal(t, 1_500_000.0, apps[0].Request.PropertyValue)
	assert.Equal(t, 760, apps[0].Request.CreditScore)

	assert.Equal(t, models.ProductLineCredit, apps[1].Request.ProductLine)
	assert.Equal(t, models.DefaultCreditScore, apps[1].Request.CreditScore)
	assert.Equal(t, models.DefaultEmploymentYears, apps[1].Request.EmploymentYears)
}

func TestCSVParser_ColumnAliases(t *testing.T) {
	csvContent := `reference,loan_type,loan_amount,interest_rate,term,annual_income,age,score,email
R-1,Credit Refinance,20000,8%,5,"60,000",30,750,a@example.com`

	// Credit refinance needs existing loans, which this file does not carry.
	apps, errs := NewCSVParser().ParseApplications(csvContent)
	assert.Empty(t, apps)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], ErrNoDataRows)
	field, ok := models.IsMissingField(errs[1])
	assert.True(t, ok)
	assert.Equal(t, "existing_loans", field)

	csvContent = `reference,loan_type,loan_amount,interest_rate,term,annual_income,age,score,email,balance,current_payment
R-1,Credit Refinance,20000,8%,5,"60,000",30,750,a@example.com,25000,700`

	apps, errs = NewCSVParser().ParseApplications(csvContent)
	require.Empty(t, errs)
	require.Len(t, apps, 1)

	req := apps[0].Request
	assert.Equal(t, models.ProductLineCreditRefinance, req.ProductLine)
	assert.Equal(t, 8.0, req.Rate)
	assert.Equal(t, 5000.0, req.MonthlyIncome, "annual income is converted to monthly")
	assert.Equal(t, "a@example.com", apps[0].NotifyEmail)
	assert.Equal(t, 25000.0, req.PriorBalance())
}

func TestCSVParser_RowErrors(t *testing.T) {
	csvContent := `product_line,amount,rate,years,monthly_income,age
mortgage,100000,4,25,5000,35
credit,abc,9,5,6500,30
credit,50000,9,0,6500,30
credit,50000,9,5,6500,30`

	apps, errs := NewCSVParser().ParseApplications(csvContent)
	require.Len(t, apps, 1)
	assert.Equal(t, 5, apps[0].Line)
	require.Len(t, errs, 3)

	field, ok := models.IsMissingField(errs[0])
	assert.True(t, ok)
	assert.Equal(t, "property_value", field)
	assert.Contains(t, errs[1].Error(), "line 3: invalid amount")
	assert.True(t, errors.Is(errs[2], models.ErrInvalidTerm))
}

func TestCSVParser_MissingRequiredColumns(t *testing.T) {
	csvContent := `product_line,amount,rate,monthly_income,age
credit,1000,9,6500,30`

	apps, errs := NewCSVParser().ParseApplications(csvContent)
	assert.Empty(t, apps)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMissingColumns)
	assert.Contains(t, errs[0].Error(), "years")
}

func TestCSVParser_EmptyFile(t *testing.T) {
	apps, errs := NewCSVParser().ParseApplications("")
	assert.Empty(t, apps)
	assert.Equal(t, []error{ErrEmptyCSV}, errs)
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	apps, errs := NewCSVParser().ParseApplications(`product_line,amount,rate,years,monthly_income,age`)
	assert.Empty(t, apps)
	assert.Empty(t, errs)
}

func TestValidateCSVStructure(t *testing.T) {
	result := ValidateCSVStructure("product,amount,rate,term,income,age\ncredit,1,2,3,4,5\n")
	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.RowCount)

	result = ValidateCSVStructure("amount,rate\n1,2\n")
	assert.False(t, result.Valid)
	assert.Contains(t, result.MissingColumns, "product_line")

	result = ValidateCSVStructure("   ")
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"empty file"}, result.Errors)
}
