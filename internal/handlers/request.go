package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"loan-underwriting-engine/internal/models"
)

// ApplicationRequest is the JSON body accepted by the evaluate and
// probability endpoints.
type ApplicationRequest struct {
	models.LoanRequestPayload
	ProductLine string `json:"product_line,omitempty"`
	NotifyEmail string `json:"notify_email,omitempty"`
}

// ParseApplication decodes body and converts it to a LoanRequest for the
// product named in the path, or in the body when the path has none.
func ParseApplication(product, body string) (*ApplicationRequest, *models.LoanRequest, error) {
	var app ApplicationRequest
	if strings.TrimSpace(body) == "" {
		return nil, nil, fmt.Errorf("%w: request body is empty", models.ErrInvalidInput)
	}
	if err := json.Unmarshal([]byte(body), &app); err != nil {
		return nil, nil, fmt.Errorf("%w: malformed JSON: %v", models.ErrInvalidInput, err)
	}

	if product == "" {
		product = app.ProductLine
	}
	req, err := app.ToLoanRequest(models.ParseProductLine(product))
	if err != nil {
		return nil, nil, err
	}
	return &app, req, nil
}
