package underwriting

import (
	"fmt"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/utils"
)

// Aggregate folds verdicts into a Decision. The application is approved iff
// every verdict passed; each failed verdict contributes its message as one
// rejection reason, in evaluation order. Conditions are attached whatever
// the outcome and never affect approval.
func Aggregate(verdicts []models.CriterionVerdict, conditions []string) models.Decision {
	d := models.Decision{
		Approved:           true,
		Status:             models.DecisionStatusApproved,
		RejectionReasons:   []string{},
		ApprovalConditions: []string{},
		CriteriaResults:    make(map[string]bool, len(verdicts)),
		Verdicts:           verdicts,
		RecommendedLenders: []models.LenderOffer{},
	}
	if d.Verdicts == nil {
		d.Verdicts = []models.CriterionVerdict{}
	}

	for _, v := range verdicts {
		d.CriteriaResults[v.Criterion] = v.Passed
		if !v.Passed {
			d.Approved = false
			d.RejectionReasons = append(d.RejectionReasons, v.Message)
		}
	}

	if !d.Approved {
		d.Status = models.DecisionStatusRejected
	}

	d.ApprovalConditions = append(d.ApprovalConditions, conditions...)
	return d
}

// approvalConditions lists the soft conditions triggered by a request, in
// fixed order: insurance, income verification, co-signer, rate markup.
func approvalConditions(e *evaluation) []string {
	var out []string

	if e.req.ProductLine.IsSecured() {
		if limit := e.th.Value(standards.KeyLTVInsurance); e.ltv > limit {
			out = append(out, fmt.Sprintf("Mortgage insurance required: LTV %s%% is above %s%%",
				utils.FormatPercent(e.ltv), utils.FormatPercent(limit)))
		}
	}

	if limit := e.th.Value(standards.KeyDTIVerification); e.dti > limit {
		out = append(out, fmt.Sprintf("Additional income verification required: debt-to-income ratio %s%% is above %s%%",
			utils.FormatPercent(e.dti), utils.FormatPercent(limit)))
	}

	if limit := e.th.Value(standards.KeyAgeCosigner); float64(e.req.AgeAtMaturity()) > limit {
		out = append(out, fmt.Sprintf("Co-signer required: age at loan maturity %d is above %s",
			e.req.AgeAtMaturity(), utils.FormatNumber(limit)))
	}

	if limit := e.th.Value(standards.KeyCreditMarkup); float64(e.req.CreditScore) < limit {
		out = append(out, fmt.Sprintf("Interest rate markup applies: credit score %d is below %s",
			e.req.CreditScore, utils.FormatNumber(limit)))
	}

	return out
}
