package report

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

var emailTmpl = template.Must(template.New("monthly-report").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"pct":   func(p float64) string { return fmt.Sprintf("%.1f%%", p) },
}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Budget report for {{.Month}}</h2>
  <table cellpadding="6" cellspacing="0" border="0">
    <tr><td>Total income</td><td align="right"><b>{{money .TotalIncome}}</b></td></tr>
    <tr><td>Total spent</td><td align="right"><b>{{money .TotalSpent}}</b></td></tr>
    <tr><td>Total budget</td><td align="right">{{money .TotalBudget}}</td></tr>
    <tr><td>Remaining balance</td><td align="right"><b>{{money .RemainingBalance}}</b></td></tr>
  </table>

  <h3>Categories</h3>
  <table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse;">
    <tr><th>Category</th><th>Budget</th><th>Spent</th><th>Remaining</th><th>Used</th></tr>
    {{range .Categories}}
    <tr>
      <td>{{.Icon}} {{.Name}}</td>
      <td align="right">{{money .Budget}}</td>
      <td align="right">{{money .Spent}}</td>
      <td align="right">{{money .Remaining}}</td>
      <td align="right">{{pct .UsedPercent}}</td>
    </tr>
    {{end}}
  </table>

  {{if .TopExpenses}}
  <h3>Largest expenses</h3>
  <ol>
    {{range .TopExpenses}}
    <li>{{money .Amount}} {{.Description}} ({{.Category}})</li>
    {{end}}
  </ol>
  {{end}}

  <p>{{.ExpenseCount}} expenses and {{.IncomeCount}} income entries this month.</p>
</body>
</html>
`))

// Subject returns the email subject line for a report.
func Subject(r MonthlyReport) string {
	return fmt.Sprintf("Budget report %s: spent %s of %s income", r.Month, r.TotalSpent.StringFixed(2), r.TotalIncome.StringFixed(2))
}

// RenderEmail renders the HTML email body for a report.
func RenderEmail(r MonthlyReport) (string, error) {
	var buf strings.Builder
	if err := emailTmpl.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render report email: %w", err)
	}
	return buf.String(), nil
}
