package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// VoucherData feeds the fee voucher template.
type VoucherData struct {
	VoucherNo   string
	StudentName string
	ClassName   string
	Section     string
	Items       []VoucherItem
	TotalCents  int64
	DueDate     time.Time
}

// VoucherItem is one printed charge line.
type VoucherItem struct {
	Description string
	AmountCents int64
}

// PayslipData feeds the payslip template.
type PayslipData struct {
	TeacherName    string
	EmployeeNo     string
	Year           int
	Month          time.Month
	WorkingDays    int
	BaseCents      int64
	AllowanceCents int64
	BonusCents     int64
	AbsentDays     int
	DeductionCents int64
	NetCents       int64
}

var templateFuncs = template.FuncMap{
	"money": func(cents int64) string {
		return fmt.Sprintf("%d.%02d", cents/100, cents%100)
	},
	"date": func(t time.Time) string {
		return t.Format("2 January 2006")
	},
}

var voucherTemplate = template.Must(template.New("voucher").Funcs(templateFuncs).Parse(`<html>
<head><title>Fee Voucher {{.VoucherNo}}</title></head>
<body>
<h1>Fee Voucher {{.VoucherNo}}</h1>
<p>{{.StudentName}} &mdash; class {{.ClassName}}{{if .Section}}, section {{.Section}}{{end}}</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Description</th><th>Amount</th></tr>
{{range .Items}}<tr><td>{{.Description}}</td><td>{{money .AmountCents}}</td></tr>
{{end}}<tr><th>Total</th><th>{{money .TotalCents}}</th></tr>
</table>
<p>Due by {{date .DueDate}}.</p>
</body>
</html>`))

var payslipTemplate = template.Must(template.New("payslip").Funcs(templateFuncs).Parse(`<html>
<head><title>Payslip {{.Month}} {{.Year}}</title></head>
<body>
<h1>Payslip &mdash; {{.Month}} {{.Year}}</h1>
<p>{{.TeacherName}} ({{.EmployeeNo}})</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><td>Base salary</td><td>{{money .BaseCents}}</td></tr>
<tr><td>Allowances</td><td>{{money .AllowanceCents}}</td></tr>
<tr><td>Bonus</td><td>{{money .BonusCents}}</td></tr>
<tr><td>Deduction ({{.AbsentDays}} of {{.WorkingDays}} days unapproved absence)</td><td>-{{money .DeductionCents}}</td></tr>
<tr><th>Net pay</th><th>{{money .NetCents}}</th></tr>
</table>
</body>
</html>`))

// VoucherHTML renders the voucher document body.
func VoucherHTML(data VoucherData) (string, error) {
	var buf bytes.Buffer
	if err := voucherTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PayslipHTML renders the payslip document body.
func PayslipHTML(data PayslipData) (string, error) {
	var buf bytes.Buffer
	if err := payslipTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
