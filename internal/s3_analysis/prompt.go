package s3_analysis

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s4_validation"
)

const promptTemplate = `You are an equity research analyst writing one entry of a daily stock newsletter.
Use only the data below. Do not invent figures.

## {{.Record.Symbol}}
Price: {{printf "%.2f" .Record.Quote.Price}} ({{printf "%+.2f" .Record.Quote.ChangePercent}}%) volume {{.Record.Quote.Volume}} [source: {{.Record.Quote.Source}}]
{{- with .Record.Fundamentals}}
Fundamentals:{{if .CompanyName}} {{.CompanyName}}{{end}}{{if .Sector}} ({{.Sector}}){{end}} P/E {{printf "%.2f" .PE}}, EPS {{printf "%.2f" .EPS}}, market cap {{printf "%.0f" .MarketCap}}
{{- end}}
{{- with .Record.Sentiment}}
Social sentiment: score {{printf "%.2f" .Score}} from {{.Mentions}} mentions
{{- end}}
{{- with .Record.Insider}}
Insider activity: {{.Buys}} buys, {{.Sells}} sells, net {{.NetShares}} shares
{{- end}}
{{- with .Record.Analyst}}
Analyst consensus ({{.Period}}): {{.StrongBuy}} strong buy, {{.Buy}} buy, {{.Hold}} hold, {{.Sell}} sell, {{.StrongSell}} strong sell
{{- end}}
{{- if .Record.News}}
Recent news:
{{- range .Record.News}}
- {{.Headline}}{{if not .PublishedAt.IsZero}} ({{.PublishedAt.Format "2006-01-02"}}){{end}}
{{- end}}
{{- end}}
Data quality: {{.Record.Quality.OverallScore}}/100{{if .Record.Quality.Warnings}} (warnings: {{join .Record.Quality.Warnings "; "}}){{end}}
{{- if .History}}

Recently covered in this newsletter (avoid repeating the same thesis):
{{.History}}
{{- end}}

Respond with a single JSON object and nothing else, with exactly these fields:
{{- range .Fields}}
- {{.}}
{{- end}}

Rules:
- symbol must be "{{.Record.Symbol}}"
- price and volume are positive numbers taken from the data above
- confidence is a number from 0 to 100
- riskLevel is one of: {{join .RiskLevels ", "}}
- sector is one of: {{join .Sectors ", "}}
- targetPrice and stopLoss are positive numbers
- never use "unknown", "N/A" or empty values
`

var tmpl = template.Must(template.New("analysis").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(promptTemplate))

type promptData struct {
	Record     *contracts.AggregatedRecord
	History    string
	Fields     []string
	RiskLevels []string
	Sectors    []string
}

// BuildPrompt renders the analysis prompt for one record
func BuildPrompt(rec *contracts.AggregatedRecord, history string) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, promptData{
		Record:     rec,
		History:    strings.TrimSpace(history),
		Fields:     s4_validation.RequiredFields,
		RiskLevels: s4_validation.RiskLevels,
		Sectors:    s4_validation.Sectors,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// ExtractJSON strips code fences and surrounding prose from a model reply.
// It only locates the JSON text; the validator decides whether it is usable.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "```"); start >= 0 {
		body := text[start+3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
			body = body[nl+1:] // 언어 태그 (```json)
		}
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}

	open := strings.IndexAny(text, "{[")
	if open < 0 {
		return text
	}
	closer := byte('}')
	if text[open] == '[' {
		closer = ']'
	}
	if end := strings.LastIndexByte(text, closer); end > open {
		return text[open : end+1]
	}
	return text[open:]
}
