package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/tair/insumos/internal/insumos/expiry"
	"github.com/tair/insumos/pkg/logger"
)

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"date":   formatDate,
	"serial": serialText,
	"status": statusLabel,
	"tier": func(t expiry.Tier) string {
		return t.String()
	},
}).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Inventário {{.Report.Branch.Name}}</title>
<style>
@page { size: A4; margin: 14mm; }
body { font-family: Helvetica, Arial, sans-serif; font-size: 11px; color: #222; }
h1 { font-size: 18px; margin: 0 0 4px; }
.meta { color: #555; margin-bottom: 12px; }
table { width: 100%; border-collapse: collapse; }
th, td { border-bottom: 1px solid #ddd; padding: 5px 6px; text-align: left; vertical-align: middle; }
th { background: #f3f3f3; }
td img { max-height: 32px; }
tr.warning td.status { color: #a86b00; font-weight: bold; }
tr.expired td.status { color: #b00020; font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Report.Branch.Name}}</h1>
<div class="meta">CNPJ {{.Report.Branch.ID}}{{with .Report.Branch.Address}} · {{.}}{{end}} · Emitido em {{date .Report.GeneratedOn}}</div>
<table>
<thead><tr>{{if .Images}}<th></th>{{end}}<th>Descrição</th><th>Nº de série</th><th>Local</th><th>Validade</th><th>Situação</th></tr></thead>
<tbody>
{{- range .Report.Rows}}
<tr class="{{tier .SortStatus}}">{{if $.Images}}<td>{{with .Image}}<img src="{{$.ImageURL .}}">{{end}}</td>{{end}}<td>{{.Description}}</td><td>{{serial .SerialNumber}}</td><td>{{.Location}}</td><td>{{date .ExpiryDate}}</td><td class="status">{{status .SortStatus}}</td></tr>
{{- else}}
<tr><td colspan="6">Nenhum item cadastrado.</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

type pageData struct {
	Report  *Report
	Images  bool
	baseURL string
}

func (p pageData) ImageURL(path string) string {
	return p.baseURL + "/" + strings.TrimLeft(path, "/")
}

// RenderHTML writes the printable page of a report. Images are only linked
// when imageBaseURL is set, since the page is loaded from about:blank.
func RenderHTML(w io.Writer, r *Report, imageBaseURL string) error {
	data := pageData{
		Report:  r,
		Images:  imageBaseURL != "",
		baseURL: strings.TrimRight(imageBaseURL, "/"),
	}
	return pageTemplate.Execute(w, data)
}

// PDFRenderer prints the HTML page to PDF with a headless Chrome.
type PDFRenderer struct {
	chromeBin    string
	imageBaseURL string
	timeout      time.Duration
}

// NewPDFRenderer uses the Chrome at chromeBin, or lets the launcher find or
// download one when it is empty.
func NewPDFRenderer(chromeBin, imageBaseURL string, timeout time.Duration) *PDFRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PDFRenderer{chromeBin: chromeBin, imageBaseURL: imageBaseURL, timeout: timeout}
}

func (*PDFRenderer) ContentType() string { return "application/pdf" }

func (*PDFRenderer) Extension() string { return "pdf" }

func (p *PDFRenderer) Render(ctx context.Context, w io.Writer, r *Report) error {
	var page bytes.Buffer
	if err := RenderHTML(&page, r, p.imageBaseURL); err != nil {
		return fmt.Errorf("render report html: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	l := launcher.New().Context(ctx).Headless(true).NoSandbox(true).Leakless(false)
	if p.chromeBin != "" {
		l = l.Bin(p.chromeBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect chrome: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Debug(ctx).Err(err).Msg("Closing report browser failed")
		}
	}()

	tab, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	if err := tab.SetDocumentContent(page.String()); err != nil {
		return fmt.Errorf("load report html: %w", err)
	}
	if err := tab.WaitLoad(); err != nil {
		return fmt.Errorf("wait report html: %w", err)
	}

	stream, err := tab.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return fmt.Errorf("print pdf: %w", err)
	}
	defer stream.Close()

	if _, err := io.Copy(w, stream); err != nil {
		return fmt.Errorf("copy pdf: %w", err)
	}
	return nil
}
