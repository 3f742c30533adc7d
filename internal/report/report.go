package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/testmorph/internal/batch"
)

// Generator renders a batch run as a standalone HTML report.
type Generator struct {
	ProjectName string
}

// NewGenerator creates a Generator for the given project name.
func NewGenerator(projectName string) *Generator {
	return &Generator{ProjectName: projectName}
}

// reportData holds the data passed to the HTML template.
type reportData struct {
	ProjectName string
	GeneratedAt string
	Content     template.HTML
}

// Markdown builds the run report as a markdown document.
func (g *Generator) Markdown(run *batch.RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Conversion report: %s\n\n", g.ProjectName)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Converted | %d |\n", run.FilesConverted)
	fmt.Fprintf(&b, "| Skipped | %d |\n", run.FilesSkipped)
	fmt.Fprintf(&b, "| Failed | %d |\n", run.FilesFailed)
	fmt.Fprintf(&b, "| Duration | %s |\n", run.Duration.Round(time.Millisecond))
	b.WriteString("\n")

	if len(run.Outcomes) > 0 {
		b.WriteString("## Files\n\n")
		b.WriteString("| Input | Output | Strategy | Confidence | Status |\n")
		b.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, o := range run.Outcomes {
			confidence := "-"
			if !o.Skipped && o.Success {
				confidence = fmt.Sprintf("%.2f", o.Confidence)
			}
			strategy := o.Strategy
			if strategy == "" {
				strategy = "-"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				o.InputPath, o.OutputPath, strategy, confidence, statusLabel(o))
		}
		b.WriteString("\n")
	}

	var failed []batch.FileOutcome
	for _, o := range run.Outcomes {
		if !o.Skipped && !o.Success {
			failed = append(failed, o)
		}
	}
	if len(failed) > 0 {
		b.WriteString("## Failures\n\n")
		for _, o := range failed {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", o.InputPath, o.Error)
		}
	}

	wroteHeading := false
	for _, o := range run.Outcomes {
		if o.Skipped || !o.Success || o.Code == "" {
			continue
		}
		if !wroteHeading {
			b.WriteString("## Converted specs\n\n")
			wroteHeading = true
		}
		fmt.Fprintf(&b, "### %s -> %s\n\n", o.InputPath, o.OutputPath)
		fmt.Fprintf(&b, "```typescript\n%s\n```\n\n", strings.TrimRight(o.Code, "\n"))
	}

	return b.String()
}

// WriteHTML renders the run report and writes it as a standalone HTML file.
func (g *Generator) WriteHTML(run *batch.RunResult, outPath string) error {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	var htmlBuf bytes.Buffer
	if err := md.Convert([]byte(g.Markdown(run)), &htmlBuf); err != nil {
		return fmt.Errorf("converting markdown: %w", err)
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	data := reportData{
		ProjectName: g.ProjectName,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		Content:     template.HTML(htmlBuf.String()),
	}
	return tmpl.Execute(f, data)
}

func statusLabel(o batch.FileOutcome) string {
	switch {
	case o.Skipped:
		return "skipped"
	case o.Success:
		return "converted"
	default:
		return "failed"
	}
}
