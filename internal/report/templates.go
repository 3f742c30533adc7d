package report

// reportTemplate is the Go html/template for the standalone run report.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Conversion report: {{.ProjectName}}</title>
  <style>
:root {
  --bg: #ffffff;
  --text: #212529;
  --text-muted: #868e96;
  --border: #dee2e6;
  --accent: #228be6;
  --code-bg: #f1f3f5;
  --table-stripe: #f8f9fa;
  --ok: #2f9e44;
  --warn: #e8590c;
}

@media (prefers-color-scheme: dark) {
  :root {
    --bg: #1a1b26;
    --text: #c0caf5;
    --text-muted: #565f89;
    --border: #292e42;
    --accent: #7aa2f7;
    --code-bg: #1f2030;
    --table-stripe: #1f2030;
    --ok: #69db7c;
    --warn: #ffa94d;
  }
}

* { box-sizing: border-box; }

body {
  margin: 0 auto;
  padding: 2rem 1.5rem 4rem;
  max-width: 900px;
  background: var(--bg);
  color: var(--text);
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
  line-height: 1.6;
}

h1, h2, h3 { line-height: 1.25; }
h1 { border-bottom: 2px solid var(--border); padding-bottom: 0.4rem; }
h2 { border-bottom: 1px solid var(--border); padding-bottom: 0.3rem; margin-top: 2.5rem; }
h3 { margin-top: 1.8rem; font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 1rem; }

.report-meta { color: var(--text-muted); font-size: 0.9rem; margin-bottom: 2rem; }

table { border-collapse: collapse; width: 100%; margin: 1rem 0; font-size: 0.92rem; }
th, td { border: 1px solid var(--border); padding: 0.45rem 0.7rem; text-align: left; }
th { background: var(--table-stripe); }
tbody tr:nth-child(even) { background: var(--table-stripe); }

code {
  background: var(--code-bg);
  border-radius: 4px;
  padding: 0.15rem 0.35rem;
  font-family: ui-monospace, SFMono-Regular, Menlo, monospace;
  font-size: 0.88em;
}

pre {
  background: var(--code-bg);
  border: 1px solid var(--border);
  border-radius: 6px;
  padding: 1rem;
  overflow-x: auto;
  font-size: 0.85rem;
}

pre code { background: none; padding: 0; }

a { color: var(--accent); }
  </style>
</head>
<body>
  <div class="report-meta">{{.ProjectName}} &middot; generated {{.GeneratedAt}}</div>
  {{.Content}}
</body>
</html>`
