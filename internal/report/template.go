package report

// DashboardTemplate is the HTML template for the dashboard page,
// embedded as a Go constant so the binary ships without asset files.
const DashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #fdfdfd;
    --text: #17233b;
    --muted: #64748b;
    --border: #dde3ea;
    --accent: #1565c0;
    --green: #2e7d32;
    --red: #c62828;
    --orange: #e65100;
    --section-bg: #f4f7fa;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.55;
    max-width: 980px;
    margin: 0 auto;
    padding: 20px 24px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.15rem; margin: 24px 0 8px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  p { margin: 6px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }
  a { color: var(--accent); }

  /* Header */
  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-end;
    border-bottom: 2px solid var(--accent);
    padding-bottom: 10px;
    margin-bottom: 18px;
  }
  .header-left h1 { color: var(--accent); }
  .header-right { text-align: right; }

  /* Selection form */
  .selection {
    background: var(--section-bg);
    padding: 14px 16px;
    border-radius: 6px;
    margin-bottom: 18px;
  }
  .country-grid {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(160px, 1fr));
    gap: 4px 12px;
    margin: 8px 0 12px;
  }
  .country-grid label { font-size: 0.9rem; cursor: pointer; }
  .year-row { display: flex; align-items: center; gap: 10px; flex-wrap: wrap; }
  .year-row input[type="number"] {
    width: 90px;
    padding: 4px 6px;
    border: 1px solid var(--border);
    border-radius: 4px;
  }
  .year-row button {
    background: var(--accent);
    color: white;
    border: none;
    border-radius: 4px;
    padding: 6px 18px;
    font-size: 0.9rem;
    cursor: pointer;
  }

  /* Notices */
  .notice {
    padding: 8px 12px;
    border-radius: 6px;
    margin: 6px 0;
    font-size: 0.9rem;
  }
  .notice.warning { background: #fff7ed; border-left: 4px solid var(--orange); }
  .notice.error { background: #fef2f2; border-left: 4px solid var(--red); }

  /* Panels */
  .panel { margin: 20px 0; }
  .chart-container { margin: 10px 0; overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }
  details { margin: 8px 0; }
  details summary { cursor: pointer; color: var(--muted); font-size: 0.85rem; }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.85rem; }
  th { background: var(--section-bg); text-align: right; padding: 6px 8px; font-weight: 600; }
  th:first-child, td:first-child { text-align: left; }
  td { padding: 6px 8px; border-bottom: 1px solid var(--border); text-align: right; }
  .surplus { color: var(--green); }
  .deficit { color: var(--red); }

  /* Headlines */
  .headlines {
    background: var(--section-bg);
    padding: 12px 14px;
    border-radius: 6px;
    margin-top: 26px;
  }
  .headlines li { margin: 6px 0 6px 18px; font-size: 0.9rem; }

  /* Footer */
  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }

  @media print {
    body { max-width: 100%; padding: 10px; }
    .panel { page-break-inside: avoid; }
    .selection { display: none; }
  }
</style>
</head>
<body>

<!-- ═══════ HEADER ═══════ -->
<div class="header">
  <div class="header-left">
    <h1>MacroVista</h1>
    <p class="muted">Macroeconomic country comparison · {{.Source}}</p>
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
  </div>
</div>

<!-- ═══════ SELECTION ═══════ -->
<form class="selection" method="get" action="/">
  <p class="muted">Countries</p>
  <div class="country-grid">
    {{range .Countries}}
    <label><input type="checkbox" name="countries" value="{{.Code}}"{{if .Selected}} checked{{end}}> {{.Name}}</label>
    {{end}}
  </div>
  <div class="year-row">
    <label>From <input type="number" name="from" min="{{.MinYear}}" max="{{.MaxYear}}" value="{{.StartYear}}"></label>
    <label>To <input type="number" name="to" min="{{.MinYear}}" max="{{.MaxYear}}" value="{{.EndYear}}"></label>
    <button type="submit">Update</button>
  </div>
</form>

{{range .Notices}}
<div class="notice {{.Kind}}">{{.Message}}</div>
{{end}}

<!-- ═══════ PANELS ═══════ -->
{{range .Panels}}
<div class="panel" id="{{.Slug}}">
  <h2>{{.Number}}. {{.Title}}</h2>
  {{range .Notices}}
  <div class="notice {{.Kind}}">{{.Message}}</div>
  {{end}}
  {{if .HasData}}
  <div class="chart-container">{{.Chart}}</div>
  {{if .Trade}}
  <details>
    <summary>Data table</summary>
    <table>
      <thead><tr><th>Country</th><th>Exports</th><th>Imports</th><th>Balance</th></tr></thead>
      <tbody>
      {{range .TradeRows}}
      <tr>
        <td>{{.Country}}</td>
        <td>{{.Exports}}</td>
        <td>{{.Imports}}</td>
        <td class="{{if .Deficit}}deficit{{else}}surplus{{end}}">{{.Balance}}</td>
      </tr>
      {{end}}
      </tbody>
    </table>
  </details>
  {{else}}{{if .Pivot}}
  <details>
    <summary>Data table ({{.Unit}})</summary>
    <table>
      <thead><tr><th>Year</th>{{range .Pivot.Countries}}<th>{{.}}</th>{{end}}</tr></thead>
      <tbody>
      {{range .Pivot.Rows}}
      <tr><td>{{.Year}}</td>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
      {{end}}
      </tbody>
    </table>
  </details>
  {{end}}{{end}}
  {{end}}
</div>
{{end}}

<!-- ═══════ HEADLINES ═══════ -->
{{if .Headlines}}
<div class="headlines">
  <h2>Latest from the IMF</h2>
  <ul>
    {{range .Headlines}}
    <li><a href="{{.URL}}">{{.Title}}</a> <span class="muted">{{.Source}}{{if .Published}} · {{.Published}}{{end}}</span></li>
    {{end}}
  </ul>
</div>
{{end}}

<!-- ═══════ FOOTER ═══════ -->
<div class="footer">
  <p>Data: <a href="{{.SourceURL}}">{{.Source}}</a> · Generated {{.GeneratedAt}}</p>
  <p>Upstream figures may lag reality by up to 6 months depending on the indicator.</p>
</div>

</body>
</html>`
