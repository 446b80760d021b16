package web

const pageTemplate = `<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Catalogue de Chaussures - CoinAfrique</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: .3rem .6rem; }
.warning { background: #fff3cd; padding: .5rem; }
</style>
</head>
<body>
<h1>Catalogue de Chaussures - CoinAfrique</h1>

<form method="post" action="/scrape">
  <label>Catégorie
    <select name="category">
    {{- range .Labels}}
      <option value="{{.}}"{{if eq . $.Selected}} selected{{end}}>{{.}}</option>
    {{- end}}
    </select>
  </label>
  <label>Nombre de pages
    <input type="number" name="pages" min="1" max="{{.MaxPages}}" value="{{.Pages}}">
  </label>
  <button type="submit">Scraper</button>
</form>

<p>Données déjà scrapées :
{{- range .Labels}}
  <a href="/data?category={{.}}">{{.}}</a>
{{- end}}
</p>

{{if .Warning}}<p class="warning">{{.Warning}}</p>{{end}}

{{with .Table}}
<h2>{{$.Title}}</h2>
<p><a href="{{$.DownloadHref}}">Télécharger le fichier CSV</a></p>
<table>
  <thead><tr><th>#</th>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
  <tbody>
  {{- range $i, $row := .Rows}}
    <tr><td>{{$i}}</td>{{range $row}}<td>{{.}}</td>{{end}}</tr>
  {{- end}}
  </tbody>
</table>
{{end}}
</body>
</html>
`
