package http

import (
	"html/template"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/ui"
)

type pageData struct {
	DefaultCity string
	Update      ui.Update
}

// The page renders the current snapshot server-side, then polls /state while a lookup is
// in flight. While an alert is open the form is disabled until it is dismissed.
var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Weather App</title>
<style>
body { font-family: sans-serif; max-width: 28rem; margin: 2rem auto; }
#city { font-size: 1.6rem; font-weight: bold; }
#temperature { font-size: 2.4rem; }
#status { color: #666; font-size: 0.85rem; border-top: 1px solid #ccc; padding-top: 0.5rem; }
#alert { border: 2px solid #b00; padding: 1rem; margin: 1rem 0; }
#alert[hidden] { display: none; }
</style>
</head>
<body>
<form id="lookup">
  <input name="city" id="input" value="{{.DefaultCity}}" placeholder="{{.DefaultCity}}">
  <button type="submit" id="trigger">Get Weather</button>
</form>
<div id="alert" role="alertdialog" hidden>
  <strong id="alert-title"></strong>
  <p id="alert-message"></p>
  <button id="dismiss">OK</button>
</div>
<div id="city">{{.Update.View.City}}</div>
<div id="temperature">{{.Update.View.Temperature}}</div>
<div id="condition">{{.Update.View.Condition}}</div>
<div id="details">{{.Update.View.Details}}</div>
<div id="status">{{.Update.View.Status}}</div>
<script>
const $ = (id) => document.getElementById(id);

function render(u) {
  for (const k of ["city", "temperature", "condition", "details", "status"]) {
    $(k).textContent = u.view[k];
  }
  const open = !!u.alert;
  $("alert").hidden = !open;
  $("input").disabled = open;
  $("trigger").disabled = open || u.state === "fetching";
  if (open) {
    $("alert-title").textContent = u.alert.title;
    $("alert-message").textContent = u.alert.message;
  }
  if (u.state === "fetching") {
    setTimeout(poll, 300);
  }
}

async function poll() {
  const resp = await fetch("/state");
  render(await resp.json());
}

$("lookup").addEventListener("submit", async (e) => {
  e.preventDefault();
  const resp = await fetch("/lookup", {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify({ city: $("input").value }),
  });
  if (resp.ok) {
    render(await resp.json());
  } else {
    poll();
  }
});

$("dismiss").addEventListener("click", async () => {
  await fetch("/dismiss", { method: "POST" });
  poll();
});

render({{.Update}});
</script>
</body>
</html>
`))
