package monitor

import (
	"crypto/subtle"
	"io"
	"net/http"
	"os"
	"strings"

	"auction-harvester/config"

	"github.com/gin-gonic/gin"
)

// maxLogTail is how much of the log file the logs route returns.
const maxLogTail = 64 << 10

func RegisterDashboard(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardPage))
	})
}

// RegisterLogsRoute exposes the tail of the log file when MONITOR_TOKEN is
// set; without a token the route answers 404.
func RegisterLogsRoute(router *gin.Engine) {
	router.GET("/logs", func(c *gin.Context) {
		token := strings.TrimSpace(os.Getenv("MONITOR_TOKEN"))
		if token == "" {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.Query("token")), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		data, err := tailFile(config.LogFilePath(), maxLogTail)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Unable to read log"})
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
	})
}

func tailFile(path string, n int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > n {
		if _, err := f.Seek(-n, io.SeekEnd); err != nil {
			return nil, err
		}
	}
	return io.ReadAll(f)
}

const dashboardPage = `<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>Subastas BOE</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }

    body {
      background: linear-gradient(135deg, #0f0f0f 0%, #1a1a2e 100%);
      color: #e0e0e0;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      min-height: 100vh;
      padding: 20px;
    }

    .container { max-width: 1200px; margin: 0 auto; }

    h1 {
      font-size: 2.2rem;
      font-weight: 700;
      background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
      -webkit-background-clip: text;
      -webkit-text-fill-color: transparent;
      background-clip: text;
      margin-bottom: 2rem;
    }

    .card {
      background: rgba(255, 255, 255, 0.05);
      border: 1px solid rgba(255, 255, 255, 0.1);
      border-radius: 16px;
      padding: 1.5rem;
      margin-bottom: 2rem;
      box-shadow: 0 8px 32px rgba(0, 0, 0, 0.2);
    }

    .card-header {
      display: flex;
      justify-content: space-between;
      align-items: center;
      margin-bottom: 1rem;
    }

    .card-title { font-size: 1.2rem; font-weight: 600; color: #a5b4fc; }

    .stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 1rem; }
    .stat { background: rgba(0, 0, 0, 0.3); border-radius: 12px; padding: 1rem; }
    .stat .label { font-size: 0.8rem; color: #94a3b8; }
    .stat .value { font-size: 1.3rem; font-weight: 600; margin-top: 0.3rem; }

    table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
    th, td { text-align: left; padding: 0.5rem; border-bottom: 1px solid rgba(255, 255, 255, 0.08); }
    th { color: #94a3b8; font-weight: 500; }
    td a { color: #a5b4fc; }
    .ok { color: #4ade80; }
    .err { color: #f87171; }

    button {
      padding: 0.6rem 1.3rem;
      background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
      color: #ffffff;
      border: none;
      border-radius: 8px;
      cursor: pointer;
      font-weight: 600;
    }
    button:disabled { opacity: 0.5; cursor: default; }

    #message { margin-top: 0.8rem; font-size: 0.875rem; color: #cbd5e1; }
  </style>
</head>
<body>
  <div class="container">
    <h1>Subastas BOE</h1>

    <div class="card">
      <div class="card-header">
        <div class="card-title">Estado</div>
        <button onclick="triggerRun()" id="runBtn">Ejecutar ahora</button>
      </div>
      <div class="stats" id="stats"></div>
      <div id="message"></div>
    </div>

    <div class="card">
      <div class="card-header"><div class="card-title">Ejecuciones recientes</div></div>
      <table>
        <thead><tr><th>Fin</th><th>Origen</th><th>Estado</th><th>Nuevas</th><th>Errores</th><th>Páginas</th><th>Duración</th></tr></thead>
        <tbody id="runs"></tbody>
      </table>
    </div>

    <div class="card">
      <div class="card-header"><div class="card-title">Subastas</div><div id="total"></div></div>
      <table>
        <thead><tr><th>Identificador</th><th>Tipo</th><th>Estado</th><th>Conclusión</th><th>Valor</th><th>Localidad</th></tr></thead>
        <tbody id="auctions"></tbody>
      </table>
    </div>
  </div>

  <script>
    const esc = s => String(s ?? '').replace(/[&<>"']/g, c => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c]));
    const fmtDate = s => s ? new Date(s).toLocaleString('es-ES', { timeZone: 'Europe/Madrid' }) : '';
    const fmtEuro = v => v == null ? '' : v.toLocaleString('es-ES', { style: 'currency', currency: 'EUR' });

    function stat(label, value) {
      return '<div class="stat"><div class="label">' + esc(label) + '</div><div class="value">' + esc(value) + '</div></div>';
    }

    function fetchStatus() {
      fetch('/api/v1/harvest/status').then(r => r.json()).then(res => {
        const d = res.data || {};
        const last = d.last_run || {};
        document.getElementById('runBtn').disabled = !!d.running;
        document.getElementById('stats').innerHTML =
          stat('Estado', d.running ? 'En curso (' + d.trigger + ')' : d.state) +
          stat('Próxima ejecución', fmtDate(d.next_run) || 'sin programar') +
          stat('Última ejecución', fmtDate(last.finished_at) || 'nunca') +
          stat('Resultado', last.status || '') +
          stat('Nuevas', last.new_items ?? '') +
          stat('Total encontrado', last.total_found ?? '');
      }).catch(() => {
        document.getElementById('stats').innerHTML = stat('Estado', 'sin conexión');
      });
    }

    function fetchRuns() {
      fetch('/api/v1/runs?limit=10').then(r => r.json()).then(res => {
        document.getElementById('runs').innerHTML = (res.data || []).map(run =>
          '<tr><td>' + esc(fmtDate(run.finished_at)) + '</td><td>' + esc(run.trigger_source) +
          '</td><td class="' + (run.status === 'success' ? 'ok' : 'err') + '" title="' + esc(run.error_message) + '">' + esc(run.status) +
          '</td><td>' + esc(run.new_items) + '</td><td>' + esc(run.errors) + '</td><td>' + esc(run.pages_visited) +
          '</td><td>' + esc(run.duration_seconds.toFixed(1)) + ' s</td></tr>').join('');
      });
    }

    function fetchAuctions() {
      fetch('/api/v1/auctions?limit=50').then(r => r.json()).then(res => {
        document.getElementById('total').textContent = (res.total ?? 0) + ' en total';
        document.getElementById('auctions').innerHTML = (res.data || []).map(a =>
          '<tr><td><a href="' + esc(a.detail_url) + '" target="_blank" rel="noopener">' + esc(a.identity) + '</a></td><td>' +
          esc(a.category) + '</td><td>' + esc(a.status) + '</td><td>' + esc(fmtDate(a.end_date) || a.end_date_raw) +
          '</td><td>' + esc(fmtEuro(a.auction_value)) + '</td><td>' + esc(a.asset ? a.asset.locality : '') + '</td></tr>').join('');
      });
    }

    function triggerRun() {
      const msg = document.getElementById('message');
      fetch('/api/v1/harvest/run', { method: 'POST' }).then(r => r.json()).then(res => {
        msg.textContent = res.success ? 'Ejecución iniciada' : res.error;
        fetchStatus();
      });
    }

    function refresh() { fetchStatus(); fetchRuns(); fetchAuctions(); }
    refresh();
    setInterval(refresh, 10000);
  </script>
</body>
</html>`
