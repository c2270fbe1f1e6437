package web

// Minimal dashboard: performance table plus live balance/trade feeds.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Trading Bot</title>
  <style>
    body { margin:0; padding:2rem; background:#111; color:#eee; font-family:'Space Mono','JetBrains Mono',monospace; }
    h1 { font-size:1.2rem; letter-spacing:.1em; }
    table { border-collapse:collapse; margin-bottom:2rem; width:100%; }
    th, td { border:1px solid #444; padding:.4rem .8rem; text-align:right; font-size:.85rem; }
    th:first-child, td:first-child { text-align:left; }
    .up { color:#6f6; }
    .down { color:#f66; }
    .feeds { display:grid; grid-template-columns:1fr 1fr; gap:2rem; }
    .feed { border:1px solid #444; padding:1rem; height:320px; overflow-y:auto; font-size:.8rem; }
    .feed h2 { margin-top:0; font-size:.9rem; }
    select { background:#222; color:#eee; border:1px solid #444; padding:.3rem; margin-bottom:1rem; }
    .line { white-space:nowrap; }
  </style>
</head>
<body>
  <h1>TRADING BOT</h1>
  <table id="report">
    <thead><tr><th>pair</th><th>initial</th><th>current</th><th>return %</th><th>buys</th><th>sells</th></tr></thead>
    <tbody></tbody>
  </table>
  <select id="pair"></select>
  <div class="feeds">
    <div class="feed"><h2>BALANCE</h2><div id="balances"></div></div>
    <div class="feed"><h2>TRADES</h2><div id="trades"></div></div>
  </div>
  <script>
    let balanceSrc = null, tradeSrc = null;

    async function loadReport() {
      const res = await fetch('/report');
      const reports = await res.json() || [];
      const tbody = document.querySelector('#report tbody');
      tbody.innerHTML = '';
      const sel = document.getElementById('pair');
      const known = new Set([...sel.options].map(o => o.value));
      for (const r of reports) {
        const ret = parseFloat(r.return_pct);
        const cls = ret >= 0 ? 'up' : 'down';
        tbody.insertAdjacentHTML('beforeend',
          '<tr><td>' + r.pair + '</td><td>' + (+r.initial_value).toFixed(2) +
          '</td><td>' + (+r.current_value).toFixed(2) +
          '</td><td class="' + cls + '">' + ret.toFixed(2) +
          '</td><td>' + r.buys + '</td><td>' + r.sells + '</td></tr>');
        if (!known.has(r.pair)) {
          sel.insertAdjacentHTML('beforeend', '<option value="' + r.pair + '">' + r.pair + '</option>');
          if (sel.options.length === 1) subscribe(r.pair);
        }
      }
    }

    function append(el, text) {
      el.insertAdjacentHTML('afterbegin', '<div class="line">' + text + '</div>');
      while (el.children.length > 200) el.removeChild(el.lastChild);
    }

    function subscribe(pair) {
      if (balanceSrc) balanceSrc.close();
      if (tradeSrc) tradeSrc.close();
      document.getElementById('balances').innerHTML = '';
      document.getElementById('trades').innerHTML = '';

      balanceSrc = new EventSource('/balance/stream?pair=' + pair);
      balanceSrc.addEventListener('balance', e => {
        const s = JSON.parse(e.data);
        append(document.getElementById('balances'),
          s.ts + ' total ' + (+s.total_quote).toFixed(2) + ' (quote ' + (+s.quote).toFixed(2) + ', base ' + s.base + ')');
      });

      tradeSrc = new EventSource('/trades/stream?pair=' + pair);
      tradeSrc.addEventListener('trade', e => {
        const t = JSON.parse(e.data);
        append(document.getElementById('trades'),
          t.ts + ' ' + t.action.toUpperCase() + ' ' + t.amount + ' @ ' + t.price);
      });
    }

    document.getElementById('pair').addEventListener('change', e => subscribe(e.target.value));
    loadReport();
    setInterval(loadReport, 10000);
  </script>
</body>
</html>`
