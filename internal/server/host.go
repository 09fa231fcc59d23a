package server

// hostPage frames the generated preview document. The iframe is
// sandboxed with script execution enabled; the document inside opens
// its own socket back to /ws, so the host page only needs to bump the
// frame's src when a reload notice arrives.
const hostPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>forge preview</title>
<style>
  html, body { margin: 0; height: 100%; background: #1e1e1e; }
  iframe { border: 0; width: 100%; height: 100%; background: #fff; }
</style>
</head>
<body>
<iframe id="preview" sandbox="allow-scripts allow-same-origin" src="/preview"></iframe>
<script>
(function () {
  var frame = document.getElementById('preview');
  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';

  function connect() {
    var sock = new WebSocket(proto + location.host + '/ws');
    sock.onmessage = function (ev) {
      var msg;
      try { msg = JSON.parse(ev.data); } catch (e) { return; }
      if (msg.type === 'reload') {
        frame.src = '/preview?g=' + msg.generation;
      }
    };
    sock.onclose = function () {
      setTimeout(connect, 1000);
    };
  }
  connect();
})();
</script>
</body>
</html>
`
