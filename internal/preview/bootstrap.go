package preview

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/forgeide/forge/internal/errors"
)

// Generator emits the self-contained preview document: the entry markup
// (real, synthetic, or placeholder) with the bootstrap program appended.
// The bootstrap runs inside the sandboxed browser context, decodes the
// embedded module map, registers every module under its aliases, and
// relays console and error events back to the host over the WebSocket
// channel. The module map is embedded as a base64 payload so arbitrary
// source text cannot break out of the host/sandbox quoting boundary.
type Generator struct{}

// NewGenerator creates a document generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Document produces the final preview document for one pass. It always
// returns a displayable page; a payload encoding failure degrades to a
// page that reports the failure through the sandbox channel, and
// transform failures render as an overlay on top of whatever did build.
func (g *Generator) Document(entry Entry, mm *ModuleMap, generation uint64, transformErrs []errors.TransformError) string {
	if entry.Kind == EntryPlaceholder {
		return injectBootloader(placeholderDocument, errorOverlay(transformErrs))
	}

	var doc string
	switch entry.Kind {
	case EntryDocument:
		doc = entry.Node.Content
	case EntryScript:
		doc = syntheticWrapper(entry.Path)
	}

	payload, err := encodePayload(mm)
	if err != nil {
		// Keeps the page displayable; the sandbox reports the failure.
		payload = ""
	}
	loader := bootloader(payload, generation)
	if err != nil {
		loader += fmt.Sprintf("<script>window.__forgePost('error', %q);</script>\n", "payload encoding failed: "+err.Error())
	}
	loader += errorOverlay(transformErrs)
	return injectBootloader(doc, loader)
}

// errorOverlay renders transform failures as a fixed panel so a broken
// file is visible in the page itself, not only in the server log. The
// rest of the application still runs underneath it.
func errorOverlay(transformErrs []errors.TransformError) string {
	if len(transformErrs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div id="forge-error-overlay" style="position:fixed; left:0; right:0; bottom:0; max-height:40%; overflow:auto; background:#2d0b0e; color:#ffb3b9; font-family:monospace; font-size:13px; padding:12px 16px; border-top:2px solid #e5484d; z-index:2147483647;">`)
	b.WriteString(`<div style="font-weight:bold; margin-bottom:6px;">Build errors</div>`)
	for _, te := range transformErrs {
		b.WriteString(`<div style="margin-bottom:4px; white-space:pre-wrap;">`)
		b.WriteString(html.EscapeString(fmt.Sprintf("%s:%d:%d %s", te.File, te.Line, te.Column, te.Message)))
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// encodePayload serializes the module map and base64-encodes it for safe
// embedding in the document.
func encodePayload(mm *ModuleMap) (string, error) {
	data, err := json.Marshal(mm)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// injectBootloader places the bootstrap before the closing body tag, or
// appends it when the document has none.
func injectBootloader(doc, loader string) string {
	lower := strings.ToLower(doc)
	if i := strings.LastIndex(lower, "</body>"); i >= 0 {
		return doc[:i] + loader + doc[i:]
	}
	return doc + loader
}

// syntheticWrapper is the generated markup document used when the chosen
// entry is a script rather than a document.
func syntheticWrapper(entryPath string) string {
	return `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>Forge App</title>
  </head>
  <body>
    <div id="root"></div>
    <script type="module" src="./` + entryPath + `"></script>
  </body>
</html>`
}

// placeholderDocument is rendered when no entry point exists. Not an
// error: an empty workspace is a legitimate, displayable state.
const placeholderDocument = `<!DOCTYPE html>
<html>
  <body style="color:#888; font-family:sans-serif; text-align:center; padding-top:40px; background:#1e1e1e;">
    <div style="font-size:24px; margin-bottom:10px;">No entry point found</div>
    <p>Create an <strong>index.html</strong> or a <strong>src/main.tsx</strong> file.</p>
  </body>
</html>`

// bootloader builds the bootstrap program. Order matters: error traps
// and the console shim install before the payload decodes, and the
// import map installs before any application module runs.
func bootloader(payload string, generation uint64) string {
	script := `
<script>
(function() {
  var GEN = __GENERATION__;
  var queue = [];
  var sock = null;
  function post(kind, message, line) {
    var evt = { kind: kind, message: String(message), generation: GEN };
    if (typeof line === 'number') { evt.line = line; }
    var data = JSON.stringify(evt);
    try {
      if (sock && sock.readyState === 1) { sock.send(data); } else { queue.push(data); }
    } catch (e) { /* host gone; nothing to report to */ }
  }
  try {
    var scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
    sock = new WebSocket(scheme + location.host + '/ws');
    sock.onopen = function() {
      for (var i = 0; i < queue.length; i++) { sock.send(queue[i]); }
      queue = [];
    };
  } catch (e) { /* preview still renders without the channel */ }
  window.__forgePost = post;

  window.onerror = function(msg, url, line) {
    post('error', msg, line);
    return false;
  };
  window.onunhandledrejection = function(e) {
    post('error', 'Unhandled promise rejection: ' + e.reason);
  };

  window.process = { env: { NODE_ENV: 'development' } };
})();
</script>
<script src="https://cdn.tailwindcss.com"></script>
<script>
(async function() {
  var post = window.__forgePost;
  try {
    var raw = "__PAYLOAD__";
    var payload = raw ? JSON.parse(decodeURIComponent(escape(atob(raw)))) : {};

    var _log = console.log;
    console.log = function() {
      var args = Array.prototype.slice.call(arguments);
      _log.apply(console, args);
      if (args[0] && typeof args[0] === 'string' && args[0].indexOf('cdn.tailwindcss.com') !== -1) { return; }
      post('log', args.join(' '));
    };

    (payload.styles || []).forEach(function(s) {
      var el = document.createElement('style');
      el.setAttribute('data-path', s.path);
      el.textContent = s.content;
      document.head.appendChild(el);
    });

    var imports = {};
    var externals = payload.externals || {};
    Object.keys(externals).forEach(function(name) { imports[name] = externals[name]; });

    var urls = {};
    var modules = payload.modules || {};
    Object.keys(modules).forEach(function(path) {
      var blob = new Blob([modules[path]], { type: 'text/javascript' });
      urls[path] = URL.createObjectURL(blob);
      imports[path] = urls[path];
    });
    var aliases = payload.aliases || {};
    Object.keys(aliases).forEach(function(alias) {
      var target = urls[aliases[alias]];
      if (target) { imports[alias] = target; }
    });

    var mapEl = document.createElement('script');
    mapEl.type = 'importmap';
    mapEl.textContent = JSON.stringify({ imports: imports });
    document.head.appendChild(mapEl);

    if (document.readyState === 'loading') {
      await new Promise(function(r) { document.addEventListener('DOMContentLoaded', r); });
    }

    document.querySelectorAll('script[src]').forEach(function(s) {
      var src = s.getAttribute('src');
      if (!src || /^https?:/.test(src)) { return; }
      var normalized = src.indexOf('./') === 0 ? src : './' + src;
      if (imports[normalized] || imports[normalized.replace(/\.[^/.]+$/, '')]) {
        var mod = document.createElement('script');
        mod.type = 'module';
        mod.textContent = "import '" + normalized + "';";
        s.replaceWith(mod);
      }
    });
  } catch (err) {
    post('error', 'bootstrap: ' + (err && err.message ? err.message : err));
  }
})();
</script>
`
	script = strings.ReplaceAll(script, "__GENERATION__", fmt.Sprintf("%d", generation))
	script = strings.ReplaceAll(script, "__PAYLOAD__", payload)
	return script
}
