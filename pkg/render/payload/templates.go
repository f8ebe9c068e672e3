package payload

// Client libraries loaded by the graph document.
var scripts = []string{
	"https://unpkg.com/cytoscape@3.28.1/dist/cytoscape.min.js",
	"https://unpkg.com/webcola@3.4.0/WebCola/cola.min.js",
	"https://unpkg.com/cytoscape-cola@2.5.1/cytoscape-cola.js",
	"https://unpkg.com/dagre@0.8.5/dist/dagre.min.js",
	"https://unpkg.com/cytoscape-dagre@2.5.0/cytoscape-dagre.js",
}

const graphHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta name="graphscope-view" content="{{.View}}">
{{- range .Scripts}}
  <script src="{{.}}"></script>
{{- end}}
  <style>
    body { margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; }
    #cy { width: 100%; height: {{.Height}}px; background-color: #ffffff; }
    #tooltip {
      position: absolute; display: none; z-index: 9999; pointer-events: none;
      max-width: 300px; padding: 12px; border-radius: 6px;
      background: rgba(0, 0, 0, 0.85); color: white; font-size: 13px; line-height: 1.5;
      box-shadow: 0 4px 6px rgba(0, 0, 0, 0.3);
    }
  </style>
</head>
<body>
  <div id="cy"></div>
  <div id="tooltip"></div>
  <script>
    try {
      var cy = cytoscape({
        container: document.getElementById('cy'),
        elements: {{.Elements}},
        style: [
          { selector: 'node', style: {
              'label': 'data(label)', 'background-color': 'data(color)',
              'width': 'data(size)', 'height': 'data(size)',
              'font-size': '12px', 'text-valign': 'center', 'text-halign': 'center',
              'text-wrap': 'wrap', 'text-max-width': '80px',
              'border-width': 2, 'border-color': '#fff' } },
          { selector: 'node.expanded', style: { 'border-color': '#3b82f6', 'border-width': 3 } },
          { selector: 'node.highlighted', style: { 'border-color': '#3b82f6', 'border-width': 4, 'border-opacity': 0.8 } },
          { selector: 'edge', style: {
              'width': 2, 'line-color': '#888', 'target-arrow-color': '#888',
              'target-arrow-shape': 'triangle', 'curve-style': 'bezier',
              'label': 'data(label)', 'font-size': '10px', 'text-rotation': 'autorotate',
              'text-margin-y': -10, 'opacity': 0.7, 'arrow-scale': 1.5 } },
          { selector: 'edge.highlighted', style: { 'line-color': '#000', 'target-arrow-color': '#000', 'opacity': 1, 'width': 3 } }
        ],
        layout: {{.Layout}}
      });

      var tooltip = document.getElementById('tooltip');

      cy.on('mouseover', 'node', function(evt) {
        var node = evt.target;
        node.addClass('highlighted');
        node.connectedEdges().addClass('highlighted');
        // tooltip markup is escaped server side
        tooltip.innerHTML = node.data('tooltip') || '';
        tooltip.style.display = 'block';
      });
      cy.on('mouseout', 'node', function(evt) {
        var node = evt.target;
        node.removeClass('highlighted');
        node.connectedEdges().removeClass('highlighted');
        tooltip.style.display = 'none';
      });
      cy.on('mouseover', 'edge', function(evt) { evt.target.addClass('highlighted'); });
      cy.on('mouseout', 'edge', function(evt) { evt.target.removeClass('highlighted'); });
      cy.on('mousemove', function(evt) {
        tooltip.style.left = evt.originalEvent.clientX + 15 + 'px';
        tooltip.style.top = evt.originalEvent.clientY + 15 + 'px';
      });

      cy.one('layoutstop', function() { cy.fit(50); });
      cy.ready(function() { cy.fit(50); });
    } catch (error) {
      console.error('Cytoscape initialization error:', error);
      var errorDiv = document.createElement('div');
      errorDiv.style.cssText = 'padding: 20px; color: red; font-family: sans-serif;';
      errorDiv.textContent = 'Error initializing graph: ' + error.message;
      var container = document.getElementById('cy');
      container.innerHTML = '';
      container.appendChild(errorDiv);
    }
  </script>
</body>
</html>
`

const messageHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <style>
    body {
      margin: 0; padding: 0; display: flex; align-items: center; justify-content: center;
      height: {{.Height}}px; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
    }
    body.empty { background-color: #f8f9fa; }
    body.error { background-color: #fff5f5; }
    .box {
      padding: 30px; background: white; border-radius: 8px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.1); max-width: 500px;
    }
    .box.empty { text-align: center; color: #6c757d; }
    .box.error { border-left: 4px solid #ef4444; }
    .box.error h3 { color: #ef4444; }
    .box p { margin: 0; color: #6c757d; }
    .box h3 { margin: 0 0 10px 0; }
  </style>
</head>
<body class="{{.Class}}">
  <div class="box {{.Class}}">
    <h3>{{.Heading}}</h3>
    <p>{{.Message}}</p>
  </div>
</body>
</html>
`
