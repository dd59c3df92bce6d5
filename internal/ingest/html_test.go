package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><body>
<table class="nav"><tr><td>Home</td><td>About</td></tr></table>
<table class="prices">
  <thead><tr><th>Date</th><th>NIFTY 50</th><th>NIFTY MIDCAP 100</th></tr></thead>
  <tbody>
    <tr><td>01-Jan-2024</td><td>21,741.90</td><td>47,000.10</td></tr>
    <tr><td>02-Jan-2024</td><td>21,665.80</td><td>-</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseHTML(t *testing.T) {
	ds, err := ParseHTML(strings.NewReader(samplePage), "html:test", "DATE")
	require.NoError(t, err)

	assert.Equal(t, []string{"NIFTY 50", "NIFTY MIDCAP 100"}, ds.Names)

	nifty, err := ds.Get("NIFTY 50")
	require.NoError(t, err)
	require.Equal(t, 2, nifty.Len())
	assert.InDelta(t, 21741.90, nifty.Observations[0].Value, 1e-9)

	mid, err := ds.Get("NIFTY MIDCAP 100")
	require.NoError(t, err)
	assert.Equal(t, 1, mid.Len())
}

func TestParseHTML_NoTable(t *testing.T) {
	_, err := ParseHTML(strings.NewReader(`<table><tr><td>x</td></tr></table>`), "html:test", "DATE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no table")
}

func TestHTMLSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.html")
	require.NoError(t, os.WriteFile(path, []byte(samplePage), 0o644))

	ds, err := NewHTMLSource(path, "").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "html:"+path, ds.Source)
	assert.Equal(t, 2, ds.Count())
}
