package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekosirs/bekoctl/internal/models"
)

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, OutputJSON(&buf, map[string]string{"user": "ayse"}, ""))

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
	assert.Equal(t, map[string]any{"user": "ayse"}, resp.Data)

	buf.Reset()
	require.NoError(t, OutputJSON(&buf, nil, "invalid username or password"))
	assert.JSONEq(t, `{"success":false,"data":null,"error":"invalid username or password"}`, buf.String())
}

func TestWriteProducts(t *testing.T) {
	products := []models.Product{
		{ID: 1, Name: "Washer", Brand: "Beko", Price: "19999.00", Status: "in_stock", Category: &models.Category{ID: 1, Name: "Laundry"}},
		{ID: 7, Name: "Kettle", Brand: "Beko"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, products, false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "NAME", "BRAND", "CATEGORY", "PRICE", "STATUS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "Washer", "Beko", "Laundry", "19999.00", "in_stock"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"7", "Kettle", "Beko", "-", "-", "-"}, strings.Fields(lines[2]))
}

func TestWriteProducts_Assigned(t *testing.T) {
	products := []models.Product{{ID: 2, Name: "Fridge", Brand: "Beko", AssignedDate: "2026-01-05"}}

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, products, true))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ASSIGNED", strings.Fields(lines[0])[6])
	assert.Equal(t, "2026-01-05", strings.Fields(lines[1])[6])
}

func TestTable_PadsMissingCells(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "A", "B", "C")
	tbl.Row("x")
	require.NoError(t, tbl.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"x", "-", "-"}, strings.Fields(lines[1]))
}

func TestWriteDetails(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDetails(&buf,
		Detail{Label: "Storage", Value: "file"},
		Detail{Label: "User ID", Value: ""},
		Detail{Label: "Refresh token", Value: "no"},
	))

	out := buf.String()
	assert.Contains(t, out, "  Storage:")
	assert.Contains(t, out, "  Refresh token:")
	assert.NotContains(t, out, "User ID")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer
	PrintSuccess(&buf, "Logged in")
	PrintWarning(&buf, "careful")
	PrintError(&buf, "failed")
	assert.Equal(t, "✓ Logged in\n⚠ careful\n✗ failed\n", buf.String())
}
