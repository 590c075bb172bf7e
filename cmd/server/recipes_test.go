package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/costeo/internal/db"
	"github.com/Simplici0/costeo/internal/export"
	"github.com/Simplici0/costeo/internal/metrics"
	"github.com/Simplici0/costeo/internal/migrations"
	"github.com/Simplici0/costeo/internal/pricing"
	"github.com/Simplici0/costeo/internal/seed"
	"github.com/Simplici0/costeo/internal/store"
)

func newTestServer(t *testing.T) (*server, http.Handler) {
	t.Helper()

	database, err := db.Open(db.MemoryPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	srv := newServer(store.New(database), metrics.New(), "ARS", zerolog.Nop())
	return srv, srv.routes()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func createRecipe(t *testing.T, h http.Handler, body string) recipeResponse {
	t.Helper()

	rr := doJSON(t, h, http.MethodPost, "/recipes", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp recipeResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "/recipes/"+resp.ID, rr.Header().Get("Location"))
	return resp
}

const flourLine = `{"name":"Harina","lot":{"quantity":1,"unit":"kg","totalPrice":1000},"usage":{"quantity":250,"unit":"g"}}`

func TestRecipeWorkflow(t *testing.T) {
	srv, h := newTestServer(t)

	created := createRecipe(t, h, `{"name":"Torta de chocolate"}`)
	assert.Equal(t, "Torta de chocolate", created.Name)
	assert.Equal(t, 1, created.Portions)
	assert.Empty(t, created.Ingredients)

	base := "/recipes/" + created.ID

	rr := doJSON(t, h, http.MethodPost, base+"/ingredients", flourLine)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var line pricing.IngredientLine
	decodeBody(t, rr, &line)
	assert.NotEmpty(t, line.ID)
	assert.InDelta(t, 250, line.Cost, 1e-9)

	rr = doJSON(t, h, http.MethodPut, base, `{
		"name": "Torta de chocolate",
		"packagingCost": 50,
		"bakingCost": 30,
		"laborMinutes": 90,
		"hourlyRate": 2000,
		"fixedCostAllocation": 40,
		"profitPercentage": 40,
		"portions": 12
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, base+"/totals", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var totals totalsResponse
	decodeBody(t, rr, &totals)
	assert.True(t, totals.Complete)
	assert.Empty(t, totals.Problems)
	assert.InDelta(t, 330, totals.Breakdown.MaterialCost, 1e-9)
	assert.InDelta(t, 3000, totals.Breakdown.LaborCost, 1e-9)
	assert.InDelta(t, 3370, totals.Totals.TotalCost, 1e-9)
	assert.InDelta(t, 4718, totals.Totals.FinalPrice, 1e-9)
	assert.InDelta(t, 393.1666666, totals.Totals.PortionPrice, 1e-6)
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.RecipesPricedTotal))

	rr = doJSON(t, h, http.MethodPut, base+"/ingredients/"+line.ID,
		`{"name":"Harina 0000","lot":{"quantity":1,"unit":"kg","totalPrice":1000},"usage":{"quantity":500,"unit":"G"}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got recipeResponse
	decodeBody(t, rr, &got)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, line.ID, got.Ingredients[0].ID)
	assert.Equal(t, "Harina 0000", got.Ingredients[0].Name)
	assert.InDelta(t, 500, got.Result.Breakdown.IngredientCost, 1e-9)

	rr = doJSON(t, h, http.MethodDelete, base+"/ingredients/"+line.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = doJSON(t, h, http.MethodDelete, base+"/ingredients/"+line.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code, "removing twice is not an error")

	rr = doJSON(t, h, http.MethodGet, base+"/totals", "")
	decodeBody(t, rr, &totals)
	assert.False(t, totals.Complete)
	require.Len(t, totals.Problems, 1)
	assert.Equal(t, "ingredients", totals.Problems[0].Field)

	rr = doJSON(t, h, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = doJSON(t, h, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestIngredientAdd_Rejections(t *testing.T) {
	srv, h := newTestServer(t)
	created := createRecipe(t, h, `{"name":"Bizcochuelo"}`)
	path := "/recipes/" + created.ID + "/ingredients"

	tests := []struct {
		name      string
		body      string
		wantField string
		warning   string
	}{
		{
			name:      "incompatible units",
			body:      `{"name":"Huevos","lot":{"quantity":12,"unit":"unidades","totalPrice":2400},"usage":{"quantity":100,"unit":"g"}}`,
			wantField: "usage.unit",
			warning:   "incompatible_units",
		},
		{
			name:      "zero lot quantity",
			body:      `{"name":"Harina","lot":{"quantity":0,"unit":"kg","totalPrice":1000},"usage":{"quantity":100,"unit":"g"}}`,
			wantField: "lot.quantity",
			warning:   "invalid_quantity",
		},
		{
			name:      "missing name",
			body:      `{"name":" ","lot":{"quantity":1,"unit":"kg","totalPrice":1000},"usage":{"quantity":100,"unit":"g"}}`,
			wantField: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, path, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

			var resp errorResponse
			decodeBody(t, rr, &resp)
			require.Len(t, resp.Problems, 1)
			assert.Equal(t, tt.wantField, resp.Problems[0].Field)
			if tt.warning != "" {
				assert.Contains(t, rr.Body.String(), `"warning":"`+tt.warning+`"`)
			}
		})
	}

	rr := doJSON(t, h, http.MethodGet, "/recipes/"+created.ID, "")
	var got recipeResponse
	decodeBody(t, rr, &got)
	assert.Empty(t, got.Ingredients, "rejected lines are not stored")

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.AllocationsTotal.WithLabelValues("incompatible_units")))
}

func TestRecipesCreate_Validation(t *testing.T) {
	_, h := newTestServer(t)

	rr := doJSON(t, h, http.MethodPost, "/recipes", `{"name":"","portions":2}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"name"`)

	rr = doJSON(t, h, http.MethodPost, "/recipes", `{"name":"Torta","profitPercentage":-5}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"profitPercentage"`)

	rr = doJSON(t, h, http.MethodPost, "/recipes", `{"name":"Torta"} {"name":"Otra"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecipesList(t *testing.T) {
	_, h := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/recipes", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	createRecipe(t, h, `{"name":"Alfajores"}`)
	createRecipe(t, h, `{"name":"Torta de ricota"}`)

	rr = doJSON(t, h, http.MethodGet, "/recipes?q=ricota", "")
	var summaries []store.Summary
	decodeBody(t, rr, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Torta de ricota", summaries[0].Name)
}

func TestRecipeNotFound(t *testing.T) {
	_, h := newTestServer(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/recipes/missing", ""},
		{http.MethodDelete, "/recipes/missing", ""},
		{http.MethodGet, "/recipes/missing/totals", ""},
		{http.MethodPost, "/recipes/missing/ingredients", flourLine},
		{http.MethodGet, "/recipes/missing/export/json", ""},
	} {
		rr := doJSON(t, h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestIngredientReplace_UnknownLine(t *testing.T) {
	_, h := newTestServer(t)
	created := createRecipe(t, h, `{"name":"Bizcochuelo"}`)

	rr := doJSON(t, h, http.MethodPut, "/recipes/"+created.ID+"/ingredients/missing", flourLine)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func seededServer(t *testing.T) (*server, http.Handler) {
	t.Helper()

	srv, h := newTestServer(t)
	if _, err := seed.Run(t.Context(), srv.store); err != nil {
		t.Fatalf("seed example recipe: %v", err)
	}
	return srv, h
}

func TestRecipeExport(t *testing.T) {
	srv, h := seededServer(t)
	base := "/recipes/" + seed.ExampleRecipeID + "/export/"

	rr := doJSON(t, h, http.MethodGet, base+"json", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="torta-de-ejemplo.json"`, rr.Header().Get("Content-Disposition"))
	var snap export.Snapshot
	decodeBody(t, rr, &snap)
	assert.Equal(t, seed.ExampleRecipeName, snap.Name)
	assert.Len(t, snap.Ingredients, 6)

	rr = doJSON(t, h, http.MethodGet, base+"msgpack", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var packed export.Snapshot
	require.NoError(t, msgpack.Unmarshal(rr.Body.Bytes(), &packed))
	assert.Equal(t, snap.Costs, packed.Costs)

	rr = doJSON(t, h, http.MethodGet, base+"TXT", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Receta: Torta de ejemplo")
	assert.Contains(t, rr.Body.String(), "ARS")

	rr = doJSON(t, h, http.MethodGet, base+"xlsx", "")
	require.Equal(t, http.StatusOK, rr.Code)
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	name, err := f.GetCellValue("Receta", "B1")
	require.NoError(t, err)
	assert.Equal(t, seed.ExampleRecipeName, name)

	rr = doJSON(t, h, http.MethodGet, base+"pdf", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	for _, format := range []string{"json", "msgpack", "txt", "xlsx"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.ExportsTotal.WithLabelValues(format)), format)
	}
}

func TestRecipeExport_IncompleteRecipe(t *testing.T) {
	_, h := newTestServer(t)
	created := createRecipe(t, h, `{"name":"Vacía"}`)

	rr := doJSON(t, h, http.MethodGet, "/recipes/"+created.ID+"/export/txt", "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"ingredients"`)
}

func TestHealthAndMetrics(t *testing.T) {
	_, h := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "costeo_http_request_duration_seconds")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "torta-de-ejemplo", slug("Torta de ejemplo"))
	assert.Equal(t, "budin-de-limon", slug("  Budín de limón!"))
	assert.Equal(t, "receta", slug("¡¡!!"))
}
