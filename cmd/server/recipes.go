package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/export"
	"github.com/Simplici0/costeo/internal/pricing"
	"github.com/Simplici0/costeo/internal/store"
)

type recipeResponse struct {
	ID string `json:"id"`
	pricing.Params
	Ingredients []pricing.IngredientLine `json:"ingredients"`
	Result      pricing.Result           `json:"result"`
}

func newRecipeResponse(r *pricing.Recipe) recipeResponse {
	lines := r.Lines()
	if lines == nil {
		lines = []pricing.IngredientLine{}
	}
	return recipeResponse{
		ID:          r.ID,
		Params:      r.Params,
		Ingredients: lines,
		Result:      pricing.ComputeTotals(r),
	}
}

type totalsResponse struct {
	pricing.Result
	Complete bool      `json:"complete"`
	Problems []problem `json:"problems"`
}

type ingredientRequest struct {
	Name  string        `json:"name"`
	Lot   costing.Lot   `json:"lot"`
	Usage costing.Usage `json:"usage"`
}

func (req *ingredientRequest) normalize() {
	req.Lot.Unit = normalizeUnit(string(req.Lot.Unit))
	req.Usage.Unit = normalizeUnit(string(req.Usage.Unit))
}

func (s *server) handleRecipesList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.internalError(w, err, "failed to list recipes")
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *server) handleRecipesCreate(w http.ResponseWriter, r *http.Request) {
	var params pricing.Params
	if err := decodeJSON(w, r, &params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if params.Portions == 0 {
		params.Portions = 1
	}

	recipe := pricing.NewRecipe(params.Name)
	if err := recipe.SetParams(params); err != nil {
		writeRejection(w, err)
		return
	}
	if err := s.store.Create(r.Context(), recipe); err != nil {
		s.internalError(w, err, "failed to create recipe")
		return
	}

	w.Header().Set("Location", "/recipes/"+recipe.ID)
	writeJSON(w, http.StatusCreated, newRecipeResponse(recipe))
}

func (s *server) handleRecipeGet(w http.ResponseWriter, r *http.Request) {
	recipe, ok := s.loadRecipe(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newRecipeResponse(recipe))
}

func (s *server) handleRecipeUpdate(w http.ResponseWriter, r *http.Request) {
	recipe, ok := s.loadRecipe(w, r)
	if !ok {
		return
	}

	var params pricing.Params
	if err := decodeJSON(w, r, &params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := recipe.SetParams(params); err != nil {
		writeRejection(w, err)
		return
	}
	if !s.saveRecipe(w, r, recipe) {
		return
	}
	writeJSON(w, http.StatusOK, newRecipeResponse(recipe))
}

func (s *server) handleRecipeDelete(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "receta no encontrada")
	case err != nil:
		s.internalError(w, err, "failed to delete recipe")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *server) handleRecipeTotals(w http.ResponseWriter, r *http.Request) {
	recipe, ok := s.loadRecipe(w, r)
	if !ok {
		return
	}

	s.metrics.RecordPricing()
	problems := problemsOf(pricing.CheckComplete(recipe))
	writeJSON(w, http.StatusOK, totalsResponse{
		Result:   pricing.ComputeTotals(recipe),
		Complete: len(problems) == 0,
		Problems: problems,
	})
}

func (s *server) handleIngredientAdd(w http.ResponseWriter, r *http.Request) {
	recipe, ok := s.loadRecipe(w, r)
	if !ok {
		return
	}

	var req ingredientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.normalize()

	line, err := recipe.AddIngredientLine(req.Name, req.Lot, req.Usage)
	s.recordLine(err)
	if err != nil {
		writeRejection(w, err)
		return
	}
	if !s.saveRecipe(w, r, recipe) {
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (s *server) handleIngredientReplace(w http.ResponseWriter, r *http.Request) {
	recipe, ok := s.loadRecipe(w, r)
	if !ok {
		return
	}

	lineID := chi.URLParam(r, "lineID")
	if _, found := recipe.Line(lineID); !found {
		writeError(w, http.StatusNotFound, "ingrediente no encontrado")
		return
	}

	var req ingredientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.normalize()

	line, err := recipe.ReplaceIngredientLine(lineID, req.Name, req.Lot, req.Usage)
	s.recordLine(err)
	if err != nil {
		writeRejection(w, err)
		return
	}
	if !s.saveRecipe(w, r, recipe) {
		return
	}
	writeJSON(w, http.StatusOK, line)
}

// handleIngredientRemove is idempotent: removing a line that is not there
// still answers 204.
func (s *server) handleIngredientRemove(w http.ResponseWriter, r *http.Request) {
	recipe, ok := s.loadRecipe(w, r)
	if !ok {
		return
	}

	if recipe.RemoveIngredientLine(chi.URLParam(r, "lineID")) {
		if !s.saveRecipe(w, r, recipe) {
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleRecipeExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	renderer, found := s.renderers[format]
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("formato desconocido, usar uno de: %s", strings.Join(export.Formats(), ", ")))
		return
	}

	recipe, ok := s.loadRecipe(w, r)
	if !ok {
		return
	}
	if err := pricing.CheckComplete(recipe); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:    "la receta está incompleta",
			Problems: problemsOf(err),
		})
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, export.NewSnapshot(recipe)); err != nil {
		s.internalError(w, err, "failed to render export")
		return
	}
	s.metrics.RecordExport(format)

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, slug(recipe.Name), format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *server) loadRecipe(w http.ResponseWriter, r *http.Request) (*pricing.Recipe, bool) {
	recipe, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "receta no encontrada")
		return nil, false
	}
	if err != nil {
		s.internalError(w, err, "failed to load recipe")
		return nil, false
	}
	return recipe, true
}

func (s *server) saveRecipe(w http.ResponseWriter, r *http.Request, recipe *pricing.Recipe) bool {
	err := s.store.Save(r.Context(), recipe)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "receta no encontrada")
		return false
	}
	if err != nil {
		s.internalError(w, err, "failed to save recipe")
		return false
	}
	return true
}

// recordLine counts the allocation behind an add or replace. Rejections that
// never reached the allocation, such as a missing name, are not counted.
func (s *server) recordLine(err error) {
	if err == nil {
		s.metrics.RecordAllocation(costing.WarningNone)
		return
	}
	if w := warningOf(err); w != costing.WarningNone {
		s.metrics.RecordAllocation(w)
	}
}

func (s *server) internalError(w http.ResponseWriter, err error, msg string) {
	s.log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slug turns a recipe name into an ASCII file name.
func slug(name string) string {
	replacer := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n")
	s := nonSlug.ReplaceAllString(replacer.Replace(strings.ToLower(name)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "receta"
	}
	return s
}
