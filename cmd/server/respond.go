package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/pricing"
	"github.com/Simplici0/costeo/internal/validation"
)

// problem is one field-level error shown next to the offending input.
type problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error    string          `json:"error"`
	Warning  costing.Warning `json:"warning,omitempty"`
	Problems []problem       `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeRejection reports a validation failure from the core or the validator.
func writeRejection(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: "datos inválidos", Warning: warningOf(err)}

	var re *pricing.RejectionError
	switch {
	case errors.As(err, &re):
		resp.Problems = []problem{{Field: re.Field, Message: re.Reason}}
	default:
		for _, fe := range validation.Messages(err) {
			resp.Problems = append(resp.Problems, problem{Field: fe.Field, Message: fe.Message})
		}
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func problemsOf(err error) []problem {
	rejections := pricing.Problems(err)
	out := make([]problem, 0, len(rejections))
	for _, re := range rejections {
		out = append(out, problem{Field: re.Field, Message: re.Reason})
	}
	return out
}

// warningOf maps a rejection back to the allocation warning that caused it.
func warningOf(err error) costing.Warning {
	switch {
	case errors.Is(err, costing.ErrIncompatibleUnits):
		return costing.WarningIncompatibleUnits
	case errors.Is(err, costing.ErrDivisionByZero):
		return costing.WarningDivisionByZero
	case errors.Is(err, costing.ErrInvalidQuantity):
		return costing.WarningInvalidQuantity
	default:
		return costing.WarningNone
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("json inválido: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("json inválido: se esperaba un único objeto")
	}
	return nil
}

func parseNonNegativeFloat(raw, field string) (float64, error) {
	value, err := parseFloat(raw, field)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("%s debe ser mayor o igual a 0", field)
	}
	return value, nil
}

func parsePositiveFloat(raw, field string) (float64, error) {
	value, err := parseFloat(raw, field)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s debe ser mayor a 0", field)
	}
	return value, nil
}

// parseFloat also accepts a decimal comma, as typed on es-AR keyboards.
func parseFloat(raw, field string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s es requerido", field)
	}
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%s debe ser numérico", field)
	}
	return value, nil
}
