// Package catalogcsv lee el catálogo de insumos exportado desde una hoja de cálculo.
//
// Formato: primera fila con encabezados (en inglés o español), separador ';' o ',',
// decimales con punto o coma. Las exportaciones de Excel en español suelen venir en
// ISO-8859-1; con charset "ISO-8859-1" (o "latin1") se convierten a UTF-8.
package catalogcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// columnas canónicas y sus alias.
var aliases = map[string]string{
	"code": "code", "codigo": "code", "código": "code", "sku": "code",
	"name": "name", "nombre": "name",
	"category": "category", "categoria": "category", "categoría": "category",
	"unit": "unit", "unidad": "unit",
	"initial_quantity": "initial_quantity", "cantidad": "initial_quantity", "stock": "initial_quantity",
	"minimum_quantity": "minimum_quantity", "minimo": "minimum_quantity", "mínimo": "minimum_quantity",
	"maximum_quantity": "maximum_quantity", "maximo": "maximum_quantity", "máximo": "maximum_quantity",
	"reorder_quantity": "reorder_quantity", "reorden": "reorder_quantity",
	"cost_per_unit": "cost_per_unit", "costo": "cost_per_unit", "costo_unitario": "cost_per_unit",
}

var requiredColumns = []string{"code", "name", "unit"}

// RowError fila inválida del archivo (línea 1 = encabezado).
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("línea %d: %v", e.Line, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

// Read devuelve un CreateItemInput por fila, sin tenant ni actor.
func Read(r io.Reader, charset string) ([]inventory.CreateItemInput, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
	case "iso-8859-1", "iso8859-1", "latin1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	case "windows-1252", "cp1252":
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	default:
		return nil, fmt.Errorf("charset %q no soportado: %w", charset, domain.ErrInvalidInput)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("leer catálogo: %w", err)
	}
	text := strings.TrimPrefix(string(raw), "\ufeff")

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = detectDelimiter(text)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("catálogo vacío: %w", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, &RowError{Line: 1, Err: err}
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, &RowError{Line: 1, Err: err}
	}

	var out []inventory.CreateItemInput
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		if blank(rec) {
			continue
		}
		in, err := parseRow(rec, cols)
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		out = append(out, in)
	}
	return out, nil
}

func detectDelimiter(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if canon, ok := aliases[key]; ok {
			cols[canon] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q: %w", c, domain.ErrInvalidInput)
		}
	}
	return cols, nil
}

func parseRow(rec []string, cols map[string]int) (inventory.CreateItemInput, error) {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	in := inventory.CreateItemInput{
		Code:     get("code"),
		Name:     get("name"),
		Category: get("category"),
		Unit:     get("unit"),
	}
	var err error
	if in.InitialQuantity, err = parseDecimal(get("initial_quantity")); err != nil {
		return in, err
	}
	if in.MinimumQuantity, err = parseDecimal(get("minimum_quantity")); err != nil {
		return in, err
	}
	if in.CostPerUnit, err = parseDecimal(get("cost_per_unit")); err != nil {
		return in, err
	}
	if in.MaximumQuantity, err = parseOptional(get("maximum_quantity")); err != nil {
		return in, err
	}
	if in.ReorderQuantity, err = parseOptional(get("reorder_quantity")); err != nil {
		return in, err
	}
	return in, nil
}

// parseDecimal vacío = 0; "1.234,5" y "1234.5" valen lo mismo.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("número %q: %w", s, domain.ErrInvalidInput)
	}
	return d, nil
}

func parseOptional(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDecimal(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
