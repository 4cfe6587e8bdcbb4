package catalogcsv_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/catalogcsv"
)

func TestRead_EncabezadosEnEspanolYComaDecimal(t *testing.T) {
	src := "Código;Nombre;Categoría;Unidad;Cantidad;Mínimo;Máximo;Costo unitario\n" +
		"ARROZ;Arroz blanco;Secos;kg;12,5;5;40;3.200,50\n" +
		";;;;;;;\n" +
		"HUEVO;Huevo AA;Refrigerados;pcs;30;12;;450\n"

	rows, err := catalogcsv.Read(strings.NewReader(src), "")
	require.NoError(t, err)
	require.Len(t, rows, 2, "las filas en blanco se ignoran")

	arroz := rows[0]
	assert.Equal(t, "ARROZ", arroz.Code)
	assert.Equal(t, "Secos", arroz.Category)
	assert.Equal(t, "12.5", arroz.InitialQuantity.String())
	assert.Equal(t, "3200.5", arroz.CostPerUnit.String())
	require.NotNil(t, arroz.MaximumQuantity)
	assert.Equal(t, "40", arroz.MaximumQuantity.String())
	assert.Nil(t, arroz.ReorderQuantity)

	assert.Nil(t, rows[1].MaximumQuantity, "vacío = sin máximo")
	assert.Empty(t, rows[0].TenantID)
}

func TestRead_Latin1(t *testing.T) {
	src, err := charmap.ISO8859_1.NewEncoder().String("código,nombre,unidad\nSAL,Sal refinada ñ,kg\n")
	require.NoError(t, err)

	rows, err := catalogcsv.Read(strings.NewReader(src), "latin1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sal refinada ñ", rows[0].Name)
}

func TestRead_BOMYEncabezadosEnIngles(t *testing.T) {
	src := "\ufeffcode,name,unit,initial_quantity,reorder_quantity\nACEITE,Aceite,l,2.5,10\n"
	rows, err := catalogcsv.Read(strings.NewReader(src), "utf-8")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ACEITE", rows[0].Code)
	require.NotNil(t, rows[0].ReorderQuantity)
	assert.Equal(t, "10", rows[0].ReorderQuantity.String())
}

func TestRead_Errores(t *testing.T) {
	_, err := catalogcsv.Read(strings.NewReader("codigo;nombre\nA;B\n"), "")
	var rowErr *catalogcsv.RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 1, rowErr.Line)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "unit")

	_, err = catalogcsv.Read(strings.NewReader("codigo;nombre;unidad;cantidad\nA;B;kg;1\nC;D;kg;muchos\n"), "")
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Line)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = catalogcsv.Read(strings.NewReader(""), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = catalogcsv.Read(strings.NewReader("code,name,unit\n"), "ebcdic")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
