package bankfile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ── Montos ──

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in     string
		amount string
		credit bool
	}{
		{"$1.234.567,89", "1234567.89", true},
		{"-1234.56", "1234.56", false},
		{"1,234.56", "1234.56", true},
		{"(500)", "500", false},
		{"1.234", "1234", true},
		{"12,5", "12.5", true},
		{"$ 150.000", "150000", true},
		{"-50000", "50000", false},
		{"0.99", "0.99", true},
	}
	for _, tc := range cases {
		amount, credit, err := ParseAmount(tc.in)
		require.NoError(t, err, "entrada %q", tc.in)
		assert.Equal(t, tc.amount, amount.String(), "entrada %q", tc.in)
		assert.Equal(t, tc.credit, credit, "entrada %q", tc.in)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "$"} {
		_, _, err := ParseAmount(in)
		assert.Error(t, err, "entrada %q", in)
	}
}

// ── Fechas ──

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2026-01-15", "15-01-2026", "15/01/2026", "2026/01/15", "15.01.2026"} {
		got, err := ParseDate(in)
		require.NoError(t, err, "entrada %q", in)
		assert.True(t, got.Equal(want), "entrada %q", in)
	}
}

func TestParseDate_Unrecognized(t *testing.T) {
	_, err := ParseDate("15 ene 2026")
	assert.Error(t, err)
}

// ── CSV ──

func TestParse_SemicolonCSVWithPreamble(t *testing.T) {
	data := "Cartola cuenta corriente\n" +
		"Banco Regional;Cuenta 12345-6\n" +
		"Fecha;Descripción;Monto;Referencia\n" +
		"15/01/2026;TRANSFERENCIA DE PEDRO PÉREZ;$150.000;OP-9912\n" +
		"16/01/2026;PAGO PROVEEDOR;-50.000;OP-9913\n"

	rows, err := Parse("cartola.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "150000", rows[0].Amount.String())
	assert.True(t, rows[0].Credit)
	assert.Equal(t, "TRANSFERENCIA DE PEDRO PÉREZ", rows[0].Description)
	assert.Equal(t, "OP-9912", rows[0].Reference)
	assert.Equal(t, 4, rows[0].RowNumber)

	assert.Equal(t, "50000", rows[1].Amount.String())
	assert.False(t, rows[1].Credit)
}

func TestParse_CommaCSV(t *testing.T) {
	data := "Fecha,Detalle,Monto\n" +
		"2026-02-01,ABONO CLIENTE,\"1,234.56\"\n"

	rows, err := Parse("movimientos.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1234.56", rows[0].Amount.String())
	assert.Equal(t, "ABONO CLIENTE", rows[0].Description)
	assert.True(t, rows[0].Date.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParse_SkipsUnparsableRows(t *testing.T) {
	data := "Fecha;Monto\n" +
		"sin fecha;10000\n" +
		"17/01/2026;cero pesos\n" +
		"17/01/2026;0\n" +
		"18/01/2026;25000\n"

	rows, err := Parse("cartola.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "25000", rows[0].Amount.String())
	assert.Equal(t, 5, rows[0].RowNumber)
}

func TestParse_Latin1Encoding(t *testing.T) {
	// "Descripción" y "DEPÓSITO" en ISO-8859-1
	data := []byte("Fecha;Descripci\xf3n;Monto\n20/01/2026;DEP\xd3SITO EN EFECTIVO;30000\n")

	rows, err := Parse("cartola.csv", data)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "DEPÓSITO EN EFECTIVO", rows[0].Description)
	assert.Equal(t, "30000", rows[0].Amount.String())
}

func TestParse_NoHeader(t *testing.T) {
	data := "una;cartola;sin\nencabezado;reconocible;1234\n"

	_, err := Parse("cartola.csv", []byte(data))
	assert.ErrorIs(t, err, ErrNoHeader)
}

// ── XLSX ──

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Resumen de movimientos"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Fecha", "Glosa", "Monto"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"21/01/2026", "TRANSFERENCIA RECIBIDA", "85000"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"22/01/2026", "COMISIÓN MANTENCIÓN", "-4500"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Parse("cartola.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "85000", rows[0].Amount.String())
	assert.True(t, rows[0].Credit)
	assert.Equal(t, "TRANSFERENCIA RECIBIDA", rows[0].Description)
	assert.Equal(t, "4500", rows[1].Amount.String())
	assert.False(t, rows[1].Credit)
}
