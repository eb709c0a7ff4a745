package dataprocessing

import (
	"flowpulse/pkg/contracts/domain"
)

// PsiPerBar converts pressure readings from bar to psi
const PsiPerBar = 14.5038

// BarToPsi converts one pressure reading
func BarToPsi(bar float64) float64 {
	return bar * PsiPerBar
}

// CelsiusToFahrenheit converts one temperature reading
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// ConvertUnits rewrites Pressure to psi and Temperature to °F. Other columns
// are shared with the input unchanged. Both columns must be present and
// numeric; a table can only be converted once.
func ConvertUnits(t domain.Table) (domain.Table, error) {
	if t.Converted {
		return domain.Table{}, ErrAlreadyConverted
	}
	pressure, ok := t.Numbers(domain.ColumnPressure)
	if !ok {
		return domain.Table{}, missingColumn(domain.ColumnPressure)
	}
	temperature, ok := t.Numbers(domain.ColumnTemperature)
	if !ok {
		return domain.Table{}, missingColumn(domain.ColumnTemperature)
	}

	psi := make([]float64, len(pressure))
	for i, v := range pressure {
		psi[i] = BarToPsi(v)
	}
	fahrenheit := make([]float64, len(temperature))
	for i, v := range temperature {
		fahrenheit[i] = CelsiusToFahrenheit(v)
	}

	out := t.With(domain.NumericColumn(domain.ColumnPressure, psi)).
		With(domain.NumericColumn(domain.ColumnTemperature, fahrenheit))
	out.Converted = true
	return out, nil
}
