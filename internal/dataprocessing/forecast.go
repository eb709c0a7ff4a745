package dataprocessing

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"flowpulse/pkg/contracts/domain"
)

// singular values below rankTolerance times the largest are treated as zero
const rankTolerance = 1e-10

// FitForecast fits Flow_Rate = a*Pressure + b*Temperature + c by ordinary
// least squares over the rows where all three are present, then evaluates the
// model on 30 points pairing evenly spaced pressures with evenly spaced
// temperatures across their observed ranges.
//
// Collinear features get the minimum norm solution. Fewer than two complete
// rows fail with ErrInsufficientData.
func FitForecast(t domain.Table) (*domain.Forecast, error) {
	flow, ok := t.Numbers(domain.ColumnFlowRate)
	if !ok {
		return nil, missingColumn(domain.ColumnFlowRate)
	}
	pressure, ok := t.Numbers(domain.ColumnPressure)
	if !ok {
		return nil, missingColumn(domain.ColumnPressure)
	}
	temperature, ok := t.Numbers(domain.ColumnTemperature)
	if !ok {
		return nil, missingColumn(domain.ColumnTemperature)
	}

	var xp, xt, y []float64
	for i := range flow {
		if math.IsNaN(flow[i]) || math.IsNaN(pressure[i]) || math.IsNaN(temperature[i]) {
			continue
		}
		xp = append(xp, pressure[i])
		xt = append(xt, temperature[i])
		y = append(y, flow[i])
	}
	n := len(y)
	if n < 2 {
		return nil, fmt.Errorf("%w: %d complete rows, need at least 2", ErrInsufficientData, n)
	}

	meanP, meanT, meanY := stat.Mean(xp, nil), stat.Mean(xt, nil), stat.Mean(y, nil)
	x := mat.NewDense(n, 2, nil)
	yc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, xp[i]-meanP)
		x.Set(i, 1, xt[i]-meanT)
		yc.SetVec(i, y[i]-meanY)
	}

	coef, err := leastSquares(x, yc)
	if err != nil {
		return nil, err
	}

	f := &domain.Forecast{
		CoefPressure:    coef[0],
		CoefTemperature: coef[1],
		Samples:         n,
	}
	f.Intercept = meanY - f.CoefPressure*meanP - f.CoefTemperature*meanT
	f.RSquared = rSquared(f, xp, xt, y, meanY)

	ps := floats.Span(make([]float64, domain.ForecastHorizon), floats.Min(xp), floats.Max(xp))
	ts := floats.Span(make([]float64, domain.ForecastHorizon), floats.Min(xt), floats.Max(xt))
	f.Points = make([]domain.ForecastPoint, domain.ForecastHorizon)
	for i := range f.Points {
		f.Points[i] = domain.ForecastPoint{
			Day:         i + 1,
			Pressure:    ps[i],
			Temperature: ts[i],
			FlowRate:    f.Predict(ps[i], ts[i]),
		}
	}
	return f, nil
}

// leastSquares solves min |x*b - y| through a thin SVD, truncating
// singular values that are numerically zero.
func leastSquares(x *mat.Dense, y *mat.VecDense) ([]float64, error) {
	_, cols := x.Dims()
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, errors.New("forecast: svd factorization failed")
	}
	rank := svd.Rank(rankTolerance)
	if rank == 0 {
		// Every feature is constant; only the intercept carries information.
		return make([]float64, cols), nil
	}
	var b mat.VecDense
	svd.SolveVecTo(&b, y, rank)
	out := make([]float64, cols)
	for i := range out {
		out[i] = b.AtVec(i)
	}
	return out, nil
}

func rSquared(f *domain.Forecast, xp, xt, y []float64, meanY float64) float64 {
	var ssRes, ssTot float64
	for i := range y {
		r := y[i] - f.Predict(xp[i], xt[i])
		ssRes += r * r
		d := y[i] - meanY
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
