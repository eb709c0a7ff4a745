package domain

// ForecastHorizon is the number of synthetic points a forecast evaluates
const ForecastHorizon = 30

// ForecastPoint is one evaluation of the fitted flow model. Day has no
// calendar meaning; it indexes the sweep along the observed feature range.
type ForecastPoint struct {
	Day         int     `json:"day"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
	FlowRate    float64 `json:"flow_rate"`
}

// Forecast is a fitted Flow_Rate ~ Pressure + Temperature model and its sweep
type Forecast struct {
	CoefPressure    float64         `json:"coef_pressure"`
	CoefTemperature float64         `json:"coef_temperature"`
	Intercept       float64         `json:"intercept"`
	RSquared        float64         `json:"r_squared"`
	Samples         int             `json:"samples"`
	Points          []ForecastPoint `json:"points"`
}

// Predict evaluates the model at one feature pair
func (f Forecast) Predict(pressure, temperature float64) float64 {
	return f.CoefPressure*pressure + f.CoefTemperature*temperature + f.Intercept
}
