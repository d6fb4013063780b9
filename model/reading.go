package model

import "fmt"

// NumFeatures is the width of one input row.
const NumFeatures = 8

// Feature column names, in the order the model was trained on.
const (
	FeatureTemperature      = "Temperature"
	FeaturePressure         = "Pressure"
	FeatureVibration        = "Vibration"
	FeatureHumidity         = "Humidity"
	FeatureFlowRate         = "FlowRate"
	FeaturePowerConsumption = "PowerConsumption"
	FeatureRuntimeHours     = "RuntimeHours"
	FeatureDaysSinceService = "DaysSinceService"
)

// Feature describes one form field and its model column.
type Feature struct {
	Column  string  // model column name
	Label   string  // form label
	Flag    string  // CLI flag / form field name
	Default float64 // prefilled form value
	Integer bool    // whole numbers only
}

// Features is the ordered feature catalogue. Index i is column i of the row.
var Features = [NumFeatures]Feature{
	{Column: FeatureTemperature, Label: "Temperature", Flag: "temperature", Default: 50.0},
	{Column: FeaturePressure, Label: "Pressure", Flag: "pressure", Default: 10.0},
	{Column: FeatureVibration, Label: "Vibration", Flag: "vibration", Default: 5.0},
	{Column: FeatureHumidity, Label: "Humidity", Flag: "humidity", Default: 40.0},
	{Column: FeatureFlowRate, Label: "Flow Rate", Flag: "flow-rate", Default: 100.0},
	{Column: FeaturePowerConsumption, Label: "Power Consumption", Flag: "power-consumption", Default: 200.0},
	{Column: FeatureRuntimeHours, Label: "Runtime Hours", Flag: "runtime-hours", Default: 1000.0},
	{Column: FeatureDaysSinceService, Label: "Days Since Last Service", Flag: "days-since-service", Default: 30, Integer: true},
}

// FeatureColumns returns the column names in row order.
func FeatureColumns() []string {
	cols := make([]string, NumFeatures)
	for i, f := range Features {
		cols[i] = f.Column
	}
	return cols
}

// FeatureIndex returns the row index of a column name, or -1.
func FeatureIndex(column string) int {
	for i, f := range Features {
		if f.Column == column {
			return i
		}
	}
	return -1
}

// Reading is one manually entered set of sensor values.
type Reading struct {
	Temperature      float64 `json:"temperature" yaml:"temperature"`
	Pressure         float64 `json:"pressure" yaml:"pressure"`
	Vibration        float64 `json:"vibration" yaml:"vibration"`
	Humidity         float64 `json:"humidity" yaml:"humidity"`
	FlowRate         float64 `json:"flow_rate" yaml:"flow_rate"`
	PowerConsumption float64 `json:"power_consumption" yaml:"power_consumption"`
	RuntimeHours     float64 `json:"runtime_hours" yaml:"runtime_hours"`
	DaysSinceService float64 `json:"days_since_service" yaml:"days_since_service"`
}

// DefaultReading returns the form's prefilled values.
func DefaultReading() Reading {
	var r Reading
	for i, f := range Features {
		r.setIndex(i, f.Default)
	}
	return r
}

// Vector returns the values in feature order.
func (r Reading) Vector() []float64 {
	return []float64{
		r.Temperature,
		r.Pressure,
		r.Vibration,
		r.Humidity,
		r.FlowRate,
		r.PowerConsumption,
		r.RuntimeHours,
		r.DaysSinceService,
	}
}

// ReadingFromVector builds a Reading from a row in feature order.
func ReadingFromVector(v []float64) (Reading, error) {
	var r Reading
	if len(v) != NumFeatures {
		return r, fmt.Errorf("reading: expected %d values, got %d", NumFeatures, len(v))
	}
	for i, x := range v {
		r.setIndex(i, x)
	}
	return r, nil
}

// Get returns the value of a column.
func (r Reading) Get(column string) (float64, error) {
	i := FeatureIndex(column)
	if i < 0 {
		return 0, fmt.Errorf("reading: unknown feature %q", column)
	}
	return r.Vector()[i], nil
}

// Set assigns the value of a column.
func (r *Reading) Set(column string, v float64) error {
	i := FeatureIndex(column)
	if i < 0 {
		return fmt.Errorf("reading: unknown feature %q", column)
	}
	r.setIndex(i, v)
	return nil
}

func (r *Reading) setIndex(i int, v float64) {
	switch i {
	case 0:
		r.Temperature = v
	case 1:
		r.Pressure = v
	case 2:
		r.Vibration = v
	case 3:
		r.Humidity = v
	case 4:
		r.FlowRate = v
	case 5:
		r.PowerConsumption = v
	case 6:
		r.RuntimeHours = v
	case 7:
		r.DaysSinceService = v
	}
}
