package models

// SensorReading is one reading from a ground sensor.
type SensorReading struct {
	Parameter   string     `json:"parameter"`
	Value       float64    `json:"value"`
	Unit        string     `json:"unit,omitempty"`
	PeriodStart *Timestamp `json:"periodStart,omitempty"`
}

// SensorPeriod reports one aggregation period of a sensor.
type SensorPeriod struct {
	Period    string `json:"period"`
	Available bool   `json:"available"`
	Count     int    `json:"count"`
}

// SensorAverage is the mean of one parameter over the selected period.
type SensorAverage struct {
	Parameter string  `json:"parameter"`
	Mean      float64 `json:"mean"`
	Rounded   int     `json:"rounded"`
	Count     int     `json:"count"`
}

// Sensor is the response for GET /v1/sensors/{sensorId}.
type Sensor struct {
	SensorID   string          `json:"sensorId"`
	Period     string          `json:"period"`
	Parameter  string          `json:"parameter,omitempty"`
	Periods    []SensorPeriod  `json:"periods"`
	Parameters []string        `json:"parameters"`
	Readings   []SensorReading `json:"readings"`
	Average    *SensorAverage  `json:"average,omitempty"`
	FetchedAt  *Timestamp      `json:"fetchedAt,omitempty"`
}
