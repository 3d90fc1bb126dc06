package searx

// Instances is the subset of the searx.space listing used to pick an instance.
type Instances struct {
	Instances map[string]Instance `json:"instances"`
}

type Instance struct {
	NetworkType string            `json:"network_type"`
	HTTP        HTTP              `json:"http"`
	Timing      Timing            `json:"timing"`
	Engines     map[string]Engine `json:"engines"`
}

type HTTP struct {
	StatusCode int `json:"status_code"`
}

type Stats struct {
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
}

type Search struct {
	SuccessPercentage float64 `json:"success_percentage"`
	All               Stats   `json:"all"`
}

type Timing struct {
	Search Search `json:"search"`
}

type Engine struct {
	ErrorRate int `json:"error_rate"`
}
