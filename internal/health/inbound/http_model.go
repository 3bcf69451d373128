package inbound

type PingResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type HelloResponse struct {
	Text string `json:"message"`
}

func (HelloResponse) Message() string { return "hello" }

type ProbeResponse struct {
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	LatencyMS   int64    `json:"latency_ms"`
	Collections []string `json:"collections,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type DiagnoseResponse struct {
	Backend          string          `json:"backend"`
	Database         string          `json:"database"`
	DatabaseURL      string          `json:"database_url"`
	DatabaseName     string          `json:"database_name"`
	ConnectionStatus string          `json:"connection_status"`
	Collections      []string        `json:"collections"`
	StorageDriver    string          `json:"storage_driver"`
	Probes           []ProbeResponse `json:"probes"`
}

func (DiagnoseResponse) Message() string { return "diagnostics" }
