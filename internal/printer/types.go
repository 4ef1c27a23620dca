package printer

// Snapshot is one point-in-time read of printer and print status. It is built
// fresh by every Fetch and never mutated afterwards.
type Snapshot struct {
	// PrinterReady is true when Klippy reports the "ready" state.
	PrinterReady bool
	// ReadyMessage explains why the printer is not ready, when it says.
	ReadyMessage string
	// PrintState is the raw print_stats.state label.
	PrintState string
	FileName   string
	// Progress is the virtual_sdcard progress fraction in [0, 1].
	Progress float64
	// EstimatedSeconds is the slicer's estimated total print time. Nil unless
	// requested with FetchOptions.WithEstimate and reported by the printer.
	EstimatedSeconds *float64
	ErrorMessage     string
}

// FetchOptions tunes a single Fetch.
type FetchOptions struct {
	// WithEstimate requests the file metadata lookup for printing or paused
	// jobs so the remaining time can be computed.
	WithEstimate bool
}

// objectsQueryResponse mirrors GET /printer/objects/query?webhooks&virtual_sdcard&print_stats.
type objectsQueryResponse struct {
	Result struct {
		Status struct {
			Webhooks      webhooksObject      `json:"webhooks"`
			PrintStats    printStatsObject    `json:"print_stats"`
			VirtualSDCard virtualSDCardObject `json:"virtual_sdcard"`
		} `json:"status"`
	} `json:"result"`
}

type webhooksObject struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

type printStatsObject struct {
	State    string `json:"state"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

type virtualSDCardObject struct {
	Progress float64 `json:"progress"`
}

// fileMetadataResponse mirrors GET /server/files/metadata.
type fileMetadataResponse struct {
	Result struct {
		EstimatedTime *float64 `json:"estimated_time"`
	} `json:"result"`
}

func clampProgress(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
