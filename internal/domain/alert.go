package domain

// Alert is a persisted detection event. The id is unique and immutable;
// every field except Acknowledged is write-once at creation.
type Alert struct {
	ID           string         `json:"id"`
	Timestamp    float64        `json:"timestamp"`
	Status       string         `json:"status"`
	Identity     *string        `json:"identity"`
	Confidence   *float64       `json:"confidence"`
	Angle        *float64       `json:"angle"`
	Distance     *float64       `json:"distance"`
	SnapshotPath *string        `json:"snapshot_path"`
	Acknowledged bool           `json:"acknowledged"`
	Meta         map[string]any `json:"meta"`
}

// Conventional alert statuses. Status is a free-form label; these are the
// values the perception clients actually send.
const (
	StatusFriendly   = "friendly"
	StatusUnknown    = "unknown"
	StatusSuspicious = "suspicious"
)

// AlertCounts aggregates the alert table for status reports.
type AlertCounts struct {
	Total          int `json:"total"`
	Unacknowledged int `json:"unacknowledged"`
	Friendly       int `json:"friendly"`
	Unknown        int `json:"unknown"`
	Suspicious     int `json:"suspicious"`
}

// WhitelistPerson is a known identity with enrollment images. Name is the
// key; re-adding a name replaces the whole record.
type WhitelistPerson struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	SampleImages []string `json:"sample_images"`
	SampleCount  int      `json:"sample_count"`
	CreatedAt    float64  `json:"created_at"`
}
