package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// AlertResponse represents a persisted alert
type AlertResponse struct {
	ID           string   `json:"id" example:"alert_1724900000000_3fa4b2c1"`
	Timestamp    float64  `json:"timestamp" example:"1724900000.123"`
	Status       string   `json:"status" example:"suspicious"`
	Identity     *string  `json:"identity,omitempty" example:"unknown_person"`
	Confidence   *float64 `json:"confidence,omitempty" example:"0.87"`
	Angle        *float64 `json:"angle,omitempty" example:"42.5"`
	Distance     *float64 `json:"distance,omitempty" example:"3.2"`
	SnapshotPath *string  `json:"snapshot_path,omitempty" example:"static/snapshots/alert_1724900000000_3fa4b2c1.jpg"`
	Acknowledged bool     `json:"acknowledged" example:"false"`
}

// AlertListResponse wraps a page of alerts
type AlertListResponse struct {
	Alerts []AlertResponse `json:"alerts"`
	Count  int             `json:"count" example:"20"`
}

// AlertCreatedResponse returns the id assigned to an ingested alert
type AlertCreatedResponse struct {
	ID string `json:"id" example:"alert_1724900000000_3fa4b2c1"`
}

// AckResponse confirms an acknowledgement
type AckResponse struct {
	Status  string `json:"status" example:"acknowledged"`
	AlertID string `json:"alert_id" example:"alert_1724900000000_3fa4b2c1"`
}

// FrameIngestResponse confirms a frame update
type FrameIngestResponse struct {
	Status    string `json:"status" example:"ok"`
	Size      int    `json:"size" example:"48213"`
	FaceCount int    `json:"face_count" example:"2"`
}

// FrameDataResponse is the one-shot frame fetch
type FrameDataResponse struct {
	Frame     *string `json:"frame" example:"data:image/jpeg;base64,/9j/4AAQ..."`
	FaceCount int     `json:"face_count" example:"1"`
}

// NLPRequest is an operator command
type NLPRequest struct {
	Text string `json:"text" example:"what's the status"`
}

// NLPResponse is the classified command
type NLPResponse struct {
	Intent string `json:"intent" example:"status"`
	Text   string `json:"text" example:"System status: 4 total alerts. 2 unacknowledged."`
	Action string `json:"action" example:"none"`
	TTS    string `json:"tts,omitempty" example:"static/tts/tts_1724900000000.wav"`
	OK     bool   `json:"ok" example:"true"`
}

// WhitelistPersonResponse represents one whitelist entry
type WhitelistPersonResponse struct {
	ID           int64    `json:"id" example:"1"`
	Name         string   `json:"name" example:"Alice"`
	SampleImages []string `json:"sample_images"`
	SampleCount  int      `json:"sample_count" example:"3"`
	CreatedAt    float64  `json:"created_at" example:"1724900000.0"`
}

// WhitelistListResponse wraps the whitelist
type WhitelistListResponse struct {
	Whitelist []WhitelistPersonResponse `json:"whitelist"`
	Count     int                       `json:"count" example:"2"`
}

// HealthResponse reports service health
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// MetricsResponse reports operational counters
type MetricsResponse struct {
	AlertsTotal          int64  `json:"alerts_total" example:"12"`
	AlertsUnacknowledged int64  `json:"alerts_unacknowledged" example:"3"`
	StreamSubscribers    int    `json:"stream_subscribers" example:"1"`
	StoragePath          string `json:"storage_path" example:"./storage"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Patrol Hub API",
		Version:     "v0.1.0",
		Description: "Backend hub for the patrol robot: alert intake and review, live video relay, event streaming, and natural-language commands",
		Host:        "localhost:8000",
	})

	internalError := response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	unauthorized := response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid API key"}, "401", "Unauthorized")
	validationFailed := response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "400", "Bad Request")

	endpoints := []*endpoint.EndPoint{
		// POST /frame - robot pushes the latest camera frame
		endpoint.New(
			endpoint.POST,
			"/frame",
			endpoint.WithTags("Video"),
			endpoint.WithSummary("Push the latest camera frame"),
			endpoint.WithDescription("Replaces the current frame with the uploaded JPEG and its detection boxes. Older frames are discarded, not queued."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FrameIngestResponse{}, "200", "Frame accepted"),
			}),
			endpoint.WithErrors([]response.Response{validationFailed, unauthorized, internalError}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /video_feed - MJPEG stream
		endpoint.New(
			endpoint.GET,
			"/video_feed",
			endpoint.WithTags("Video"),
			endpoint.WithSummary("Live MJPEG stream"),
			endpoint.WithDescription("Continuous multipart/x-mixed-replace stream of the current frame at the configured cadence."),
			endpoint.WithProduce([]mime.MIME{mime.MIME("multipart/x-mixed-replace")}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(struct{}{}, "200", "MJPEG stream"),
			}),
		),

		// GET /frame_data - one-shot frame fetch
		endpoint.New(
			endpoint.GET,
			"/frame_data",
			endpoint.WithTags("Video"),
			endpoint.WithSummary("Current frame as JSON"),
			endpoint.WithDescription("Returns the current frame as a base64 data URI together with its detection boxes, or null when no frame has arrived yet."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FrameDataResponse{}, "200", "Current frame"),
			}),
		),

		// POST /alert - robot reports a detection
		endpoint.New(
			endpoint.POST,
			"/alert",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Ingest a detection alert"),
			endpoint.WithDescription("Persists the alert from the payload form field (JSON), stores an optional snapshot image, and broadcasts the alert to stream subscribers."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AlertCreatedResponse{}, "200", "Alert stored"),
			}),
			endpoint.WithErrors([]response.Response{validationFailed, unauthorized, internalError}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /alerts - list alerts
		endpoint.New(
			endpoint.GET,
			"/alerts",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("List alerts"),
			endpoint.WithDescription("Newest first. Filters are conjunctive."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Page size (default 20)")),
				parameter.IntParam("offset", parameter.Query, parameter.WithDescription("Rows to skip")),
				parameter.StrParam("status", parameter.Query, parameter.WithDescription("friendly | unknown | suspicious")),
				parameter.StrParam("acknowledged", parameter.Query, parameter.WithDescription("true | false")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AlertListResponse{}, "200", "Alerts page"),
			}),
			endpoint.WithErrors([]response.Response{validationFailed, internalError}),
		),

		// GET /alerts/:id - fetch one alert
		endpoint.New(
			endpoint.GET,
			"/alerts/{id}",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Get one alert"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Alert id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AlertResponse{}, "200", "Alert"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "ALERT_NOT_FOUND", Message: "Alert not found"}, "404", "Not Found"),
				internalError,
			}),
		),

		// POST /alerts/:id/ack - acknowledge
		endpoint.New(
			endpoint.POST,
			"/alerts/{id}/ack",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Acknowledge an alert"),
			endpoint.WithDescription("Idempotent: acknowledging twice succeeds, but the ack event is broadcast only the first time."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Alert id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AckResponse{}, "200", "Acknowledged"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "ALERT_NOT_FOUND", Message: "Alert not found"}, "404", "Not Found"),
				internalError,
			}),
		),

		// POST /nlp - operator command
		endpoint.New(
			endpoint.POST,
			"/nlp",
			endpoint.WithTags("Commands"),
			endpoint.WithSummary("Interpret an operator command"),
			endpoint.WithDescription("Classifies free text into an intent and robot action via the keyword rule table; first matching rule wins."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(NLPResponse{}, "200", "Classified command"),
			}),
			endpoint.WithErrors([]response.Response{validationFailed, internalError}),
		),

		// GET /whitelist - list known-friendly people
		endpoint.New(
			endpoint.GET,
			"/whitelist",
			endpoint.WithTags("Whitelist"),
			endpoint.WithSummary("List whitelist entries"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(WhitelistListResponse{}, "200", "Whitelist"),
			}),
			endpoint.WithErrors([]response.Response{internalError}),
		),

		// POST /whitelist/add - register a friendly person
		endpoint.New(
			endpoint.POST,
			"/whitelist/add",
			endpoint.WithTags("Whitelist"),
			endpoint.WithSummary("Add or replace a whitelist entry"),
			endpoint.WithDescription("Stores the uploaded sample images and upserts the person keyed by name. A repeat name replaces the previous samples wholesale."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(WhitelistPersonResponse{}, "200", "Entry stored"),
			}),
			endpoint.WithErrors([]response.Response{validationFailed, internalError}),
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("System"),
			endpoint.WithSummary("Health check"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Healthy"),
			}),
		),

		// GET /metrics
		endpoint.New(
			endpoint.GET,
			"/metrics",
			endpoint.WithTags("System"),
			endpoint.WithSummary("Operational counters"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MetricsResponse{}, "200", "Metrics"),
			}),
			endpoint.WithErrors([]response.Response{internalError}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
