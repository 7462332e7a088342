package store

import "time"

// User is a registered farmer. Farm coordinates live on the user row; there
// is no separate farmer entity.
type User struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	Email     string    `gorm:"column:email;uniqueIndex" json:"email"`
	Location  string    `gorm:"column:location" json:"location"`
	Lat       float64   `gorm:"column:lat" json:"lat"`
	Lng       float64   `gorm:"column:lng" json:"lng"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Crop lifecycle statuses.
const (
	CropPlanted    = "planted"
	CropGrowing    = "growing"
	CropHarvesting = "harvesting"
	CropHarvested  = "harvested"
	CropFailed     = "failed"
)

// UserCrop is one planting owned by a user. Maturity percent is derived at
// read time from planting_date and the catalog growth cycle, never stored.
type UserCrop struct {
	ID                  uint       `gorm:"column:id;primaryKey" json:"id"`
	UserID              uint       `gorm:"column:user_id;index" json:"user_id"`
	CropName            string     `gorm:"column:crop_name" json:"crop_name"`
	PlantingDate        time.Time  `gorm:"column:planting_date" json:"planting_date"`
	ExpectedHarvestDate *time.Time `gorm:"column:expected_harvest_date" json:"expected_harvest_date,omitempty"`
	AreaHectares        float64    `gorm:"column:area_hectares" json:"area_hectares"`
	Status              string     `gorm:"column:status;default:planted;index" json:"status"`
	HealthStatus        string     `gorm:"column:health_status" json:"health_status"`
	CreatedAt           time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (UserCrop) TableName() string { return "user_crops" }

// Alert statuses.
const (
	AlertActive   = "active"
	AlertResolved = "resolved"
)

// Alert is a raised risk finding. Severity is always derived from the
// triggering measurement through catalog thresholds. dedup_key is a
// (type, description prefix, day) hash with a unique index: the database
// backstop against double inserts racing past the in-process lock.
type Alert struct {
	ID          uint       `gorm:"column:id;primaryKey" json:"id"`
	Type        string     `gorm:"column:type;index" json:"type"`
	Severity    string     `gorm:"column:severity" json:"severity"`
	Description string     `gorm:"column:description" json:"description"`
	Status      string     `gorm:"column:status;default:active;index" json:"status"`
	DedupKey    string     `gorm:"column:dedup_key;uniqueIndex" json:"-"`
	DisasterID  *uint      `gorm:"column:disaster_id" json:"disaster_id,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
	ResolvedAt  *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

func (Alert) TableName() string { return "alerts" }

// AlertFarmer links an alert to an affected user. Linking is idempotent:
// re-linking the same pair refreshes updated_at, never duplicates.
type AlertFarmer struct {
	AlertID   uint      `gorm:"column:alert_id;primaryKey" json:"alert_id"`
	UserID    uint      `gorm:"column:user_id;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (AlertFarmer) TableName() string { return "alert_farmers" }

// Disaster statuses.
const (
	DisasterWarning  = "warning"
	DisasterActive   = "active"
	DisasterResolved = "resolved"
)

// Disaster is a located typhoon/storm candidate. candidate_key is the
// (date, rounded coordinates) aggregation key from the locator, so a
// strengthening detection updates in place instead of piling up rows.
type Disaster struct {
	ID               uint       `gorm:"column:id;primaryKey" json:"id"`
	PublicID         string     `gorm:"column:public_id;uniqueIndex" json:"public_id"`
	CandidateKey     string     `gorm:"column:candidate_key;uniqueIndex" json:"-"`
	Name             string     `gorm:"column:name" json:"name"`
	Type             string     `gorm:"column:type" json:"type"`
	Severity         string     `gorm:"column:severity" json:"severity"`
	Status           string     `gorm:"column:status;index" json:"status"`
	CenterLat        float64    `gorm:"column:center_lat" json:"center_lat"`
	CenterLng        float64    `gorm:"column:center_lng" json:"center_lng"`
	AffectedRadiusKm float64    `gorm:"column:affected_radius_km" json:"affected_radius_km"`
	WindSpeed        float64    `gorm:"column:wind_speed" json:"wind_speed"`
	StartDate        time.Time  `gorm:"column:start_date" json:"start_date"`
	EndDate          *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Disaster) TableName() string { return "disasters" }

// DisasterZone is one boundary point of a disaster's affected area.
type DisasterZone struct {
	ID         uint    `gorm:"column:id;primaryKey" json:"id"`
	DisasterID uint    `gorm:"column:disaster_id;index" json:"disaster_id"`
	Lat        float64 `gorm:"column:lat" json:"lat"`
	Lng        float64 `gorm:"column:lng" json:"lng"`
}

func (DisasterZone) TableName() string { return "disaster_zones" }

// WeatherRecord is a persisted observation. observation_id is the
// deterministic ingest hash, so topic replays upsert instead of duplicating.
type WeatherRecord struct {
	ID            uint      `gorm:"column:id;primaryKey" json:"id"`
	ObservationID string    `gorm:"column:observation_id;uniqueIndex" json:"observation_id"`
	Station       string    `gorm:"column:station;index" json:"station"`
	Lat           float64   `gorm:"column:lat" json:"lat"`
	Lng           float64   `gorm:"column:lng" json:"lng"`
	Temperature   float64   `gorm:"column:temperature" json:"temperature"`
	Humidity      float64   `gorm:"column:humidity" json:"humidity"`
	Rainfall      float64   `gorm:"column:rainfall" json:"rainfall"`
	WindSpeed     float64   `gorm:"column:wind_speed" json:"wind_speed"`
	WindGusts     float64   `gorm:"column:wind_gusts" json:"wind_gusts"`
	Condition     string    `gorm:"column:condition" json:"condition"`
	RecordedAt    time.Time `gorm:"column:recorded_at;index" json:"recorded_at"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (WeatherRecord) TableName() string { return "weather_records" }

// MarketPrice is one (crop, location, date) price row. Accuracy is the
// provenance tier derived from source and recency.
type MarketPrice struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"id"`
	CropName    string    `gorm:"column:crop_name;index:idx_prices_crop_loc_date,unique" json:"crop_name"`
	Location    string    `gorm:"column:location;index:idx_prices_crop_loc_date,unique" json:"location"`
	Date        time.Time `gorm:"column:date;index:idx_prices_crop_loc_date,unique" json:"date"`
	PricePerKg  float64   `gorm:"column:price_per_kg" json:"price_per_kg"`
	Source      string    `gorm:"column:source" json:"source"`
	Accuracy    string    `gorm:"column:accuracy" json:"accuracy"`
	DemandLevel string    `gorm:"column:demand_level" json:"demand_level"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (MarketPrice) TableName() string { return "market_prices" }

// NotificationLog records one email attempt, success or failure, so batches
// can be audited and never re-send to the same user for the same alert.
type NotificationLog struct {
	ID      string    `gorm:"column:id;primaryKey" json:"id"` // uuid
	AlertID uint      `gorm:"column:alert_id;index" json:"alert_id"`
	UserID  uint      `gorm:"column:user_id" json:"user_id"`
	Email   string    `gorm:"column:email" json:"email"`
	Status  string    `gorm:"column:status" json:"status"` // sent | failed
	Error   string    `gorm:"column:error" json:"error,omitempty"`
	SentAt  time.Time `gorm:"column:sent_at" json:"sent_at"`
}

func (NotificationLog) TableName() string { return "notification_logs" }
