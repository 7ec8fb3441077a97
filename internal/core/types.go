package core

import "time"

// Status classifies a content item by its publish date.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
)

// Article is a marketing article row from the content sheet.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Author      string `json:"author"`
	Summary     string `json:"summary"`
	Body        string `json:"body,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	PublishDate string `json:"publishDate,omitempty"`
	Status      Status `json:"status"`
}

// ScheduleItem is one entry of the posting schedule sheet.
type ScheduleItem struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Time    string `json:"time,omitempty"`
	Channel string `json:"channel"`
	Title   string `json:"title"`
	Owner   string `json:"owner,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Status  Status `json:"status"`
}

// Story is a customer success story row.
type Story struct {
	ID          string `json:"id"`
	Customer    string `json:"customer"`
	Headline    string `json:"headline"`
	Quote       string `json:"quote,omitempty"`
	Product     string `json:"product,omitempty"`
	Region      string `json:"region,omitempty"`
	PublishDate string `json:"publishDate,omitempty"`
	Status      Status `json:"status"`
}

// User is a dashboard account row from the Users sheet.
type User struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"-"`
}

// IsValid checks the user has the fields login needs.
func (u User) IsValid() bool {
	return u.Email != "" && u.Password != ""
}

// DashboardMetrics holds the headline numbers the dashboard renders.
type DashboardMetrics struct {
	TotalArticles int       `json:"totalArticles"`
	Published     int       `json:"published"`
	Scheduled     int       `json:"scheduled"`
	Drafts        int       `json:"drafts"`
	Impressions   int64     `json:"impressions"`
	Clicks        int64     `json:"clicks"`
	Leads         int64     `json:"leads"`
	Conversions   int64     `json:"conversions"`
	Demo          bool      `json:"demo"`
	RefreshedAt   time.Time `json:"refreshedAt"`
	Source        string    `json:"source"`
}

// ContentBundle groups the three content collections, as returned by
// the combined endpoint.
type ContentBundle struct {
	Articles []Article      `json:"articles"`
	Schedule []ScheduleItem `json:"schedule"`
	Stories  []Story        `json:"stories"`
}
