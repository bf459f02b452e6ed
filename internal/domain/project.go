// Package domain holds the value types of a creative project graph.
//
// Values are passed and returned by value; slices inside them belong to the
// holder and are never shared with the store. Optional scalars are pointers.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid marks a value that breaks a structural invariant of the graph.
var ErrInvalid = errors.New("invalid domain value")

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}

// Project is the root of the graph.
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Type        ProjectType   `json:"type"`
	Status      ProjectStatus `json:"status"`
	Phase       ProjectPhase  `json:"phase"`
	Priority    Priority      `json:"priority"`
	OwnerID     *string       `json:"ownerId"`
	Tags        []string      `json:"tags"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Content is a media or text asset attached to a project.
type Content struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"projectId"`
	Type      ContentType       `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	URL       *string           `json:"url"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Deliverable is something the project owes to someone by a date.
type Deliverable struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"projectId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      DeliverableStatus `json:"status"`
	DueDate     *time.Time        `json:"dueDate"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// PublishingProject describes where and when a project is released.
type PublishingProject struct {
	ID          string             `json:"id"`
	ProjectID   string             `json:"projectId"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Platform    PublishingPlatform `json:"platform"`
	Status      PublishingStatus   `json:"status"`
	Channels    []string           `json:"channels"`
	ScheduledAt *time.Time         `json:"scheduledAt"`
	PublishedAt *time.Time         `json:"publishedAt"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// ProjectBible is the world-building reference of a project. It only
// travels inside a factory.
type ProjectBible struct {
	ID            string            `json:"id"`
	ProjectID     string            `json:"projectId"`
	Title         string            `json:"title"`
	Logline       string            `json:"logline"`
	WorldBuilding string            `json:"worldBuilding"`
	Tone          string            `json:"tone"`
	Rules         []string          `json:"rules"`
	Glossary      map[string]string `json:"glossary"`
}
