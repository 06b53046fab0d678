package listing

import (
	"strconv"
	"strings"

	"caremonitor/internal/gateway"
)

// LoadFailedMessage is shown when a fetch fails without a usable message.
const LoadFailedMessage = "Failed to load items. Please try again."

// DisplayItem is a record shaped for rendering.
type DisplayItem struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Description string `json:"description"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Avatar      string `json:"avatar"`
}

// NewDisplayItem derives the display fields of r.
func NewDisplayItem(r gateway.RawRecord) DisplayItem {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if name == "" {
		name = "User " + strconv.Itoa(r.ID)
	}
	email := r.Email
	if email == "" {
		email = "No email"
	}
	return DisplayItem{
		ID:          r.ID,
		Name:        name,
		Email:       r.Email,
		Description: "User ID: " + strconv.Itoa(r.ID) + " - " + email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Avatar:      r.Avatar,
	}
}

// NewDisplayItems maps every record, preserving order.
func NewDisplayItems(records []gateway.RawRecord) []DisplayItem {
	items := make([]DisplayItem, 0, len(records))
	for _, r := range records {
		items = append(items, NewDisplayItem(r))
	}
	return items
}

// State is the list view snapshot. It is replaced as a whole on every
// transition.
type State struct {
	Items      []DisplayItem `json:"items"`
	Loading    bool          `json:"loading"`
	Error      string        `json:"error,omitempty"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// InitialState is the empty list before any fetch.
func InitialState() State {
	return State{
		Items:   []DisplayItem{},
		Page:    gateway.DefaultPage,
		PerPage: gateway.DefaultPerPage,
	}
}

func (s State) clone() State {
	items := make([]DisplayItem, len(s.Items))
	copy(items, s.Items)
	s.Items = items
	return s
}

// HasNext reports whether a later page exists.
func (s State) HasNext() bool {
	return s.Page < s.TotalPages
}

// HasPrev reports whether an earlier page exists.
func (s State) HasPrev() bool {
	return s.Page > 1
}
