// Package state persists window and tab layouts between runs.
//
// Two logical stores exist. The active store tracks the live layout of the
// current window for mid-session recovery; the closed store holds the layout
// written at shutdown and is consumed once at the next startup. Each store
// holds zero or one record.
package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidSession marks a record that fails validation.
	ErrInvalidSession = errors.New("invalid window session")

	// ErrCorrupt marks a backing store whose content could not be decoded.
	ErrCorrupt = errors.New("session store corrupt")
)

var validate = validator.New()

// WindowSession is the persisted layout of one window.
type WindowSession struct {
	WindowID       string    `json:"window_id" validate:"required"`
	TabPages       []int     `json:"tab_pages" validate:"min=1,max=3,dive,min=1,max=164"`
	ActiveTabIndex int       `json:"active_tab_index" validate:"gte=0"`
	X              float64   `json:"x"`
	Y              float64   `json:"y"`
	Width          float64   `json:"width" validate:"gte=0"`
	Height         float64   `json:"height" validate:"gte=0"`
	Maximized      bool      `json:"maximized"`
	Timestamp      time.Time `json:"timestamp"`
}

// Validate checks field bounds and that the active tab exists.
func (s WindowSession) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if s.ActiveTabIndex >= len(s.TabPages) {
		return fmt.Errorf("%w: active tab %d of %d", ErrInvalidSession, s.ActiveTabIndex, len(s.TabPages))
	}
	return nil
}

func (s WindowSession) clone() WindowSession {
	s.TabPages = append([]int(nil), s.TabPages...)
	return s
}
