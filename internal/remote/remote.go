package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/labs"
)

// Client is the remote lab data source.
type Client interface {
	FetchLabs(ctx context.Context, pos geo.Coordinate) ([]labs.Lab, error)
	FetchDetail(ctx context.Context, id string) (Detail, error)
	SubmitAnswer(ctx context.Context, id, value string) (Result, error)
	SubmitReview(ctx context.Context, review Review) error
	FetchUser(ctx context.Context) (User, error)
}

// Detail is the full lab description used as notification payload.
type Detail struct {
	ID       string          `json:"id"`
	Question string          `json:"question"`
	ImageURL string          `json:"image_url,omitempty"`
	Choices  []string        `json:"choices,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

// ResultCode is the server's verdict on a submitted answer.
type ResultCode int

const (
	ResultCorrect    ResultCode = 0
	ResultPartial    ResultCode = 2
	ResultCorrectAlt ResultCode = 3
)

// Result is the response to an answer submission. Journal fields are only
// set on correct answers.
type Result struct {
	Code           ResultCode      `json:"Result"`
	JournalImage   string          `json:"JournalImageUrl,omitempty"`
	JournalVideoID string          `json:"JournalVideoYouTubeId,omitempty"`
	JournalMessage string          `json:"JournalMessage,omitempty"`
	AdventureID    string          `json:"AdventureId,omitempty"`
	Rating         json.RawMessage `json:"rating,omitempty"`
}

// HasRating reports whether the server asked for a review.
func (r Result) HasRating() bool {
	return len(r.Rating) > 0 && string(r.Rating) != "null"
}

// HasJournal reports whether any journal content is present.
func (r Result) HasJournal() bool {
	return r.JournalImage != "" || r.JournalVideoID != "" || r.JournalMessage != ""
}

// Review is a user rating for an adventure.
type Review struct {
	AdventureID string
	Rating      int
	Text        string
}

// User is the account profile returned by the data source.
type User struct {
	Username   string   `json:"username"`
	UserID     string   `json:"user_id"`
	Expire     string   `json:"membership_expire"`
	Translator []string `json:"translator"`
	Update     bool     `json:"update"`
}

// DisplayName returns the username, or "guest".
func (u User) DisplayName() string {
	if u.Username == "" {
		return "guest"
	}
	return u.Username
}

// RemoteError reports a failed fetch or submit.
type RemoteError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote %s: status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
