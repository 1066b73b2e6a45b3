package client

import (
	"context"
	"errors"

	"applitrack/internal/models"
)

// ErrNotLoggedIn is returned by session operations that need a token.
var ErrNotLoggedIn = errors.New("not logged in")

// State is what the front end renders.
type State struct {
	Authenticated bool
	Jobs          []models.JobApplication
}

// Setters are the only way a Session changes State.
type Setters struct {
	SetAuthenticated func(bool)
	SetJobs          func([]models.JobApplication)
}

// Setters returns callbacks that write into s.
func (s *State) Setters() Setters {
	return Setters{
		SetAuthenticated: func(v bool) { s.Authenticated = v },
		SetJobs:          func(jobs []models.JobApplication) { s.Jobs = jobs },
	}
}

// Session ties the gateway client to the persisted token and the state setters.
type Session struct {
	api   *Client
	store *TokenStore
	set   Setters
}

// NewSession builds a session. set callbacks must be non-nil.
func NewSession(api *Client, store *TokenStore, set Setters) *Session {
	return &Session{api: api, store: store, set: set}
}

// Restore marks the state authenticated when a token is already stored.
func (s *Session) Restore() error {
	token, _, err := s.store.Load()
	if err != nil {
		return err
	}
	s.set.SetAuthenticated(token != "")
	return nil
}

// Signup creates an account. It does not log in.
func (s *Session) Signup(ctx context.Context, email, password, passwordConfirm string) (*models.User, error) {
	return s.api.Signup(ctx, email, password, passwordConfirm)
}

// Login authenticates and persists the token.
func (s *Session) Login(ctx context.Context, email, password string) error {
	auth, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.store.Save(auth.Token, userID(auth.Record)); err != nil {
		return err
	}
	s.set.SetAuthenticated(true)
	return nil
}

// Logout forgets the token and the loaded jobs.
func (s *Session) Logout() error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.set.SetAuthenticated(false)
	s.set.SetJobs(nil)
	return nil
}

func (s *Session) token() (string, string, error) {
	token, uid, err := s.store.Load()
	if err != nil {
		return "", "", err
	}
	if token == "" {
		return "", "", ErrNotLoggedIn
	}
	return token, uid, nil
}

// Refresh reloads the job list.
func (s *Session) Refresh(ctx context.Context) error {
	token, _, err := s.token()
	if err != nil {
		return err
	}
	jobs, err := s.api.Posts(ctx, token)
	if err != nil {
		return err
	}
	s.set.SetJobs(jobs)
	return nil
}

// AddJob records job for the logged-in user and reloads the list.
func (s *Session) AddJob(ctx context.Context, job models.JobApplication) (*models.JobApplication, error) {
	token, uid, err := s.token()
	if err != nil {
		return nil, err
	}
	if job.User == "" {
		job.User = uid
	}

	created, err := s.api.CreatePost(ctx, token, job)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// StatusCount is one bar of the dashboard chart.
type StatusCount struct {
	Status models.JobStatus
	Count  int
}

// StatusCounts groups jobs by status over every defined status, in order.
// Jobs with an undefined status are not counted.
func StatusCounts(jobs []models.JobApplication) []StatusCount {
	counts := make(map[models.JobStatus]int, len(models.JobStatuses))
	for _, job := range jobs {
		counts[job.Status]++
	}

	out := make([]StatusCount, 0, len(models.JobStatuses))
	for _, status := range models.JobStatuses {
		out = append(out, StatusCount{Status: status, Count: counts[status]})
	}
	return out
}
