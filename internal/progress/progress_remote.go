package progress

import (
	"context"
	"errors"
	"net/url"

	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
)

// ProgressRemote progress stored by the course platform, the user is implied by the bearer token
type ProgressRemote struct {
	Client *apiclient.Client
}

var _ ProgressRepository = &ProgressRemote{}

// NewProgressRemote .
func NewProgressRemote(client *apiclient.Client) *ProgressRemote {
	return &ProgressRemote{Client: client}
}

func progressPath(courseID string) string {
	return "/course/" + url.PathEscape(courseID) + "/progress"
}

// FetchProgress 404 means the learner has no stored progress
func (pr *ProgressRemote) FetchProgress(ctx context.Context, userID, courseID string) (*Snapshot, error) {
	out := new(Snapshot)
	if err := pr.Client.Get(ctx, progressPath(courseID), out); err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	// enrollment exists but nothing was ever saved
	if out.TechnicalDone == nil && out.QuizDone == nil && out.CurrentSection == "" {
		return nil, nil
	}
	return out, nil
}

// SaveProgress .
func (pr *ProgressRemote) SaveProgress(ctx context.Context, userID, courseID string, snapshot *Snapshot) error {
	return pr.Client.Put(ctx, progressPath(courseID), snapshot, nil)
}
