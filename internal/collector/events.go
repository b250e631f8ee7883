package collector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	apperrors "forknight/internal/errors"
	"forknight/internal/models"

	gogithub "github.com/google/go-github/v57/github"
)

// Events fetches the viewer's recent public events, newest first, and keeps
// those at or after since. Paging stops at the configured event cap, on a short
// page, or once a page reaches past since.
func (c *Collector) Events(ctx context.Context, viewer models.Viewer, since time.Time) ([]models.ActivityEvent, error) {
	if viewer.Login == "" {
		return nil, fmt.Errorf("%w: login is required to list events", apperrors.ErrInvalidInput)
	}

	path := "/users/" + url.PathEscape(viewer.Login) + "/events"
	perPage := c.perPage
	if perPage > c.maxEvents {
		perPage = c.maxEvents
	}

	var (
		events  []models.ActivityEvent
		fetched int
	)
	for page := 1; fetched < c.maxEvents; page++ {
		query := url.Values{
			"per_page": {strconv.Itoa(perPage)},
			"page":     {strconv.Itoa(page)},
		}

		var batch []*gogithub.Event
		if err := c.api.GetJSON(ctx, viewer.Token, path, query, &batch); err != nil {
			return nil, fmt.Errorf("fetching events page %d: %w", page, err)
		}
		full := len(batch) == perPage
		if remaining := c.maxEvents - fetched; len(batch) > remaining {
			batch = batch[:remaining]
		}
		fetched += len(batch)

		reachedEnd := false
		for _, raw := range batch {
			event := normalizeEvent(raw)
			if event.Timestamp.Before(since) {
				reachedEnd = true
				continue
			}
			events = append(events, event)
		}

		if reachedEnd || !full {
			break
		}
	}

	c.logger.Debug().
		Str("login", viewer.Login).
		Int("fetched", fetched).
		Int("kept", len(events)).
		Msg("Collected events")

	return events, nil
}

// normalizeEvent maps a raw GitHub event onto an ActivityEvent. Unparseable
// payloads still yield an event of the right type with default details.
func normalizeEvent(raw *gogithub.Event) models.ActivityEvent {
	event := models.ActivityEvent{
		ID:        raw.GetID(),
		Type:      models.EventOther,
		Repo:      raw.GetRepo().GetName(),
		Timestamp: raw.GetCreatedAt().Time,
	}

	payload, _ := raw.ParsePayload()

	switch raw.GetType() {
	case "PushEvent":
		event.Type = models.EventPush
		event.Commits = 1
		if p, ok := payload.(*gogithub.PushEvent); ok {
			event.Commits = pushCommits(p)
		}
	case "PullRequestEvent":
		event.Type = models.EventPullRequest
		if p, ok := payload.(*gogithub.PullRequestEvent); ok {
			event.Opened = p.GetAction() == "opened"
			event.Merged = p.GetAction() == "closed" && p.GetPullRequest().GetMerged()
		}
	case "IssuesEvent":
		event.Type = models.EventIssue
		if p, ok := payload.(*gogithub.IssuesEvent); ok {
			event.Opened = p.GetAction() == "opened"
		}
	case "PullRequestReviewEvent":
		event.Type = models.EventReview
	case "CreateEvent":
		if p, ok := payload.(*gogithub.CreateEvent); ok && p.GetRefType() == "repository" {
			event.Type = models.EventCreateRepo
		}
	}

	return event
}

// pushCommits counts the commits of a push. Payloads may omit size, in which
// case the embedded commit list is used, and every push counts at least once.
func pushCommits(p *gogithub.PushEvent) int {
	n := p.GetSize()
	if n == 0 {
		n = len(p.Commits)
	}
	if n < 1 {
		n = 1
	}
	return n
}
