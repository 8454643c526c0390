package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/announcement"
	"github.com/shulehq/shule/sync"
)

// AnnouncementGateway is the typed remote gateway for announcements.
type AnnouncementGateway struct {
	c *Client
}

func (c *Client) Announcements() AnnouncementGateway { return AnnouncementGateway{c: c} }

func (g AnnouncementGateway) List(ctx context.Context) ([]announcement.Announcement, error) {
	var out []announcement.Announcement
	if err := g.c.get(ctx, "/v1/announcements", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g AnnouncementGateway) ByAudience(ctx context.Context, audience string) ([]announcement.Announcement, error) {
	var out []announcement.Announcement
	q := url.Values{"audience": {audience}}
	if err := g.c.get(ctx, "/v1/announcements", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g AnnouncementGateway) Create(ctx context.Context, na announcement.NewAnnouncement, authorID string) (announcement.Announcement, error) {
	if err := core.ValidateStruct(na); err != nil {
		return announcement.Announcement{}, err
	}
	return g.create(ctx, na.Announcement(authorID))
}

func (g AnnouncementGateway) create(ctx context.Context, rec announcement.Announcement) (announcement.Announcement, error) {
	var out announcement.Announcement
	if err := g.c.send(ctx, http.MethodPost, "/v1/announcements", nil, rec, &out); err != nil {
		return announcement.Announcement{}, err
	}
	return out, nil
}

func (g AnnouncementGateway) Delete(ctx context.Context, id string) error {
	return g.c.send(ctx, http.MethodDelete, "/v1/announcements/"+id, nil, nil, nil)
}

// announcementLess keeps the feed newest first.
func announcementLess(a, b core.Record) bool {
	aa, oka := a.(announcement.Announcement)
	ab, okb := b.(announcement.Announcement)
	return oka && okb && aa.CreatedAt.After(ab.CreatedAt)
}

func (g AnnouncementGateway) ListQuery() sync.Query {
	return sync.Query{
		Key:   sync.NewKey(core.EntityAnnouncement, nil),
		Fetch: fetchRecords(g.List),
		Less:  announcementLess,
	}
}

func (g AnnouncementGateway) ByAudienceQuery(audience string) sync.Query {
	return sync.Query{
		Key: sync.NewKey(core.EntityAnnouncement, sync.Params{"audience": audience}),
		Fetch: fetchRecords(func(ctx context.Context) ([]announcement.Announcement, error) {
			return g.ByAudience(ctx, audience)
		}),
		Less: announcementLess,
	}
}

func (g AnnouncementGateway) CreateMutation(na announcement.NewAnnouncement, authorID string) (sync.Mutation, error) {
	if err := core.ValidateStruct(na); err != nil {
		return sync.Mutation{}, err
	}
	rec := na.Announcement(authorID)
	return sync.Mutation{
		Entity: core.EntityAnnouncement,
		Op:     sync.OpCreate,
		Record: rec,
		Affects: func(k sync.Key) bool {
			return sync.MatchParams(k, sync.Params{"audience": rec.Audience})
		},
		Write: func(ctx context.Context) (core.Record, error) {
			out, err := g.create(ctx, rec)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}, nil
}

func (g AnnouncementGateway) DeleteMutation(rec announcement.Announcement) sync.Mutation {
	return sync.Mutation{
		Entity: core.EntityAnnouncement,
		Op:     sync.OpDelete,
		Record: rec,
		Write: func(ctx context.Context) (core.Record, error) {
			return nil, g.Delete(ctx, rec.ID)
		},
	}
}
