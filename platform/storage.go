package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
)

// StorageGateway is the object-storage boundary: one atomic put or delete per
// object (avatars, attachments). No chunking or resumability.
type StorageGateway struct {
	c *Client
}

func (c *Client) Storage() StorageGateway { return StorageGateway{c: c} }

type storedObject struct {
	URL string `json:"url"`
}

// Upload stores an object under bucket/name and returns its retrievable reference.
func (g StorageGateway) Upload(ctx context.Context, bucket, name string, r io.Reader, contentType string) (string, error) {
	u := g.c.baseURL + "/storage/v1/" + bucket + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, r)
	if err != nil {
		return "", errors.Wrap(err, "platform: building upload request")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	g.c.setAuth(req.Header)

	resp, err := g.c.http.Do(req)
	if err != nil {
		return "", core.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", g.c.errorFrom(resp)
	}
	var out storedObject
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", core.NewNetworkError(errors.Wrap(err, "decoding upload response"))
	}
	return out.URL, nil
}

// Remove deletes an object. Deleting a missing object is a NotFoundError.
func (g StorageGateway) Remove(ctx context.Context, bucket, name string) error {
	return g.c.send(ctx, http.MethodDelete, "/storage/v1/"+bucket+"/"+name, nil, nil, nil)
}
