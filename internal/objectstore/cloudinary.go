package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary stores objects as image assets under the Folder prefix. The
// returned path is the asset public id, which is what Destroy expects.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	Folder string
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %v", err)
	}
	return &Cloudinary{cld: cld, Folder: folder}, nil
}

// versionSegment matches the "v<digits>/" delivery version Cloudinary puts
// in front of the public id.
var versionSegment = regexp.MustCompile(`^v[0-9]+/`)

func (c *Cloudinary) PublicRoot() string {
	return "https://res.cloudinary.com/" + c.cld.Config.Cloud.CloudName + "/image/upload/"
}

// PathFromURL turns a delivery URL back into the public id Destroy expects.
func (c *Cloudinary) PathFromURL(publicURL string) (string, error) {
	if rest, ok := strings.CutPrefix(publicURL, "http://"); ok {
		publicURL = "https://" + rest
	}
	p, err := TrimPublicRoot(c.PublicRoot(), publicURL)
	if err != nil {
		return "", err
	}
	p = versionSegment.ReplaceAllString(p, "")
	return strings.TrimSuffix(p, path.Ext(p)), nil
}

func (c *Cloudinary) publicID(objectPath string) string {
	id := strings.TrimSuffix(objectPath, path.Ext(objectPath))
	if c.Folder == "" {
		return id
	}
	return c.Folder + "/" + id
}

func (c *Cloudinary) Put(ctx context.Context, objectPath string, r io.Reader, contentType string) (Object, error) {
	resp, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:       c.publicID(objectPath),
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
		ResourceType:   "image",
	})
	if err != nil {
		return Object{}, fmt.Errorf("upload error: %v", err)
	}
	if resp.Error.Message != "" {
		return Object{}, fmt.Errorf("upload error: %s", resp.Error.Message)
	}
	return Object{Path: resp.PublicID, URL: resp.SecureURL}, nil
}

func (c *Cloudinary) Remove(ctx context.Context, objectPath string) error {
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     objectPath,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("delete error: %v", err)
	}
	switch resp.Result {
	case "ok":
		return nil
	case "not found":
		return ErrNotFound
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("delete error: %s", resp.Error.Message)
	}
	return fmt.Errorf("delete error: unexpected result %q", resp.Result)
}
