package targeting

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log"
)

// ImageContent is one image of a resolved campaign as served to a terminal.
type ImageContent struct {
	ID          string `json:"id"`
	CampaignID  string `json:"campaign_id"`
	Order       int    `json:"order_index"`
	DisplayTime int    `json:"display_time"`
	URL         string `json:"url"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	Checksum    string `json:"checksum"`
}

// CampaignContent is a resolved campaign enriched with its image payload.
type CampaignContent struct {
	ResolvedCampaign
	Images []ImageContent
}

// Assembler attaches image payloads to resolved campaigns. It performs no
// further filtering or reordering of the campaign list.
type Assembler struct {
	images ImageSource
}

func NewAssembler(images ImageSource) *Assembler {
	return &Assembler{images: images}
}

// Attach loads the active images of every campaign in the resolution, in
// display order, with each image's effective display time resolved against
// the campaign default. An image fetch failure empties that one campaign's
// image list; it never drops the campaign or fails the batch.
func (a *Assembler) Attach(ctx context.Context, res *Resolution) []CampaignContent {
	out := make([]CampaignContent, 0, len(res.Campaigns))
	for _, rc := range res.Campaigns {
		content := CampaignContent{ResolvedCampaign: rc, Images: []ImageContent{}}

		images, err := a.images.ActiveImages(ctx, rc.Campaign.ID)
		if err != nil {
			log.Printf("targeting: images for campaign %s: %v", rc.Campaign.ID, err)
			out = append(out, content)
			continue
		}

		for _, img := range images {
			content.Images = append(content.Images, ImageContent{
				ID:          img.ID,
				CampaignID:  rc.Campaign.ID,
				Order:       img.Order,
				DisplayTime: img.EffectiveDisplayTime(rc.Campaign.DefaultDisplayTime),
				URL:         img.URL,
				Width:       img.Width,
				Height:      img.Height,
				MimeType:    img.MimeType,
				SizeBytes:   img.SizeBytes,
				Checksum:    ImageChecksum(img.ID),
			})
		}
		out = append(out, content)
	}
	return out
}

// ImageChecksum derives the cache-busting token clients use to detect
// content changes for an image.
func ImageChecksum(imageID string) string {
	sum := md5.Sum([]byte(imageID))
	return hex.EncodeToString(sum[:])
}
