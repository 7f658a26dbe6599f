package llm

import "reelsmith/internal/media/imageref"

// maxImagesPerRequest bounds product images attached to one request.
const maxImagesPerRequest = 3

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

func textPart(text string) contentPart {
	return contentPart{Type: "text", Text: text}
}

// imageParts converts up to limit references, skipping ones that cannot be
// read. The second return lists the skipped references' errors.
func imageParts(refs []string, limit int) ([]contentPart, []error) {
	var parts []contentPart
	var skipped []error
	for _, ref := range refs {
		if limit > 0 && len(parts) >= limit {
			break
		}
		url, err := imageref.Resolve(ref)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: url}})
	}
	return parts, skipped
}
