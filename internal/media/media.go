// Package media classifies post media once at ingestion. Every media
// reference is either a hosted public URL or an inline data URI, and
// either an image or a video; the rest of the pipeline works with the
// parsed Item instead of re-sniffing strings at each stage.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

const dataURIPrefix = "data:"

var videoExtensions = []string{".mp4", ".mov", ".avi", ".wmv"}

type Item struct {
	Kind Kind
	URL  string // set when the media is publicly hosted
	Data []byte // set when the media is an inline payload
	MIME string
}

// Inline reports whether the item still carries raw bytes instead of
// a hosted URL.
func (i Item) Inline() bool {
	return i.URL == ""
}

// Ref returns the storable string form of the item.
func (i Item) Ref() string {
	if !i.Inline() {
		return i.URL
	}
	return dataURIPrefix + i.MIME + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Parse classifies a single media reference.
func Parse(ref string) (Item, error) {
	if strings.HasPrefix(ref, dataURIPrefix) {
		return parseDataURI(ref)
	}
	if ref == "" {
		return Item{}, errors.New("empty media reference")
	}

	kind := KindImage
	lower := strings.ToLower(ref)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			kind = KindVideo
			break
		}
	}
	return Item{Kind: kind, URL: ref}, nil
}

func parseDataURI(ref string) (Item, error) {
	head, payload, found := strings.Cut(ref, ",")
	if !found {
		return Item{}, errors.New("malformed data URI")
	}

	mimeType := strings.TrimPrefix(strings.Split(head, ";")[0], dataURIPrefix)

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return Item{}, fmt.Errorf("failed to decode media payload: %w", err)
	}

	if mimeType == "" {
		if t, err := filetype.Match(data); err == nil && t != filetype.Unknown {
			mimeType = t.MIME.Value
		}
	}

	kind := KindImage
	if strings.HasPrefix(mimeType, "video/") {
		kind = KindVideo
	}

	return Item{Kind: kind, Data: data, MIME: mimeType}, nil
}

// ParseAll classifies every reference in order.
func ParseAll(refs []string) ([]Item, error) {
	items := make([]Item, 0, len(refs))
	for i, ref := range refs {
		item, err := Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("media entry %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Refs converts items back to their storable string forms.
func Refs(items []Item) []string {
	refs := make([]string, 0, len(items))
	for _, item := range items {
		refs = append(refs, item.Ref())
	}
	return refs
}
