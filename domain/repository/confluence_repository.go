package repository

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
	goconfluence "github.com/virtomize/confluence-go-api"
)

type confluenceClient interface {
	CreateContent(c *goconfluence.Content) (*goconfluence.Content, error)
}

type ConfluenceRepository struct {
	domain     string
	ancestorID string
	spaceKey   string
	client     confluenceClient
	policy     *bluemonday.Policy
}

func NewConfluenceRepository(domain, user, password, spaceKey, ancestorID string) (*ConfluenceRepository, error) {
	api, err := goconfluence.NewAPI(
		fmt.Sprintf("https://%s.atlassian.net/wiki/rest/api", domain),
		user,
		password)
	if err != nil {
		return nil, fmt.Errorf("failed to create confluence api: %w", err)
	}
	return newConfluenceRepository(domain, spaceKey, ancestorID, api), nil
}

func newConfluenceRepository(domain, spaceKey, ancestorID string, client confluenceClient) *ConfluenceRepository {
	return &ConfluenceRepository{
		domain:     domain,
		ancestorID: ancestorID,
		spaceKey:   spaceKey,
		client:     client,
		policy:     bluemonday.UGCPolicy(),
	}
}

// RenderStorage converts markdown to sanitized HTML for the storage
// representation. Incident text is user input and may carry markup.
func (c *ConfluenceRepository) RenderStorage(markdown string) string {
	html := blackfriday.Run([]byte(markdown))
	return string(c.policy.SanitizeBytes(html))
}

// ExportTimeline creates a page and returns its URL.
func (c *ConfluenceRepository) ExportTimeline(ctx context.Context, title, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data := &goconfluence.Content{
		Type:  "page",
		Title: title,
		Body: goconfluence.Body{
			Storage: goconfluence.Storage{
				Value:          c.RenderStorage(markdown),
				Representation: "storage",
			},
		},
		Version: &goconfluence.Version{ // mandatory
			Number: 1,
		},
	}
	if c.ancestorID != "" {
		data.Ancestors = append(data.Ancestors, goconfluence.Ancestor{
			ID: c.ancestorID,
		})
	}

	if c.spaceKey != "" {
		data.Space = &goconfluence.Space{
			Key: c.spaceKey,
		}
	}

	content, err := c.client.CreateContent(data)
	if err != nil {
		return "", fmt.Errorf("failed to create confluence page: %w", err)
	}
	return c.pageURL(content), nil
}

func (c *ConfluenceRepository) pageURL(content *goconfluence.Content) string {
	if content == nil || content.ID == "" {
		return ""
	}
	if c.spaceKey == "" {
		return fmt.Sprintf("https://%s.atlassian.net/wiki/pages/viewpage.action?pageId=%s", c.domain, content.ID)
	}
	return fmt.Sprintf("https://%s.atlassian.net/wiki/spaces/%s/pages/%s", c.domain, c.spaceKey, content.ID)
}
