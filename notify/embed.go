package notify

import (
	"strings"
	"time"

	"github.com/ncurl/jobwatch/job"
)

// discordBlurple is the embed accent color.
const discordBlurple = 0x5865F2

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// buildEmbed formats a posting as a Discord embed.
func buildEmbed(p *job.Posting, matchedKeywords []string) embed {
	e := embed{
		Title: p.Company + " — " + p.Title,
		URL:   p.URL,
		Color: discordBlurple,
		Fields: []embedField{
			{Name: "Source", Value: p.SourceName, Inline: true},
		},
	}

	if p.Snippet != "" {
		e.Description = p.Snippet
	}
	if p.Location != "" {
		e.Fields = append(e.Fields, embedField{Name: "Location", Value: p.Location, Inline: true})
	}
	if p.Remote {
		e.Fields = append(e.Fields, embedField{Name: "Remote", Value: "Yes", Inline: true})
	}
	if len(matchedKeywords) > 0 {
		e.Fields = append(e.Fields, embedField{
			Name:  "Matched Keywords",
			Value: strings.Join(matchedKeywords, ", "),
		})
	}
	if p.PostedAt != nil {
		e.Timestamp = p.PostedAt.UTC().Format(time.RFC3339)
	}

	return e
}
