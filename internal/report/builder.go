package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/trendr-app/trendr/internal/store"
)

// Builder renders detected attention flows into a digest for notification
type Builder struct {
	maxFlows int
	template *template.Template
}

// New creates a new flow digest builder
func New(maxFlows int) (*Builder, error) {
	tmpl, err := template.New("digest").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Builder{
		maxFlows: maxFlows,
		template: tmpl,
	}, nil
}

// Digest represents a compiled digest ready for sending
type Digest struct {
	Subject   string
	HTMLBody  string
	PlainBody string
	FlowIDs   []string
	CreatedAt time.Time
}

// DigestData is the template data structure
type DigestData struct {
	Title string
	Date  string
	Flows []FlowData
}

// FlowData represents one flow in the digest template
type FlowData struct {
	FromTopic     string
	ToTopic       string
	Confidence    float64
	Strength      float64
	ConfidencePct float64
	StrengthPct   float64
	Motivation    string
	Signals       []string
}

// Build creates a digest from a cycle's accepted flows. topicNames maps
// topic ids to display names.
func (b *Builder) Build(flows []store.Flow, topicNames map[string]string) (*Digest, error) {
	if len(flows) == 0 {
		return nil, fmt.Errorf("no flows to include in digest")
	}

	// Flows arrive already ordered strongest-first by the engine.
	if len(flows) > b.maxFlows {
		flows = flows[:b.maxFlows]
	}

	name := func(id string) string {
		if n, ok := topicNames[id]; ok {
			return n
		}
		return id
	}

	now := time.Now()
	data := DigestData{
		Title: "Attention Flow Digest",
		Date:  now.Format("Monday, January 2"),
		Flows: make([]FlowData, len(flows)),
	}

	flowIDs := make([]string, len(flows))
	for i, f := range flows {
		fd := FlowData{
			FromTopic:     name(f.FromTopicID),
			ToTopic:       name(f.ToTopicID),
			Confidence:    f.Confidence,
			Strength:      f.Strength,
			ConfidencePct: f.Confidence * 100,
			StrengthPct:   f.Strength * 100,
		}
		if f.Motivation != nil {
			fd.Motivation = *f.Motivation
		}
		for _, s := range f.Signals {
			fd.Signals = append(fd.Signals, fmt.Sprintf("%s (%.2f): %s", s.Type, s.Weight, s.Evidence))
		}
		data.Flows[i] = fd
		flowIDs[i] = f.ID
	}

	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Digest{
		Subject:   fmt.Sprintf("Attention flows - %s (%d detected)", now.Format("Jan 2"), len(flows)),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
		FlowIDs:   flowIDs,
		CreatedAt: now,
	}, nil
}

func buildPlainText(data DigestData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s\n%s\n\n", data.Title, data.Date))

	for i, f := range data.Flows {
		buf.WriteString(fmt.Sprintf("%d. %s -> %s (confidence %.0f%%, strength %.0f%%)\n",
			i+1, f.FromTopic, f.ToTopic, f.Confidence*100, f.Strength*100))
		if f.Motivation != "" {
			buf.WriteString(fmt.Sprintf("   shared motivation: %s\n", f.Motivation))
		}
		for _, s := range f.Signals {
			buf.WriteString(fmt.Sprintf("   - %s\n", s))
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: -apple-system, sans-serif; max-width: 640px; margin: 0 auto; padding: 16px;">
  <h1 style="font-size: 20px;">{{.Title}}</h1>
  <p style="color: #666;">{{.Date}}</p>
  {{range .Flows}}
  <div style="border: 1px solid #ddd; border-radius: 8px; padding: 12px; margin-bottom: 12px;">
    <div style="font-weight: 600;">{{.FromTopic}} &rarr; {{.ToTopic}}</div>
    <div style="color: #666; font-size: 13px;">
      confidence {{printf "%.0f%%" .ConfidencePct}} &middot; strength {{printf "%.0f%%" .StrengthPct}}
      {{if .Motivation}} &middot; motivation: {{.Motivation}}{{end}}
    </div>
    <ul style="font-size: 13px; color: #444;">
      {{range .Signals}}<li>{{.}}</li>{{end}}
    </ul>
  </div>
  {{end}}
</body>
</html>`
