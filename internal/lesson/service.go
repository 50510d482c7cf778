// Package lesson talks to the Gemini API to turn an annotated snapshot into
// topics and topics into a self-contained lesson page.
package lesson

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrNoTopics is returned when a call needs at least one topic.
var ErrNoTopics = errors.New("no topics selected")

// ErrNoImage is returned when the image model answers without a picture.
var ErrNoImage = errors.New("image model returned no image")

// fallbackLesson is served when the text model returns nothing.
const fallbackLesson = "<div>Lesson generation failed</div>"

// Models names the Gemini models used in normal and pro mode.
type Models struct {
	Text     string
	ProText  string
	Image    string
	ProImage string
}

// DefaultModels returns the stock model selection.
func DefaultModels() Models {
	return Models{
		Text:     "gemini-3-flash-preview",
		ProText:  "gemini-3-pro-preview",
		Image:    "gemini-2.5-flash-image",
		ProImage: "gemini-3-pro-image-preview",
	}
}

func (m Models) text(pro bool) string {
	if pro {
		return m.ProText
	}
	return m.Text
}

func (m Models) image(pro bool) string {
	if pro {
		return m.ProImage
	}
	return m.Image
}

// Request describes a lesson to generate.
type Request struct {
	Topics  []string
	Age     int
	Type    Type
	ProMode bool
	// Extra carries free-form requirements from the learner.
	Extra string
}

// Service implements the AI calls of the application.
type Service struct {
	client *Client
	models Models
	log    *zap.Logger
}

// NewService wires a client to a model selection.
func NewService(client *Client, models Models, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{client: client, models: models, log: log}
}

var topicListConfig = generationConfig{
	ResponseMimeType: "application/json",
	ResponseSchema:   &schema{Type: "ARRAY", Items: &schema{Type: "STRING"}},
}

// Analyze sends a flattened PNG and returns the topics it shows. An answer
// that is not a JSON string list yields an empty list.
func (s *Service) Analyze(ctx context.Context, png []byte, age int) ([]string, error) {
	prompt, err := renderPrompt("analyze.tmpl", promptData{Age: age})
	if err != nil {
		return nil, err
	}
	cfg := topicListConfig
	resp, err := s.client.generate(ctx, s.models.Text, &generateRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString(png)}},
			{Text: prompt},
		}}},
		GenerationConfig: &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	topics, err := ParseTopics(resp.text())
	if err != nil {
		s.log.Warn("failed to parse analysis", zap.Error(err))
		return []string{}, nil
	}
	return topics, nil
}

// Subdivide asks for the direct prerequisites of topics. When the answer
// cannot be parsed the input topics are returned unchanged.
func (s *Service) Subdivide(ctx context.Context, topics []string, age int) ([]string, error) {
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	prompt, err := renderPrompt("subdivide.tmpl", promptData{Topics: topics, Age: age})
	if err != nil {
		return nil, err
	}
	cfg := topicListConfig
	cfg.ThinkingConfig = &thinkingConfig{ThinkingBudget: 4000}
	resp, err := s.client.generate(ctx, s.models.Text, &generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("subdivide topics: %w", err)
	}
	sub, err := ParseTopics(resp.text())
	if err != nil {
		s.log.Warn("failed to parse subdivision", zap.Error(err))
		return append([]string(nil), topics...), nil
	}
	return sub, nil
}

// Generate produces the HTML document of a lesson.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	if len(req.Topics) == 0 {
		return "", ErrNoTopics
	}
	if req.Type == "" {
		req.Type = TypeSVG
	}
	data := promptData{Topics: req.Topics, Age: req.Age, Type: req.Type, Extra: strings.TrimSpace(req.Extra)}
	if req.Type == TypeImage {
		return s.generateImage(ctx, req, data)
	}

	prompt, err := renderPrompt("lesson.tmpl", data)
	if err != nil {
		return "", err
	}
	budget := 4000
	if req.ProMode {
		budget = 8000
	}
	resp, err := s.client.generate(ctx, s.models.text(req.ProMode), &generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{ThinkingConfig: &thinkingConfig{ThinkingBudget: budget}},
	})
	if err != nil {
		return "", fmt.Errorf("generate %s lesson: %w", req.Type, err)
	}
	html := stripFences(resp.text())
	if html == "" {
		return fallbackLesson, nil
	}
	return html, nil
}

func (s *Service) generateImage(ctx context.Context, req Request, data promptData) (string, error) {
	prompt, err := renderPrompt("image.tmpl", data)
	if err != nil {
		return "", err
	}
	img := &imageConfig{AspectRatio: "16:9"}
	if req.ProMode {
		img.ImageSize = "4K"
	}
	resp, err := s.client.generate(ctx, s.models.image(req.ProMode), &generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig:        img,
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate illustration: %w", err)
	}
	inline, ok := resp.image()
	if !ok {
		return "", ErrNoImage
	}
	mime := inline.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return renderImagePage(req.Topics, "data:"+mime+";base64,"+inline.Data)
}

// ParseTopics decodes a JSON string array, tolerating Markdown code fences
// around it. Blank entries are dropped.
func ParseTopics(text string) ([]string, error) {
	var raw []string
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "[<{") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
