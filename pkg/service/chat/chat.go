package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
)

// Citation points a generated answer back at the indexed chunk it drew from
type Citation struct {
	PageID             string  `json:"page_id"`
	PageTitle          string  `json:"page_title"`
	SectionID          string  `json:"section_id,omitempty"`
	SectionName        string  `json:"section_name,omitempty"`
	NotebookID         string  `json:"notebook_id"`
	NotebookName       string  `json:"notebook_name,omitempty"`
	ContentType        string  `json:"content_type"`
	Score              float64 `json:"score"`
	RerankerScore      float64 `json:"reranker_score,omitempty"`
	AttachmentFilename string  `json:"attachment_filename,omitempty"`
	AttachmentFiletype string  `json:"attachment_filetype,omitempty"`
}

// Result is a composed answer with the hits that grounded it
type Result struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// Service composes natural-language answers from search hits
type Service struct {
	llmClient gollem.LLMClient
}

type Option func(*Service)

func New(llmClient gollem.LLMClient, opts ...Option) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	s := &Service{
		llmClient: llmClient,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

const noContextAnswer = "No relevant information was found in your notebook content."

// Answer generates a response to the question grounded on the given hits.
// When no hit carries usable content, a fixed fallback answer is returned
// without calling the model.
func (s *Service) Answer(ctx context.Context, question string, hits []*model.SearchHit) (*Result, error) {
	if question == "" {
		return nil, goerr.New("question is empty")
	}

	grounding := buildContext(hits)
	citations := buildCitations(hits)

	if grounding == "" {
		return &Result{Answer: noContextAnswer, Citations: citations}, nil
	}

	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(answerSystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(question, grounding)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer", goerr.V("question", question))
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("empty answer from LLM", goerr.V("question", question))
	}

	return &Result{
		Answer:    resp.Texts[0],
		Citations: citations,
	}, nil
}

const answerSystemPrompt = `You are an assistant that answers questions from the user's own notebook content.

Guidelines:
1. Answer only from the provided notebook content. If the answer is not in the content, say so plainly.
2. Reference specific pages, sections, or documents when relevant.
3. Be direct and concise. Format structured data such as tables or lists clearly.
4. When several sources cover the same topic, synthesize them instead of repeating each one.`

// buildContext concatenates hit contents with source headers so the model
// can attribute statements back to pages.
func buildContext(hits []*model.SearchHit) string {
	var parts []string
	for _, hit := range hits {
		content := strings.TrimSpace(hit.Document.Content)
		if content == "" {
			continue
		}

		title := hit.Document.PageTitle
		if title == "" {
			title = "Untitled"
		}

		header := "Source: " + title
		if hit.Document.NotebookName != "" && hit.Document.SectionName != "" {
			header += fmt.Sprintf(" (from %s / %s)", hit.Document.NotebookName, hit.Document.SectionName)
		} else if hit.Document.NotebookName != "" {
			header += fmt.Sprintf(" (from %s)", hit.Document.NotebookName)
		}

		parts = append(parts, header+"\n"+content)
	}

	return strings.Join(parts, "\n\n---\n\n")
}

func buildUserPrompt(question, grounding string) string {
	var sb strings.Builder

	sb.WriteString("Answer this question from the notebook content below: ")
	sb.WriteString(question)
	sb.WriteString("\n\n## Notebook Content:\n\n")
	sb.WriteString(grounding)
	sb.WriteString("\n\n## Question: ")
	sb.WriteString(question)
	sb.WriteString("\n")

	return sb.String()
}

func buildCitations(hits []*model.SearchHit) []Citation {
	citations := make([]Citation, 0, len(hits))
	for _, hit := range hits {
		citations = append(citations, Citation{
			PageID:             string(hit.Document.PageID),
			PageTitle:          hit.Document.PageTitle,
			SectionID:          string(hit.Document.SectionID),
			SectionName:        hit.Document.SectionName,
			NotebookID:         string(hit.Document.NotebookID),
			NotebookName:       hit.Document.NotebookName,
			ContentType:        string(hit.Document.ContentType),
			Score:              hit.Score,
			RerankerScore:      hit.RerankerScore,
			AttachmentFilename: hit.Document.AttachmentName,
			AttachmentFiletype: hit.Document.AttachmentType,
		})
	}
	return citations
}
