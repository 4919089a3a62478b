package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/antitok/providers/ai"
)

// Topic is one fact card.
type Topic struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Teaser   string `json:"teaser"`
}

// ReelType is the "type" discriminator of a reel on the wire.
type ReelType string

const (
	ReelText     ReelType = "text"
	ReelQuestion ReelType = "question"
)

// TextBlock is a reel of plain explanatory text.
type TextBlock struct {
	Content string `json:"content"`
}

// QuestionBlock is a multiple-choice check. CorrectAnswer indexes Options.
type QuestionBlock struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Reel is one slide of a topic. Exactly one of Text and Question is set; on
// the wire the two are told apart by "type".
type Reel struct {
	Text     *TextBlock
	Question *QuestionBlock
}

// TextReel wraps content in a text reel.
func TextReel(content string) Reel {
	return Reel{Text: &TextBlock{Content: content}}
}

// QuestionReel wraps block in a question reel.
func QuestionReel(block QuestionBlock) Reel {
	return Reel{Question: &block}
}

// Type reports which block is set.
func (r Reel) Type() ReelType {
	if r.Question != nil {
		return ReelQuestion
	}
	return ReelText
}

func (r Reel) MarshalJSON() ([]byte, error) {
	switch {
	case r.Question != nil:
		return json.Marshal(struct {
			Type ReelType `json:"type"`
			QuestionBlock
		}{ReelQuestion, *r.Question})
	case r.Text != nil:
		return json.Marshal(struct {
			Type ReelType `json:"type"`
			TextBlock
		}{ReelText, *r.Text})
	default:
		return nil, fmt.Errorf("content: empty reel")
	}
}

func (r *Reel) UnmarshalJSON(data []byte) error {
	var head struct {
		Type ReelType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	switch head.Type {
	case ReelText:
		var block TextBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return err
		}
		*r = Reel{Text: &block}
	case ReelQuestion:
		var block QuestionBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return err
		}
		*r = Reel{Question: &block}
	default:
		return fmt.Errorf("content: unknown reel type %q", head.Type)
	}
	return nil
}

// Validate rejects reels a client could not render.
func (r Reel) Validate() error {
	switch {
	case r.Question != nil:
		q := r.Question
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("question reel without a question")
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question reel needs at least 2 options, got %d", len(q.Options))
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("correct answer %d out of range for %d options", q.CorrectAnswer, len(q.Options))
		}
	case r.Text != nil:
		if strings.TrimSpace(r.Text.Content) == "" {
			return fmt.Errorf("text reel without content")
		}
	default:
		return fmt.Errorf("empty reel")
	}
	return nil
}

// LearningPlan is the Markdown plan produced by Interview.
type LearningPlan struct {
	Markdown string `json:"learningPlan"`
}

// Message is one turn of a chat history sent by the caller.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// toAIMessages converts caller history. Only user and assistant turns are
// accepted; the system prompt is ours to set.
func toAIMessages(history []Message) ([]ai.Message, error) {
	out := make([]ai.Message, 0, len(history))
	for i, message := range history {
		role := ai.MessageRole(strings.ToLower(strings.TrimSpace(message.Role)))
		if role != ai.RoleUser && role != ai.RoleAssistant {
			return nil, invalid(fmt.Sprintf("message %d: role must be user or assistant, got %q", i, message.Role))
		}
		out = append(out, ai.Message{Role: role, Content: message.Content})
	}
	return out, nil
}

// Requests.

// FeedRequest asks for Count new facts, skipping ExistingTopics.
type FeedRequest struct {
	Language       string   `json:"language"`
	ExistingTopics []string `json:"existingTopics"`
	Count          int      `json:"count"`
}

// DiscoverRequest asks for one fact, optionally on a theme.
type DiscoverRequest struct {
	Language string   `json:"language"`
	Theme    string   `json:"theme"`
	History  []string `json:"history"`
}

// ExplainRequest continues a chat about the fact in Teaser.
type ExplainRequest struct {
	Teaser   string    `json:"teaser"`
	Language string    `json:"language"`
	History  []Message `json:"history"`
	Message  string    `json:"message"`
}

// GenerateRequest is a free-form fact chat.
type GenerateRequest struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// LearnRequest asks for the next cards of a learning plan.
type LearnRequest struct {
	LearningPlan   string    `json:"learningPlan"`
	Level          string    `json:"level"`
	Language       string    `json:"language"`
	History        []Message `json:"history"`
	ExistingTopics []string  `json:"existingTopics"`
}
