package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

const aiCallTimeout = 60 * time.Second

type AIService struct {
	client *openai.Client
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// Transcribe converts an audio recording to text using Whisper.
func (s *AIService) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI transcription error: %w", err)
	}

	return resp.Text, nil
}

// AnalyzeEmotion produces a short emotional analysis of a transcript.
func (s *AIService) AnalyzeEmotion(ctx context.Context, transcript string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()

	prompt := fmt.Sprintf(`You are an empathetic listener. Analyze the emotional tone of the
following voice diary transcript. Describe the dominant emotions, their likely causes, and the
overall mood in two or three sentences. Reply with plain text only.

Transcript:
%s`, transcript)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateCoverImage renders a cover image for the given prompt and returns
// it as a data URI.
func (s *AIService) GenerateCoverImage(ctx context.Context, prompt string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()

	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Model:          openai.CreateImageModelDallE3,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI image error: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", fmt.Errorf("no image from OpenAI")
	}

	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}
