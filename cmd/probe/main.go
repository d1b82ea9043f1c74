// Command probe sends one metered completion through a running gateway using
// the official OpenAI SDK, with the caller's identity token as the API key.
// Useful as an end-to-end smoke test of the deployed billing pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const requestTimeout = 60 * time.Second

func main() {
	gatewayURL := flag.String("gateway", "http://localhost:8080", "base URL of the gateway")
	token := flag.String("token", os.Getenv("TURNSTILE_TOKEN"), "identity token to authenticate with")
	model := flag.String("model", "gpt-3.5-turbo", "model to request")
	prompt := flag.String("prompt", "Say hello in one short sentence.", "prompt to send")
	flag.Parse()

	if *token == "" {
		log.Fatal("an identity token is required (-token or TURNSTILE_TOKEN)")
	}

	baseURL := strings.TrimRight(*gatewayURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}

	client := openai.NewClient(
		option.WithAPIKey(*token),
		option.WithBaseURL(baseURL),
	)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(*model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(*prompt),
		},
	})
	if err != nil {
		log.Fatalf("completion failed: %v", err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	fmt.Printf("model: %s\n", resp.Model)
	fmt.Printf("content: %s\n", content)
	fmt.Printf("usage: prompt=%d completion=%d\n",
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
}
