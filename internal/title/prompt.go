// Package title generates a manual's title from its steps and screenshots
// with a single multimodal model call.
package title

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"google.golang.org/genai"

	"systemqa/internal/services"
	"systemqa/internal/services/gemini"
)

// instructionPrompt asks for the title text only, with three worked examples.
const instructionPrompt = `以下の各手順と対応する画像を見て、この手順書のタイトルだけを生成してください。出力にはMarkdownやその他の書式設定は含めないでください。以下は例です：

例1：
手順1: ChatGPTアカウントの作成
手順2: メールアドレスの入力
手順3: パスワードの設定
タイトル: ChatGPTアカウントの作成方法

例2：
手順1: 銀行システムへのログイン
手順2: ユーザー名の入力
手順3: パスワードの入力
タイトル: 銀行システムへのログイン方法

例3：
手順1: コンピュータの起動
手順2: デスクトップの表示
手順3: 基本的な操作方法
タイトル: コンピュータの使い方ガイド`

const screenshotMIMEType = "image/png"

// Step is one step's contribution to the prompt. ImagePath is the local
// screenshot and is empty when the step produced none.
type Step struct {
	Description string
	ImagePath   string
}

// PromptBuilder accumulates prompt parts in order.
type PromptBuilder struct {
	parts []*genai.Part
}

// NewPromptBuilder returns an empty builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Text appends a text part normalized to NFC.
func (b *PromptBuilder) Text(text string) *PromptBuilder {
	b.parts = append(b.parts, gemini.TextPart(norm.NFC.String(text)))
	return b
}

// Image appends an inline image part.
func (b *PromptBuilder) Image(mimeType string, data []byte) *PromptBuilder {
	b.parts = append(b.parts, gemini.BlobPart(mimeType, data))
	return b
}

// Parts returns a copy of the accumulated parts.
func (b *PromptBuilder) Parts() []*genai.Part {
	out := make([]*genai.Part, len(b.parts))
	copy(out, b.parts)
	return out
}

// Len reports how many parts have been added.
func (b *PromptBuilder) Len() int {
	return len(b.parts)
}

// BuildPrompt assembles the instruction block followed by each step's text
// and, when present, its screenshot. Steps are numbered from 1 in slice order.
func BuildPrompt(steps []Step) ([]*genai.Part, error) {
	builder := NewPromptBuilder().Text(instructionPrompt)
	for i, step := range steps {
		builder.Text(fmt.Sprintf("手順%d: %s", i+1, strings.TrimSpace(step.Description)))
		if step.ImagePath == "" {
			continue
		}
		data, err := os.ReadFile(step.ImagePath)
		if err != nil {
			return nil, services.Wrap(services.ErrWorkspace, "title", "build prompt",
				fmt.Sprintf("read screenshot for step %d", i+1), err)
		}
		builder.Image(screenshotMIMEType, data)
	}
	return builder.Parts(), nil
}
